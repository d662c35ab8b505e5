package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var (
	_ repository.SequenceGenerator = (*Sequence)(nil)
	_ repository.SequenceSeeder    = (*Sequence)(nil)
)

// Sequence generador sobre secuencias nativas de PostgreSQL (<name>_seq). nextval no participa
// del rollback: un valor consumido por una venta fallida no se reutiliza.
type Sequence struct {
	q Querier
}

// NewSequence construye el generador. Pasar el pool.
func NewSequence(q Querier) *Sequence {
	return &Sequence{q: q}
}

// Next devuelve nextval de la secuencia name.
func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	query := fmt.Sprintf("SELECT nextval('%s')", pgx.Identifier{name + "_seq"}.Sanitize())
	var n int64
	if err := s.q.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, mapError("next sequence", err)
	}
	return n, nil
}

// Seed sube la secuencia a last si está por debajo (ej: tras emitir códigos desde Redis).
// setval(.., false) cuando la secuencia nunca se usó y last es 0 deja intacto el primer nextval.
func (s *Sequence) Seed(ctx context.Context, name string, last int64) error {
	seq := pgx.Identifier{name + "_seq"}.Sanitize()
	query := fmt.Sprintf(`
		SELECT setval('%[1]s', GREATEST($1::bigint, last_value), is_called OR $1::bigint > last_value)
		FROM %[1]s`, seq)
	if _, err := s.q.Exec(ctx, query, last); err != nil {
		return mapError("seed sequence", err)
	}
	return nil
}
