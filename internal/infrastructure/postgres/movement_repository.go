package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, type, quantity, stock_before, stock_after, created_at, actor_id,
	COALESCE(sale_id::text, ''), COALESCE(reference_id, ''), note`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.StockBefore, &m.StockAfter,
		&m.CreatedAt, &m.ActorID, &m.SaleID, &m.ReferenceID, &m.Note)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, type, quantity, stock_before, stock_after, created_at, actor_id, sale_id, reference_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, string(m.Type), m.Quantity, m.StockBefore, m.StockAfter,
		m.CreatedAt, m.ActorID, nullIfEmpty(m.SaleID), nullIfEmpty(m.ReferenceID), m.Note,
	)
	return mapError("create movement", err)
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get movement", err)
	}
	return m, nil
}

// List búsqueda paginada, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	w := newWhere()
	w.eq("product_id", f.ProductID)
	w.eq("sale_id", f.SaleID)
	w.eq("actor_id", f.ActorID)
	w.eq("type", string(f.Type))
	w.dateRange("created_at", f.DateRange)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + w.sql() + ` ORDER BY created_at DESC, seq DESC` + w.page(f.Page)
	return r.query(ctx, "list movements", query, w.args...)
}

// ListAllByProduct historial completo del producto en orden de inserción.
func (r *MovementRepo) ListAllByProduct(ctx context.Context, productID string) ([]*entity.Movement, error) {
	return r.query(ctx, "list movements by product",
		`SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY seq`, productID)
}

func (r *MovementRepo) query(ctx context.Context, op, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
