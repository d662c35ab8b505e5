package postgres

import (
	"fmt"
	"strings"

	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

// where arma cláusulas WHERE con parámetros posicionales para los listados filtrados.
type where struct {
	conds []string
	args  []any
}

func newWhere() *where { return &where{} }

func (w *where) next() string { return fmt.Sprintf("$%d", len(w.args)) }

// eq agrega "col = $n" si v no está vacío.
func (w *where) eq(col, v string) {
	if v == "" {
		return
	}
	w.args = append(w.args, v)
	w.conds = append(w.conds, col+" = "+w.next())
}

func (w *where) raw(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", w.next(), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) dateRange(col string, r repository.DateRange) {
	if r.From != nil {
		w.raw(col+" >= ?", *r.From)
	}
	if r.To != nil {
		w.raw(col+" <= ?", *r.To)
	}
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page agrega LIMIT/OFFSET normalizados como parámetros.
func (w *where) page(p repository.Page) string {
	p = p.Normalize()
	w.args = append(w.args, p.Limit)
	limit := w.next()
	w.args = append(w.args, p.Offset)
	return " LIMIT " + limit + " OFFSET " + w.next()
}
