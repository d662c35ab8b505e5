package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo devoluciones sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, sale_id, actor_id, status, reason, total_refund, created_at, resolved_at, resolved_by, completed_at`

func scanReturn(row pgx.Row) (*entity.Return, error) {
	var ret entity.Return
	err := row.Scan(&ret.ID, &ret.SaleID, &ret.ActorID, &ret.Status, &ret.Reason, &ret.TotalRefund,
		&ret.CreatedAt, &ret.ResolvedAt, &ret.ResolvedBy, &ret.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Create persiste la devolución y sus líneas.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.Return) error {
	query := `
		INSERT INTO returns (id, sale_id, actor_id, status, reason, total_refund, created_at, resolved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.q.Exec(ctx, query, ret.ID, ret.SaleID, ret.ActorID, string(ret.Status), ret.Reason,
		ret.TotalRefund, ret.CreatedAt, ret.ResolvedBy); err != nil {
		return mapError("insert return", err)
	}
	for _, l := range ret.Lines {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO return_lines (id, return_id, product_id, quantity, reason)
			VALUES ($1, $2, $3, $4, $5)`, l.ID, ret.ID, l.ProductID, l.Quantity, l.Reason); err != nil {
			return mapError("insert return line", err)
		}
	}
	return nil
}

// GetByID obtiene la devolución con sus líneas.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, "get return", `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID con bloqueo de fila.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	return r.get(ctx, "get return for update", `SELECT `+returnColumns+` FROM returns WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReturnRepo) get(ctx context.Context, op, query, id string) (*entity.Return, error) {
	ret, err := scanReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	if err := r.loadLines(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *ReturnRepo) loadLines(ctx context.Context, ret *entity.Return) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, return_id, product_id, quantity, reason
		FROM return_lines WHERE return_id = $1 ORDER BY product_id, id`, ret.ID)
	if err != nil {
		return mapError("list return lines", err)
	}
	defer rows.Close()
	ret.Lines = ret.Lines[:0]
	for rows.Next() {
		var l entity.ReturnLine
		if err := rows.Scan(&l.ID, &l.ReturnID, &l.ProductID, &l.Quantity, &l.Reason); err != nil {
			return mapError("scan return line", err)
		}
		ret.Lines = append(ret.Lines, l)
	}
	return rows.Err()
}

// Update persiste estado, motivo, reembolso y marcas de resolución.
func (r *ReturnRepo) Update(ctx context.Context, ret *entity.Return) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE returns
		SET status = $2, reason = $3, total_refund = $4, resolved_at = $5, resolved_by = $6, completed_at = $7
		WHERE id = $1`,
		ret.ID, string(ret.Status), ret.Reason, ret.TotalRefund, ret.ResolvedAt, ret.ResolvedBy, ret.CompletedAt)
	if err != nil {
		return mapError("update return", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: devolución %s", domain.ErrNotFound, ret.ID)
	}
	return nil
}

// ReturnedQtyBySale cantidad por producto en devoluciones no rechazadas de la venta.
func (r *ReturnRepo) ReturnedQtyBySale(ctx context.Context, saleID string) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT rl.product_id, SUM(rl.quantity)
		FROM return_lines rl
		JOIN returns rt ON rt.id = rl.return_id
		WHERE rt.sale_id = $1 AND rt.status <> $2
		GROUP BY rl.product_id`, saleID, string(entity.ReturnStatusRejected))
	if err != nil {
		return nil, mapError("returned qty by sale", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var productID string
		var qty int64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, mapError("scan returned qty", err)
		}
		out[productID] = int(qty)
	}
	return out, rows.Err()
}

// List búsqueda paginada, más recientes primero.
func (r *ReturnRepo) List(ctx context.Context, f repository.ReturnFilter) ([]*entity.Return, error) {
	w := newWhere()
	w.eq("sale_id", f.SaleID)
	w.eq("status", string(f.Status))
	w.eq("actor_id", f.ActorID)
	w.dateRange("created_at", f.DateRange)
	if f.ProductID != "" {
		w.raw("EXISTS (SELECT 1 FROM return_lines rl WHERE rl.return_id = returns.id AND rl.product_id = ?)", f.ProductID)
	}
	query := `SELECT ` + returnColumns + ` FROM returns` + w.sql() + ` ORDER BY created_at DESC, id` + w.page(f.Page)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list returns", err)
	}
	var list []*entity.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan return", err)
		}
		list = append(list, ret)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list returns", err)
	}
	for _, ret := range list {
		if err := r.loadLines(ctx, ret); err != nil {
			return nil, err
		}
	}
	return list, nil
}
