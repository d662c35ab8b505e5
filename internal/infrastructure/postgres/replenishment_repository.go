package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.ReplenishmentRepository = (*ReplenishmentRepo)(nil)

// ReplenishmentRepo órdenes de reposición sobre PostgreSQL.
type ReplenishmentRepo struct {
	q Querier
}

// NewReplenishmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReplenishmentRepository(q Querier) *ReplenishmentRepo {
	return &ReplenishmentRepo{q: q}
}

const (
	orderColumns = `id, supplier_id, status, expected_at, created_at, created_by`
	lineColumns  = `l.id, l.order_id, l.product_id, l.qty_solicited, l.qty_received, l.unit_cost, l.status`
)

func scanOrder(row pgx.Row) (*entity.ReplenishmentOrder, error) {
	var o entity.ReplenishmentOrder
	if err := row.Scan(&o.ID, &o.SupplierID, &o.Status, &o.ExpectedAt, &o.CreatedAt, &o.CreatedBy); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanLine(row pgx.Row) (*entity.ReplenishmentLine, error) {
	var l entity.ReplenishmentLine
	if err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QtySolicited, &l.QtyReceived, &l.UnitCost, &l.Status); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste la orden y sus líneas.
func (r *ReplenishmentRepo) Create(ctx context.Context, o *entity.ReplenishmentOrder) error {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO replenishment_orders (id, supplier_id, status, expected_at, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.SupplierID, string(o.Status), o.ExpectedAt, o.CreatedAt, o.CreatedBy); err != nil {
		return mapError("insert replenishment order", err)
	}
	for _, l := range o.Lines {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO replenishment_lines (id, order_id, product_id, qty_solicited, qty_received, unit_cost, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, o.ID, l.ProductID, l.QtySolicited, l.QtyReceived, l.UnitCost, string(l.Status)); err != nil {
			return mapError("insert replenishment line", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *ReplenishmentRepo) GetByID(ctx context.Context, id string) (*entity.ReplenishmentOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM replenishment_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get replenishment order", err)
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *ReplenishmentRepo) loadLines(ctx context.Context, o *entity.ReplenishmentOrder) error {
	rows, err := r.q.Query(ctx, `SELECT `+lineColumns+` FROM replenishment_lines l WHERE l.order_id = $1 ORDER BY l.product_id, l.id`, o.ID)
	if err != nil {
		return mapError("list replenishment lines", err)
	}
	defer rows.Close()
	o.Lines = o.Lines[:0]
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return mapError("scan replenishment line", err)
		}
		o.Lines = append(o.Lines, *l)
	}
	return rows.Err()
}

// GetLineForUpdate bloquea la línea y la cabecera de su orden (SELECT FOR UPDATE).
func (r *ReplenishmentRepo) GetLineForUpdate(ctx context.Context, lineID string) (*entity.ReplenishmentLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, `
		SELECT `+lineColumns+`
		FROM replenishment_lines l
		JOIN replenishment_orders o ON o.id = l.order_id
		WHERE l.id = $1
		FOR UPDATE`, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get replenishment line for update", err)
	}
	return l, nil
}

// UpdateLine persiste cantidad recibida y estado de la línea.
func (r *ReplenishmentRepo) UpdateLine(ctx context.Context, l *entity.ReplenishmentLine) error {
	tag, err := r.q.Exec(ctx, `UPDATE replenishment_lines SET qty_received = $2, status = $3 WHERE id = $1`,
		l.ID, l.QtyReceived, string(l.Status))
	if err != nil {
		return mapError("update replenishment line", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea de reposición %s", domain.ErrNotFound, l.ID)
	}
	return nil
}

// UpdateStatus persiste el estado agregado de la orden.
func (r *ReplenishmentRepo) UpdateStatus(ctx context.Context, orderID string, status entity.ReplenishmentStatus) error {
	_, err := r.q.Exec(ctx, `UPDATE replenishment_orders SET status = $2 WHERE id = $1`, orderID, string(status))
	return mapError("update replenishment status", err)
}

// ListOverdue órdenes no completas con fecha esperada anterior a now.
func (r *ReplenishmentRepo) ListOverdue(ctx context.Context, now time.Time, page repository.Page) ([]*entity.ReplenishmentOrder, error) {
	page = page.Normalize()
	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+` FROM replenishment_orders
		WHERE status <> $1 AND expected_at < $2
		ORDER BY expected_at, id LIMIT $3 OFFSET $4`,
		string(entity.ReplenishmentComplete), now, page.Limit, page.Offset)
	if err != nil {
		return nil, mapError("list overdue orders", err)
	}
	var list []*entity.ReplenishmentOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan replenishment order", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list overdue orders", err)
	}
	for _, o := range list {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return list, nil
}
