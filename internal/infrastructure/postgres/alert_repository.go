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

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas de stock sobre PostgreSQL. La deduplicación la garantiza el índice único
// parcial uq_stock_alerts_unread (producto, tipo) WHERE NOT read.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar el pool.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, product_id, type, urgency, stock_at_alert, read, created_at, read_at, notified_actor_id`

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var a entity.Alert
	err := row.Scan(&a.ID, &a.ProductID, &a.Type, &a.Urgency, &a.StockAtAlert, &a.Read, &a.CreatedAt, &a.ReadAt, &a.NotifiedActorID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateIfNoUnread inserta la alerta; si ya hay una no leída del mismo {producto, tipo} no hace nada.
func (r *AlertRepo) CreateIfNoUnread(ctx context.Context, a *entity.Alert) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO stock_alerts (id, product_id, type, urgency, stock_at_alert, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (product_id, type) WHERE NOT read DO NOTHING`,
		a.ID, a.ProductID, string(a.Type), string(a.Urgency), a.StockAtAlert, a.CreatedAt)
	if err != nil {
		return false, mapError("insert alert", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID obtiene una alerta.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get alert", err)
	}
	return a, nil
}

// MarkRead marca como leída solo si estaba no leída.
func (r *AlertRepo) MarkRead(ctx context.Context, id, actorID string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_alerts SET read = TRUE, read_at = $2, notified_actor_id = $3
		WHERE id = $1 AND NOT read`, id, at, actorID)
	if err != nil {
		return false, mapError("mark alert read", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("%w: alerta %s", domain.ErrNotFound, id)
	}
	return false, nil
}

// List búsqueda paginada, más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.Alert, error) {
	w := newWhere()
	w.eq("product_id", f.ProductID)
	w.eq("type", string(f.Type))
	w.eq("urgency", string(f.Urgency))
	if f.Unread != nil {
		w.raw("read = ?", !*f.Unread)
	}
	w.dateRange("created_at", f.DateRange)
	query := `SELECT ` + alertColumns + ` FROM stock_alerts` + w.sql() + ` ORDER BY created_at DESC, id` + w.page(f.Page)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list alerts", err)
	}
	defer rows.Close()
	var list []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, mapError("scan alert", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
