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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y líneas de venta sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, code, client_id, seller_id, payment_method_id, subtotal, tax, total, status, note, created_at, annulled_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.Code, &s.ClientID, &s.SellerID, &s.PaymentMethodID,
		&s.Subtotal, &s.Tax, &s.Total, &s.Status, &s.Note, &s.CreatedAt, &s.AnnulledAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste la cabecera y sus líneas. Código repetido -> domain.ErrDuplicate.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, code, client_id, seller_id, payment_method_id, subtotal, tax, total, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.Code, sale.ClientID, sale.SellerID, sale.PaymentMethodID,
		sale.Subtotal, sale.Tax, sale.Total, string(sale.Status), sale.Note, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de venta %s", domain.ErrDuplicate, sale.Code)
		}
		return mapError("insert sale", err)
	}
	lineQuery := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, discount, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range sale.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, l.ID, sale.ID, l.ProductID, l.Quantity, l.UnitPrice, l.Discount, l.Subtotal); err != nil {
			return mapError("insert sale line", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, "get sale", `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta y bloquea la cabecera (SELECT FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, "get sale for update", `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, op, query, id string) (*entity.Sale, error) {
	sale, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	if err := r.loadLines(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *SaleRepo) loadLines(ctx context.Context, sale *entity.Sale) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, discount, subtotal
		FROM sale_lines WHERE sale_id = $1 ORDER BY product_id, id`, sale.ID)
	if err != nil {
		return mapError("list sale lines", err)
	}
	defer rows.Close()
	sale.Lines = sale.Lines[:0]
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Subtotal); err != nil {
			return mapError("scan sale line", err)
		}
		sale.Lines = append(sale.Lines, l)
	}
	return rows.Err()
}

// MarkAnnulled cambia el estado a ANNULLED y reemplaza la nota de auditoría.
func (r *SaleRepo) MarkAnnulled(ctx context.Context, id, note string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, note = $3, annulled_at = $4 WHERE id = $1`,
		id, string(entity.SaleStatusAnnulled), note, at)
	if err != nil {
		return mapError("annul sale", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: venta %s", domain.ErrNotFound, id)
	}
	return nil
}

// List búsqueda paginada de ventas, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	w := newWhere()
	w.eq("status", string(f.Status))
	w.eq("client_id", f.ClientID)
	w.eq("seller_id", f.SellerID)
	w.dateRange("created_at", f.DateRange)
	if f.ProductID != "" {
		w.raw("EXISTS (SELECT 1 FROM sale_lines sl WHERE sl.sale_id = sales.id AND sl.product_id = ?)", f.ProductID)
	}
	query := `SELECT ` + saleColumns + ` FROM sales` + w.sql() + ` ORDER BY created_at DESC, id` + w.page(f.Page)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list sales", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan sale", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list sales", err)
	}
	// Las líneas se cargan tras cerrar el cursor: una tx no admite dos consultas abiertas.
	for _, s := range list {
		if err := r.loadLines(ctx, s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// LastCodeNumber mayor número de código de venta emitido (V-00000042 -> 42). 0 si no hay ventas.
func (r *SaleRepo) LastCodeNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM 3) AS BIGINT)), 0)
		FROM sales WHERE code ~ '^V-[0-9]+$'`).Scan(&n)
	if err != nil {
		return 0, mapError("last sale code", err)
	}
	return n, nil
}
