package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, code, name, buy_price, sell_price, stock, stock_minimum, active, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.BuyPrice, &p.SellPrice, &p.Stock, &p.StockMinimum, &p.Active, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto y bloquea la fila para update (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product for update", err)
	}
	return p, nil
}

// UpdateStock actualiza el stock cacheado. Solo lo invoca el libro de stock.
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, stock int) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, id, stock)
	return mapError("update product stock", err)
}

// UpdateBuyPrice actualiza el costo promedio de compra.
func (r *ProductRepo) UpdateBuyPrice(ctx context.Context, id string, price decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET buy_price = $2, updated_at = now() WHERE id = $1`, id, price)
	return mapError("update product buy price", err)
}

// ListLowStock productos activos con stock <= stock mínimo.
func (r *ProductRepo) ListLowStock(ctx context.Context, page repository.Page) ([]*entity.Product, error) {
	return r.list(ctx, "list low stock", `active AND stock <= stock_minimum`, page)
}

// ListLowStockAfter keyset sobre (code, id): filas que salen de la condición no desplazan las siguientes.
func (r *ProductRepo) ListLowStockAfter(ctx context.Context, after repository.ProductCursor, limit int) ([]*entity.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE active AND stock <= stock_minimum AND (code, id) > ($1, $2)
		ORDER BY code, id LIMIT $3`, productColumns)
	rows, err := r.q.Query(ctx, query, after.Code, after.ID, limit)
	if err != nil {
		return nil, mapError("list low stock after", err)
	}
	return collectProducts(rows, "list low stock after")
}

// ListOutOfStock productos activos agotados.
func (r *ProductRepo) ListOutOfStock(ctx context.Context, page repository.Page) ([]*entity.Product, error) {
	return r.list(ctx, "list out of stock", `active AND stock = 0`, page)
}

func (r *ProductRepo) list(ctx context.Context, op, where string, page repository.Page) ([]*entity.Product, error) {
	page = page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY code, id LIMIT $1 OFFSET $2`, productColumns, where)
	rows, err := r.q.Query(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, mapError(op, err)
	}
	return collectProducts(rows, op)
}

func collectProducts(rows pgx.Rows, op string) ([]*entity.Product, error) {
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
