package repository

import (
	"context"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository puerto de lectura del catálogo y escritura del stock cacheado.
// El alta y edición de productos pertenece al catálogo externo.
type ProductRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	UpdateStock(ctx context.Context, id string, stock int) error
	UpdateBuyPrice(ctx context.Context, id string, price decimal.Decimal) error
	// ListLowStock productos activos con stock <= stock mínimo (incluye agotados).
	ListLowStock(ctx context.Context, page Page) ([]*entity.Product, error)
	// ListLowStockAfter igual que ListLowStock pero paginado por clave: hasta limit productos
	// posteriores a after en el orden (code, id).
	ListLowStockAfter(ctx context.Context, after ProductCursor, limit int) ([]*entity.Product, error)
	// ListOutOfStock productos activos con stock == 0.
	ListOutOfStock(ctx context.Context, page Page) ([]*entity.Product, error)
}
