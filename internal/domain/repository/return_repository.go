package repository

import (
	"context"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// ReturnRepository puerto de persistencia de devoluciones.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.Return) error
	GetByID(ctx context.Context, id string) (*entity.Return, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Return, error)
	// Update persiste estado, reembolso y marcas de resolución/completado.
	Update(ctx context.Context, ret *entity.Return) error
	// ReturnedQtyBySale cantidad comprometida por producto en devoluciones no rechazadas de la venta.
	ReturnedQtyBySale(ctx context.Context, saleID string) (map[string]int, error)
	List(ctx context.Context, filter ReturnFilter) ([]*entity.Return, error)
}
