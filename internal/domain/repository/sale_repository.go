package repository

import (
	"context"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas y sus líneas.
type SaleRepository interface {
	// Create persiste cabecera y líneas. Código repetido -> domain.ErrDuplicate.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve la venta con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate igual que GetByID pero bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	MarkAnnulled(ctx context.Context, id string, note string, at time.Time) error
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
	// LastCodeNumber mayor número de código emitido (V-00000042 -> 42). 0 si no hay ventas.
	LastCodeNumber(ctx context.Context) (int64, error)
}
