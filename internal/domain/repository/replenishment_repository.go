package repository

import (
	"context"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// ReplenishmentRepository puerto de órdenes de reposición a proveedores.
type ReplenishmentRepository interface {
	Create(ctx context.Context, order *entity.ReplenishmentOrder) error
	GetByID(ctx context.Context, id string) (*entity.ReplenishmentOrder, error)
	// GetLineForUpdate bloquea la línea hasta el fin de la transacción.
	GetLineForUpdate(ctx context.Context, lineID string) (*entity.ReplenishmentLine, error)
	UpdateLine(ctx context.Context, line *entity.ReplenishmentLine) error
	UpdateStatus(ctx context.Context, orderID string, status entity.ReplenishmentStatus) error
	// ListOverdue órdenes no completas cuya fecha esperada ya pasó.
	ListOverdue(ctx context.Context, now time.Time, page Page) ([]*entity.ReplenishmentOrder, error)
}
