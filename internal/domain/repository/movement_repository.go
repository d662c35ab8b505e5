package repository

import (
	"context"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// MovementRepository puerto del libro de movimientos (append-only: no hay Update ni Delete).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// ListAllByProduct historial completo en orden cronológico (para reconciliación).
	ListAllByProduct(ctx context.Context, productID string) ([]*entity.Movement, error)
}
