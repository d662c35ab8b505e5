package inventory

import (
	"context"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Products       repository.ProductRepository
	Movements      repository.MovementRepository
	Sales          repository.SaleRepository
	Returns        repository.ReturnRepository
	Replenishments repository.ReplenishmentRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// AlertEvaluator evalúa alertas de stock de un producto tras una mutación ya confirmada.
// Implementado por alerts.Engine.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, productID string) (*entity.Alert, error)
}
