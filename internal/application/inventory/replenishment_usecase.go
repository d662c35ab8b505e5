package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	domaininv "github.com/jhoicas/boutique-backoffice/internal/domain/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReplenishmentUseCase seguimiento de órdenes de reposición: alta, recepción parcial/total
// (entradas IN en el libro) y consulta de órdenes vencidas.
type ReplenishmentUseCase struct {
	txRunner    TxRunner
	ledger      *Ledger
	productRepo repository.ProductRepository
	orderRepo   repository.ReplenishmentRepository
	alerts      AlertEvaluator
	log         *logger.Logger
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	txRunner TxRunner,
	ledger *Ledger,
	productRepo repository.ProductRepository,
	orderRepo repository.ReplenishmentRepository,
	alerts AlertEvaluator,
	log *logger.Logger,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		txRunner:    txRunner,
		ledger:      ledger,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		alerts:      alerts,
		log:         log.Component("replenishment"),
	}
}

// CreateOrder registra una orden de reposición en estado PENDING.
func (uc *ReplenishmentUseCase) CreateOrder(ctx context.Context, in dto.CreateReplenishmentOrderRequest) (*entity.ReplenishmentOrder, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	for _, l := range in.Lines {
		p, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
	}

	now := uc.ledger.Now()
	order := &entity.ReplenishmentOrder{
		ID:         uuid.New().String(),
		SupplierID: in.SupplierID,
		Status:     entity.ReplenishmentPending,
		ExpectedAt: in.ExpectedAt,
		CreatedAt:  now,
		CreatedBy:  in.CreatedBy,
		Lines:      make([]entity.ReplenishmentLine, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		order.Lines = append(order.Lines, entity.ReplenishmentLine{
			ID:           uuid.New().String(),
			OrderID:      order.ID,
			ProductID:    l.ProductID,
			QtySolicited: l.Quantity,
			UnitCost:     l.UnitCost,
			Status:       entity.ReplenishmentPending,
		})
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		return repos.Replenishments.Create(ctx, order)
	})
	if err != nil {
		if !domain.IsClientError(err) {
			uc.log.OpError("create_replenishment_order", err).
				Str("supplier_id", in.SupplierID).
				Str("actor", in.CreatedBy).
				Msg("fallo inesperado creando orden de reposición")
		}
		return nil, err
	}
	return order, nil
}

// RegisterReceipt registra la recepción de una línea: limita la cantidad a lo pendiente, aplica una
// entrada IN por lo recibido, actualiza el costo promedio de compra y recalcula estados de línea y orden.
func (uc *ReplenishmentUseCase) RegisterReceipt(ctx context.Context, in dto.RegisterReceiptRequest) (*entity.ReplenishmentOrder, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}

	var order *entity.ReplenishmentOrder
	var productID string
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		// 1) Bloquea la línea (y su orden) hasta el fin de la tx
		line, err := repos.Replenishments.GetLineForUpdate(ctx, in.LineID)
		if err != nil {
			return err
		}
		if line == nil {
			return fmt.Errorf("%w: línea de reposición %s", domain.ErrNotFound, in.LineID)
		}
		delta := domaininv.ClampReceipt(*line, in.QtyReceived)
		if delta == 0 {
			return fmt.Errorf("%w: la línea ya fue recibida por completo", domain.ErrBusinessRule)
		}
		productID = line.ProductID

		// 2) Entrada IN en el libro por lo efectivamente recibido
		mov, err := uc.ledger.ApplyMovement(ctx, repos, MovementInput{
			ProductID:   line.ProductID,
			Type:        entity.MovementTypeIN,
			Quantity:    delta,
			ActorID:     in.ActorID,
			ReferenceID: line.ID,
			Note:        "REPOSICION " + line.OrderID,
		})
		if err != nil {
			return err
		}

		// 3) Costo promedio ponderado de compra
		if line.UnitCost.GreaterThan(decimal.Zero) {
			product, err := repos.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			newCost := domaininv.CostCalculator(mov.StockBefore, product.BuyPrice, delta, line.UnitCost)
			if err := repos.Products.UpdateBuyPrice(ctx, line.ProductID, newCost); err != nil {
				return err
			}
		}

		// 4) Estados de línea y orden
		line.QtyReceived += delta
		line.Status = domaininv.LineStatus(*line)
		if err := repos.Replenishments.UpdateLine(ctx, line); err != nil {
			return err
		}
		order, err = repos.Replenishments.GetByID(ctx, line.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: orden %s", domain.ErrNotFound, line.OrderID)
		}
		order.Status = domaininv.OrderStatus(order.Lines)
		return repos.Replenishments.UpdateStatus(ctx, order.ID, order.Status)
	})
	if err != nil {
		if !domain.IsClientError(err) {
			uc.log.OpError("register_receipt", err).
				Str("line_id", in.LineID).
				Int("qty", in.QtyReceived).
				Str("actor", in.ActorID).
				Msg("fallo inesperado registrando recepción")
		}
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("line_id", in.LineID).
		Str("status", string(order.Status)).
		Msg("recepción de reposición registrada")

	EvaluateAlerts(ctx, uc.alerts, uc.log, productID)
	return order, nil
}

// GetOrder obtiene una orden con sus líneas.
func (uc *ReplenishmentUseCase) GetOrder(ctx context.Context, id string) (*entity.ReplenishmentOrder, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// ListOverdue órdenes no completas cuya fecha esperada de entrega ya pasó.
func (uc *ReplenishmentUseCase) ListOverdue(ctx context.Context, page repository.Page) ([]*entity.ReplenishmentOrder, error) {
	return uc.orderRepo.ListOverdue(ctx, uc.now(), page.Normalize())
}

func (uc *ReplenishmentUseCase) now() time.Time { return uc.ledger.Now() }
