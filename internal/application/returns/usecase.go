package returns

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	salesrules "github.com/jhoicas/boutique-backoffice/internal/domain/sales"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReturnUseCase flujo de devoluciones de cliente:
// PENDING -> APPROVED -> COMPLETED, o PENDING -> REJECTED.
type ReturnUseCase struct {
	txRunner   inventory.TxRunner
	ledger     *inventory.Ledger
	returnRepo repository.ReturnRepository
	alerts     inventory.AlertEvaluator
	window     time.Duration
	log        *logger.Logger
}

// NewReturnUseCase construye el caso de uso. window es la ventana de devolución (30 días por defecto).
func NewReturnUseCase(
	txRunner inventory.TxRunner,
	ledger *inventory.Ledger,
	returnRepo repository.ReturnRepository,
	alerts inventory.AlertEvaluator,
	window time.Duration,
	log *logger.Logger,
) *ReturnUseCase {
	return &ReturnUseCase{
		txRunner:   txRunner,
		ledger:     ledger,
		returnRepo: returnRepo,
		alerts:     alerts,
		window:     window,
		log:        log.Component("returns"),
	}
}

// CreateReturn registra una solicitud de devolución en estado PENDING.
// La cantidad por producto no puede superar lo vendido menos lo ya comprometido en otras
// devoluciones no rechazadas de la misma venta.
func (uc *ReturnUseCase) CreateReturn(ctx context.Context, in dto.CreateReturnRequest) (*entity.Return, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	requested := make(map[string]int, len(in.Lines))
	for _, l := range in.Lines {
		requested[l.ProductID] += l.Quantity
	}

	now := uc.ledger.Now()
	var ret *entity.Return
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		// 1) Bloquea la venta: solicitudes concurrentes sobre la misma venta se serializan
		sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, in.SaleID)
		}
		if sale.Status != entity.SaleStatusPaid {
			return fmt.Errorf("%w: venta %s en estado %s", domain.ErrBusinessRule, sale.Code, sale.Status)
		}
		if !salesrules.WithinWindow(sale.CreatedAt, now, uc.window) {
			return fmt.Errorf("%w: venta %s fuera de la ventana de devolución", domain.ErrBusinessRule, sale.Code)
		}

		// 2) Vendido - ya devuelto, por producto
		sold := make(map[string]int, len(sale.Lines))
		for _, l := range sale.Lines {
			sold[l.ProductID] += l.Quantity
		}
		returned, err := repos.Returns.ReturnedQtyBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		for productID, qty := range requested {
			available := sold[productID] - returned[productID]
			if sold[productID] == 0 {
				return fmt.Errorf("%w: producto %s no pertenece a la venta %s", domain.ErrBusinessRule, productID, sale.Code)
			}
			if qty > available {
				return fmt.Errorf("%w: producto %s disponible para devolver %d, solicitado %d",
					domain.ErrBusinessRule, productID, available, qty)
			}
		}

		// 3) Reembolso estimado con el precio de venta vigente
		refund, err := refundFor(ctx, repos.Products, in.Lines)
		if err != nil {
			return err
		}

		ret = &entity.Return{
			ID:          uuid.New().String(),
			SaleID:      sale.ID,
			ActorID:     in.ActorID,
			Status:      entity.ReturnStatusPending,
			Reason:      in.Reason,
			TotalRefund: refund,
			CreatedAt:   now,
			Lines:       make([]entity.ReturnLine, 0, len(in.Lines)),
		}
		for _, l := range in.Lines {
			ret.Lines = append(ret.Lines, entity.ReturnLine{
				ID:        uuid.New().String(),
				ReturnID:  ret.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Reason:    l.Reason,
			})
		}
		return repos.Returns.Create(ctx, ret)
	})
	if err != nil {
		uc.logFailure("create_return", err, in.SaleID, in.ActorID)
		return nil, err
	}
	uc.log.Info().
		Str("return_id", ret.ID).
		Str("sale_id", ret.SaleID).
		Str("actor", ret.ActorID).
		Msg("devolución solicitada")
	return ret, nil
}

// ApproveReturn PENDING -> APPROVED. Aprobar una devolución ya aprobada no es error.
func (uc *ReturnUseCase) ApproveReturn(ctx context.Context, id, actorID string) (*entity.Return, error) {
	return uc.resolve(ctx, "approve_return", id, actorID, entity.ReturnStatusApproved, "")
}

// RejectReturn PENDING -> REJECTED (terminal). Rechazar una devolución ya rechazada no es error.
func (uc *ReturnUseCase) RejectReturn(ctx context.Context, id, actorID, reason string) (*entity.Return, error) {
	return uc.resolve(ctx, "reject_return", id, actorID, entity.ReturnStatusRejected, reason)
}

func (uc *ReturnUseCase) resolve(ctx context.Context, op, id, actorID string, to entity.ReturnStatus, reason string) (*entity.Return, error) {
	if id == "" || actorID == "" {
		return nil, fmt.Errorf("%w: devolución y actor son obligatorios", domain.ErrInvalidInput)
	}
	now := uc.ledger.Now()
	var ret *entity.Return
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		var err error
		ret, err = repos.Returns.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret == nil {
			return fmt.Errorf("%w: devolución %s", domain.ErrNotFound, id)
		}
		if ret.Status == to {
			return nil
		}
		if !salesrules.CanTransitionReturn(ret.Status, to) {
			return fmt.Errorf("%w: devolución en estado %s no puede pasar a %s", domain.ErrBusinessRule, ret.Status, to)
		}
		ret.Status = to
		ret.ResolvedAt = &now
		ret.ResolvedBy = actorID
		if reason != "" {
			if ret.Reason != "" {
				ret.Reason += "\n"
			}
			ret.Reason += "RECHAZO: " + reason
		}
		return repos.Returns.Update(ctx, ret)
	})
	if err != nil {
		uc.logFailure(op, err, id, actorID)
		return nil, err
	}
	return ret, nil
}

// CompleteReturn APPROVED -> COMPLETED. Aplica una entrada RETURN por línea y recalcula
// TotalRefund = Σ(cantidad × precio de venta).
func (uc *ReturnUseCase) CompleteReturn(ctx context.Context, id, actorID string) (*entity.Return, error) {
	if id == "" || actorID == "" {
		return nil, fmt.Errorf("%w: devolución y actor son obligatorios", domain.ErrInvalidInput)
	}
	now := uc.ledger.Now()
	var ret *entity.Return
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		var err error
		ret, err = repos.Returns.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret == nil {
			return fmt.Errorf("%w: devolución %s", domain.ErrNotFound, id)
		}
		if !salesrules.CanTransitionReturn(ret.Status, entity.ReturnStatusCompleted) {
			return fmt.Errorf("%w: solo se completa una devolución aprobada (estado %s)", domain.ErrBusinessRule, ret.Status)
		}

		lines := make([]entity.ReturnLine, len(ret.Lines))
		copy(lines, ret.Lines)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, l := range lines {
			if _, err := uc.ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
				ProductID:   l.ProductID,
				Type:        entity.MovementTypeRETURN,
				Quantity:    l.Quantity,
				ActorID:     actorID,
				SaleID:      ret.SaleID,
				ReferenceID: ret.ID,
				Note:        "DEVOLUCION " + ret.ID,
				At:          now,
			}); err != nil {
				return err
			}
		}

		reqLines := make([]dto.ReturnLineRequest, len(ret.Lines))
		for i, l := range ret.Lines {
			reqLines[i] = dto.ReturnLineRequest{ProductID: l.ProductID, Quantity: l.Quantity}
		}
		ret.TotalRefund, err = refundFor(ctx, repos.Products, reqLines)
		if err != nil {
			return err
		}
		ret.Status = entity.ReturnStatusCompleted
		ret.CompletedAt = &now
		return repos.Returns.Update(ctx, ret)
	})
	if err != nil {
		uc.logFailure("complete_return", err, id, actorID)
		return nil, err
	}

	uc.log.Info().
		Str("return_id", ret.ID).
		Str("refund", ret.TotalRefund.StringFixed(2)).
		Str("actor", actorID).
		Msg("devolución completada")

	ids := make([]string, 0, len(ret.Lines))
	for _, l := range ret.Lines {
		ids = append(ids, l.ProductID)
	}
	inventory.EvaluateAlerts(ctx, uc.alerts, uc.log, ids...)
	return ret, nil
}

// GetReturn obtiene una devolución con sus líneas.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, id string) (*entity.Return, error) {
	ret, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	return ret, nil
}

// ListReturns búsqueda paginada por venta, estado, actor, producto y fechas.
func (uc *ReturnUseCase) ListReturns(ctx context.Context, filter repository.ReturnFilter) ([]*entity.Return, error) {
	filter.Page = filter.Page.Normalize()
	return uc.returnRepo.List(ctx, filter)
}

func (uc *ReturnUseCase) logFailure(op string, err error, id, actorID string) {
	if domain.IsClientError(err) {
		return
	}
	uc.log.OpError(op, err).
		Str("id", id).
		Str("actor", actorID).
		Msg("fallo inesperado en devolución")
}

// refundFor Σ(cantidad × precio de venta del producto), redondeado a 2 decimales.
func refundFor(ctx context.Context, products repository.ProductRepository, lines []dto.ReturnLineRequest) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range lines {
		p, err := products.GetByID(ctx, l.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if p == nil {
			return decimal.Zero, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		total = total.Add(decimal.NewFromInt(int64(l.Quantity)).Mul(p.SellPrice))
	}
	return total.Round(2), nil
}
