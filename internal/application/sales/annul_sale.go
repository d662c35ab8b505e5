package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	salesrules "github.com/jhoicas/boutique-backoffice/internal/domain/sales"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
)

// AnnulSaleUseCase anulación de ventas dentro de la ventana configurada (24h por defecto).
type AnnulSaleUseCase struct {
	txRunner inventory.TxRunner
	ledger   *inventory.Ledger
	alerts   inventory.AlertEvaluator
	window   time.Duration
	log      *logger.Logger
}

// NewAnnulSaleUseCase construye el caso de uso.
func NewAnnulSaleUseCase(
	txRunner inventory.TxRunner,
	ledger *inventory.Ledger,
	alerts inventory.AlertEvaluator,
	window time.Duration,
	log *logger.Logger,
) *AnnulSaleUseCase {
	return &AnnulSaleUseCase{
		txRunner: txRunner,
		ledger:   ledger,
		alerts:   alerts,
		window:   window,
		log:      log.Component("sales"),
	}
}

// AnnulSale PAID -> ANNULLED. Restaura el stock exacto de cada línea con una entrada IN
// compensatoria y agrega el motivo a la nota de auditoría.
func (uc *AnnulSaleUseCase) AnnulSale(ctx context.Context, in dto.AnnulSaleRequest) (*entity.Sale, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "sin motivo"
	}

	now := uc.ledger.Now()
	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		var err error
		// 1) Bloquea la cabecera: anulaciones y devoluciones concurrentes se serializan
		sale, err = repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, in.SaleID)
		}
		if !salesrules.CanTransitionSale(sale.Status, entity.SaleStatusAnnulled) {
			return fmt.Errorf("%w: venta %s en estado %s", domain.ErrBusinessRule, sale.Code, sale.Status)
		}
		if !salesrules.WithinWindow(sale.CreatedAt, now, uc.window) {
			return fmt.Errorf("%w: venta %s fuera de la ventana de anulación de %s",
				domain.ErrBusinessRule, sale.Code, uc.window)
		}

		// 2) Con devoluciones vigentes la anulación duplicaría la reposición de stock
		returned, err := repos.Returns.ReturnedQtyBySale(ctx, sale.ID)
		if err != nil {
			return err
		}
		for _, qty := range returned {
			if qty > 0 {
				return fmt.Errorf("%w: venta %s tiene devoluciones registradas", domain.ErrBusinessRule, sale.Code)
			}
		}

		// 3) Entrada compensatoria por línea
		for _, line := range linesByProduct(sale.Lines) {
			if _, err := uc.ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
				ProductID: line.ProductID,
				Type:      entity.MovementTypeIN,
				Quantity:  line.Quantity,
				ActorID:   in.ActorID,
				SaleID:    sale.ID,
				Note:      "ANULACION " + sale.Code,
				At:        now,
			}); err != nil {
				return err
			}
		}

		// 4) Estado y bitácora
		sale.Note = appendAuditNote(sale.Note, now, in.ActorID, reason)
		sale.Status = entity.SaleStatusAnnulled
		sale.AnnulledAt = &now
		return repos.Sales.MarkAnnulled(ctx, sale.ID, sale.Note, now)
	})
	if err != nil {
		if !domain.IsClientError(err) {
			uc.log.OpError("annul_sale", err).
				Str("sale_id", in.SaleID).
				Str("actor", in.ActorID).
				Msg("fallo inesperado anulando venta")
		}
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("code", sale.Code).
		Str("actor", in.ActorID).
		Str("reason", reason).
		Msg("venta anulada")

	inventory.EvaluateAlerts(ctx, uc.alerts, uc.log, productIDs(sale.Lines)...)
	return sale, nil
}

// appendAuditNote agrega una entrada "[fecha] ANULADA por actor: motivo" a la nota existente.
func appendAuditNote(note string, at time.Time, actorID, reason string) string {
	entry := fmt.Sprintf("[%s] ANULADA por %s: %s", at.UTC().Format(time.RFC3339), actorID, reason)
	if note == "" {
		return entry
	}
	return note + "\n" + entry
}
