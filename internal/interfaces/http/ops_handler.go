package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/boutique-backoffice/internal/application/alerts"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
)

// AlertSweeper dispara el barrido completo de alertas (alerts.Engine).
type AlertSweeper interface {
	SweepAll(ctx context.Context) (*alerts.SweepResult, error)
}

// StockReconciler reconstruye el stock de un producto desde el libro (inventory.Ledger).
type StockReconciler interface {
	Reconcile(ctx context.Context, productID string) (*inventory.ReconciliationReport, error)
}

// HealthCheck verifica dependencias (ping a la BD). nil = siempre sano.
type HealthCheck func(ctx context.Context) error

// OpsHandler superficie de operaciones: salud, barrido de alertas y reconciliación.
type OpsHandler struct {
	sweeper    AlertSweeper
	reconciler StockReconciler
	health     HealthCheck
	service    string
	log        *logger.Logger
}

// NewOpsHandler construye el handler.
func NewOpsHandler(sweeper AlertSweeper, reconciler StockReconciler, health HealthCheck, service string, log *logger.Logger) *OpsHandler {
	return &OpsHandler{
		sweeper:    sweeper,
		reconciler: reconciler,
		health:     health,
		service:    service,
		log:        log.Component("http.ops"),
	}
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *OpsHandler) Health(c *fiber.Ctx) error {
	if h.health != nil {
		if err := h.health(c.UserContext()); err != nil {
			h.log.Warn().Err(err).Msg("health check fallido")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": h.service})
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "service": h.service})
}

// SweepAlerts godoc
// @Summary      Barrido completo de alertas de stock
// @Tags         ops
// @Produce      json
// @Success      200  {object}  alerts.SweepResult
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /ops/alerts/sweep [post]
func (h *OpsHandler) SweepAlerts(c *fiber.Ctx) error {
	res, err := h.sweeper.SweepAll(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"scanned": res.Scanned,
		"created": res.Created,
		"failed":  res.Failed,
	})
}

// Reconcile godoc
// @Summary      Reconciliar stock cacheado contra el libro de movimientos
// @Tags         ops
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  inventory.ReconciliationReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /ops/products/{id}/reconcile [get]
func (h *OpsHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.reconciler.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":   report.ProductID,
		"cached_stock": report.CachedStock,
		"ledger_stock": report.LedgerStock,
		"movements":    report.Movements,
		"broken_at":    report.BrokenAt,
		"consistent":   report.Consistent,
	})
}
