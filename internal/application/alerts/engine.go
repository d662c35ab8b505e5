package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
)

var _ inventory.AlertEvaluator = (*Engine)(nil)

// sweepPageSize tamaño de página al recorrer productos en el barrido completo.
const sweepPageSize = 100

// Engine genera alertas de stock deduplicadas y clasificadas por urgencia.
// Solo lee stock; nunca lo modifica.
type Engine struct {
	productRepo repository.ProductRepository
	alertRepo   repository.AlertRepository
	bands       alerting.Bands
	sweepLock   SweepLocker
	pageSize    int
	log         *logger.Logger
	now         func() time.Time
}

// NewEngine construye el motor de alertas. sweepLock nil = lock en proceso.
func NewEngine(
	productRepo repository.ProductRepository,
	alertRepo repository.AlertRepository,
	bands alerting.Bands,
	sweepLock SweepLocker,
	log *logger.Logger,
) *Engine {
	if sweepLock == nil {
		sweepLock = NewLocalSweepLock()
	}
	return &Engine{
		productRepo: productRepo,
		alertRepo:   alertRepo,
		bands:       bands,
		sweepLock:   sweepLock,
		pageSize:    sweepPageSize,
		log:         log.Component("alerts"),
		now:         time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Evaluate clasifica el stock actual del producto y crea una alerta si corresponde y no existe
// ya una no leída del mismo {producto, tipo}. Devuelve nil si no se creó ninguna.
func (e *Engine) Evaluate(ctx context.Context, productID string) (*entity.Alert, error) {
	product, err := e.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return e.evaluateProduct(ctx, product)
}

// evaluateProduct no filtra por producto activo: el libro acepta entradas y ajustes sobre
// productos inactivos y un agotamiento por ajuste también se alerta. El barrido ya lista solo activos.
func (e *Engine) evaluateProduct(ctx context.Context, product *entity.Product) (*entity.Alert, error) {
	class, ok := alerting.Classify(product.Stock, product.StockMinimum, e.bands)
	if !ok {
		return nil, nil
	}
	alert := &entity.Alert{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		Type:         class.Type,
		Urgency:      class.Urgency,
		StockAtAlert: product.Stock,
		CreatedAt:    e.now(),
	}
	created, err := e.alertRepo.CreateIfNoUnread(ctx, alert)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	e.log.Info().
		Str("alert_id", alert.ID).
		Str("product_id", product.ID).
		Str("product_code", product.Code).
		Str("type", string(alert.Type)).
		Str("urgency", string(alert.Urgency)).
		Int("stock", product.Stock).
		Msg("alerta de stock generada")
	return alert, nil
}

// MarkRead marca la alerta como leída por actorID. Marcar una alerta ya leída no es error.
func (e *Engine) MarkRead(ctx context.Context, alertID, actorID string) (*entity.Alert, error) {
	if alertID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: alerta y actor son obligatorios", domain.ErrInvalidInput)
	}
	alert, err := e.markRead(ctx, alertID, actorID)
	if err != nil && !domain.IsClientError(err) {
		e.log.OpError("mark_read", err).
			Str("alert_id", alertID).
			Str("actor", actorID).
			Msg("fallo inesperado al marcar alerta")
	}
	return alert, err
}

func (e *Engine) markRead(ctx context.Context, alertID, actorID string) (*entity.Alert, error) {
	alert, err := e.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}
	if alert.Read {
		return alert, nil
	}
	if _, err := e.alertRepo.MarkRead(ctx, alertID, actorID, e.now()); err != nil {
		return nil, err
	}
	return e.alertRepo.GetByID(ctx, alertID)
}

// SweepResult resumen de un barrido completo.
type SweepResult struct {
	Scanned int
	Created int
	Failed  int
}

// SweepAll recorre los productos activos con stock <= stock mínimo e invoca la evaluación por
// producto respetando la deduplicación. Solo un barrido puede ejecutarse a la vez (ErrConflict).
func (e *Engine) SweepAll(ctx context.Context) (*SweepResult, error) {
	release, err := e.sweepLock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Paginación por clave: una recepción concurrente que saca un producto de la lista
	// no desplaza a los siguientes.
	res := &SweepResult{}
	var cursor repository.ProductCursor
	for {
		products, err := e.productRepo.ListLowStockAfter(ctx, cursor, e.pageSize)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			cursor = repository.ProductCursor{Code: p.Code, ID: p.ID}
			res.Scanned++
			alert, err := e.evaluateProduct(ctx, p)
			if err != nil {
				res.Failed++
				e.log.Warn().Err(err).Str("product_id", p.ID).Msg("barrido: evaluación fallida")
				continue
			}
			if alert != nil {
				res.Created++
			}
		}
		if len(products) < e.pageSize {
			break
		}
	}
	e.log.Info().
		Int("scanned", res.Scanned).
		Int("created", res.Created).
		Int("failed", res.Failed).
		Msg("barrido de alertas finalizado")
	return res, nil
}

// GetAlert obtiene una alerta por ID.
func (e *Engine) GetAlert(ctx context.Context, id string) (*entity.Alert, error) {
	alert, err := e.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrNotFound
	}
	return alert, nil
}

// ListAlerts búsqueda paginada de alertas.
func (e *Engine) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]*entity.Alert, error) {
	filter.Page = filter.Page.Normalize()
	return e.alertRepo.List(ctx, filter)
}

// ListUnread alertas no leídas.
func (e *Engine) ListUnread(ctx context.Context, page repository.Page) ([]*entity.Alert, error) {
	unread := true
	return e.ListAlerts(ctx, repository.AlertFilter{Page: page, Unread: &unread})
}

// ListCritical alertas críticas no leídas.
func (e *Engine) ListCritical(ctx context.Context, page repository.Page) ([]*entity.Alert, error) {
	unread := true
	return e.ListAlerts(ctx, repository.AlertFilter{Page: page, Unread: &unread, Urgency: entity.UrgencyCritical})
}

// ListLowStockProducts productos activos con stock <= stock mínimo.
func (e *Engine) ListLowStockProducts(ctx context.Context, page repository.Page) ([]*entity.Product, error) {
	return e.productRepo.ListLowStock(ctx, page.Normalize())
}

// ListOutOfStockProducts productos activos agotados.
func (e *Engine) ListOutOfStockProducts(ctx context.Context, page repository.Page) ([]*entity.Product, error) {
	return e.productRepo.ListOutOfStock(ctx, page.Normalize())
}
