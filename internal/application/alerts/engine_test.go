package alerts_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application/alerts"
	"github.com/jhoicas/boutique-backoffice/internal/application/apptest"
	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/internal/infrastructure/memory"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Deduplica(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 2, 10, "10"))
	ctx := context.Background()

	first, err := f.App.Alerts.Evaluate(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, entity.AlertTypeLowStock, first.Type)
	assert.Equal(t, entity.UrgencyHigh, first.Urgency)
	assert.Equal(t, apptest.Base, first.CreatedAt)

	second, err := f.App.Alerts.Evaluate(ctx, "P")
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, f.Alerts(t, "P"), 1)

	// Leída la alerta, la condición persistente vuelve a alertar
	_, err = f.App.Alerts.MarkRead(ctx, first.ID, "gerente")
	require.NoError(t, err)
	third, err := f.App.Alerts.Evaluate(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, third)
	assert.Len(t, f.Alerts(t, "P"), 2)
}

func TestEvaluate_SinAlerta(t *testing.T) {
	f := apptest.New(t, apptest.Product("OK", 20, 5, "10"), apptest.Product("SINMIN", 3, 0, "10"))
	ctx := context.Background()

	a, err := f.App.Alerts.Evaluate(ctx, "OK")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = f.App.Alerts.Evaluate(ctx, "SINMIN")
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = f.App.Alerts.Evaluate(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluate_AjusteACeroEnProductoInactivo(t *testing.T) {
	inactive := apptest.Product("INA", 3, 5, "10")
	inactive.Active = false
	f := apptest.New(t, inactive)
	ctx := context.Background()

	_, err := f.App.Ledger.RegisterMovement(ctx, dto.RegisterMovementRequest{
		ProductID: "INA", Type: "ADJUSTMENT", Quantity: 0, ActorID: "bodega",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Stock(t, "INA"))

	list := f.Alerts(t, "INA")
	require.Len(t, list, 1)
	assert.Equal(t, entity.AlertTypeOutOfStock, list[0].Type)
	assert.Equal(t, entity.UrgencyCritical, list[0].Urgency)

	// El barrido sigue limitado a productos activos
	res, err := f.App.Alerts.SweepAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
}

func TestMarkRead_Idempotente(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 0, 3, "10"))
	ctx := context.Background()

	a, err := f.App.Alerts.Evaluate(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, entity.AlertTypeOutOfStock, a.Type)
	assert.Equal(t, entity.UrgencyCritical, a.Urgency)

	f.Clock.Advance(time.Minute)
	read, err := f.App.Alerts.MarkRead(ctx, a.ID, "gerente")
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)
	assert.Equal(t, apptest.Base.Add(time.Minute), *read.ReadAt)
	assert.Equal(t, "gerente", read.NotifiedActorID)

	f.Clock.Advance(time.Minute)
	again, err := f.App.Alerts.MarkRead(ctx, a.ID, "otro")
	require.NoError(t, err)
	assert.Equal(t, "gerente", again.NotifiedActorID)
	assert.Equal(t, apptest.Base.Add(time.Minute), *again.ReadAt)

	_, err = f.App.Alerts.MarkRead(ctx, "nope", "gerente")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.App.Alerts.MarkRead(ctx, a.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.App.Alerts.GetAlert(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweepAll(t *testing.T) {
	f := apptest.New(t,
		apptest.Product("A", 1, 10, "10"),
		apptest.Product("B", 0, 2, "10"),
		apptest.Product("C", 50, 10, "10"),
	)
	ctx := context.Background()

	res, err := f.App.Alerts.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Failed)

	res, err = f.App.Alerts.SweepAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Zero(t, res.Created)

	unread, err := f.App.Alerts.ListUnread(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	critical, err := f.App.Alerts.ListCritical(ctx, repository.Page{})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "B", critical[0].ProductID)

	low, err := f.App.Alerts.ListLowStockProducts(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, low, 2)
	out, err := f.App.Alerts.ListOutOfStockProducts(ctx, repository.Page{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].ID)
}

func TestSweepAll_UnoALaVez(t *testing.T) {
	store := memory.NewStore(time.Second)
	store.PutProduct(apptest.Product("A", 0, 1, "10"))
	lock := alerts.NewLocalSweepLock()
	engine := alerts.NewEngine(store.Products(), store.Alerts(), alerting.DefaultBands, lock, logger.Nop())

	release, err := lock.Acquire(context.Background())
	require.NoError(t, err)

	_, err = engine.SweepAll(context.Background())
	require.ErrorIs(t, err, domain.ErrConflict)

	release()
	res, err := engine.SweepAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

// restockAfterFirstPage repone el primer producto en cuanto se entrega la primera página,
// como una recepción que se confirma durante el barrido.
type restockAfterFirstPage struct {
	*memory.ProductRepository
	store *memory.Store
	pages int
}

func (r *restockAfterFirstPage) ListLowStockAfter(ctx context.Context, after repository.ProductCursor, limit int) ([]*entity.Product, error) {
	out, err := r.ProductRepository.ListLowStockAfter(ctx, after, limit)
	r.pages++
	if r.pages == 1 {
		r.store.PutProduct(apptest.Product("A", 50, 5, "10"))
	}
	return out, err
}

func TestSweepAll_ReposicionConcurrenteNoSaltaProductos(t *testing.T) {
	store := memory.NewStore(time.Second)
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		store.PutProduct(apptest.Product(id, 1, 5, "10"))
	}
	products := &restockAfterFirstPage{ProductRepository: store.Products(), store: store}
	engine := alerts.NewEngine(products, store.Alerts(), alerting.DefaultBands, nil, logger.Nop())
	engine.SetSweepPageSize(2)

	res, err := engine.SweepAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 5, res.Created)
	assert.Equal(t, 3, products.pages)

	list, err := store.Alerts().List(context.Background(), repository.AlertFilter{ProductID: "C", Page: repository.Page{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAlertas_MovimientoManual(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 8, 4, "10"))
	ctx := context.Background()

	_, err := f.App.Ledger.RegisterMovement(ctx, dto.RegisterMovementRequest{
		ProductID: "P", Type: "OUT", Quantity: 6, ActorID: "bodega",
	})
	require.NoError(t, err)

	list, err := f.App.Alerts.ListAlerts(ctx, repository.AlertFilter{ProductID: "P", Type: entity.AlertTypeLowStock})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.UrgencyMedium, list[0].Urgency)
	assert.Equal(t, 2, list[0].StockAtAlert)
}

// failingMarkRead alerta legible pero cuya marca de lectura falla (ej: conexión caída).
type failingMarkRead struct {
	*memory.AlertRepository
}

func (failingMarkRead) MarkRead(context.Context, string, string, time.Time) (bool, error) {
	return false, errors.New("conexión cerrada")
}

func TestMarkRead_ErrorInesperadoSeRegistra(t *testing.T) {
	store := memory.NewStore(time.Second)
	store.PutProduct(apptest.Product("P", 0, 1, "10"))
	ctx := context.Background()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Out: &buf})
	engine := alerts.NewEngine(store.Products(), failingMarkRead{store.Alerts()}, alerting.DefaultBands, nil, log)

	alert, err := engine.Evaluate(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, alert)
	buf.Reset()

	_, err = engine.MarkRead(ctx, alert.ID, "gerente")
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"op":"mark_read"`)
	assert.Contains(t, buf.String(), `"alert_id":"`+alert.ID+`"`)
	assert.Contains(t, buf.String(), `"actor":"gerente"`)

	// Errores del cliente no se registran como fallos
	buf.Reset()
	_, err = engine.MarkRead(ctx, "nope", "gerente")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotContains(t, buf.String(), "mark_read")
}
