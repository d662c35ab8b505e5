// Package apptest arma el backoffice sobre el almacén en memoria con un reloj controlable,
// para las pruebas de los casos de uso.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application"
	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/internal/infrastructure/memory"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Base instante inicial del reloj de pruebas.
var Base = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

// Clock reloj manual, seguro para goroutines.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// Now hora actual del reloj.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance adelanta el reloj d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Fixture backoffice completo con acceso directo al almacén.
type Fixture struct {
	Store    *memory.Store
	Sequence *memory.Sequence
	Clock    *Clock
	App      *application.Backoffice
}

// Settings reglas por defecto de las pruebas: IVA 18%, anulación 24h, devolución 30 días.
func Settings() application.Settings {
	return application.Settings{
		TaxRate:      decimal.RequireFromString("0.18"),
		AnnulWindow:  24 * time.Hour,
		ReturnWindow: 30 * 24 * time.Hour,
		Bands:        alerting.DefaultBands,
	}
}

// New construye el fixture con los productos indicados ya cargados.
func New(t *testing.T, products ...*entity.Product) *Fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	for _, p := range products {
		store.PutProduct(p)
	}
	seq := memory.NewSequence()
	clock := &Clock{t: Base}
	app := application.NewBackoffice(store.TxRunner(), application.Repositories{
		Products:       store.Products(),
		Movements:      store.Movements(),
		Sales:          store.Sales(),
		Returns:        store.Returns(),
		Alerts:         store.Alerts(),
		Replenishments: store.Replenishments(),
	}, seq, nil, Settings(), logger.Nop())
	app.SetClock(clock.Now)
	return &Fixture{Store: store, Sequence: seq, Clock: clock, App: app}
}

// Product prenda activa con precio de venta price.
func Product(id string, stock, minimum int, price string) *entity.Product {
	return &entity.Product{
		ID:           id,
		Code:         "COD-" + id,
		Name:         "Prenda " + id,
		BuyPrice:     decimal.Zero,
		SellPrice:    decimal.RequireFromString(price),
		Stock:        stock,
		StockMinimum: minimum,
		Active:       true,
	}
}

// Stock stock cacheado actual del producto.
func (f *Fixture) Stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.Store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

// Movements historial completo del producto en orden de inserción.
func (f *Fixture) Movements(t *testing.T, productID string) []*entity.Movement {
	t.Helper()
	movs, err := f.Store.Movements().ListAllByProduct(context.Background(), productID)
	require.NoError(t, err)
	return movs
}

// Alerts alertas del producto (leídas y no leídas).
func (f *Fixture) Alerts(t *testing.T, productID string) []*entity.Alert {
	t.Helper()
	alerts, err := f.Store.Alerts().List(context.Background(), repository.AlertFilter{
		ProductID: productID,
		Page:      repository.Page{Limit: 100},
	})
	require.NoError(t, err)
	return alerts
}

// RequireConsistent verifica que el plegado del libro coincide con el stock cacheado.
func (f *Fixture) RequireConsistent(t *testing.T, productIDs ...string) {
	t.Helper()
	for _, id := range productIDs {
		rep, err := f.App.Ledger.Reconcile(context.Background(), id)
		require.NoError(t, err)
		require.Truef(t, rep.Consistent, "producto %s: cacheado %d, libro %d", id, rep.CachedStock, rep.LedgerStock)
	}
}
