// Package application agrupa los casos de uso del backoffice en una sola fachada para los
// adaptadores de entrada (HTTP de operaciones, jobs, clientes embebidos).
package application

import (
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application/alerts"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/application/returns"
	"github.com/jhoicas/boutique-backoffice/internal/application/sales"
	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
	"github.com/shopspring/decimal"
)

// Repositories puertos de persistencia fuera de transacción.
type Repositories struct {
	Products       repository.ProductRepository
	Movements      repository.MovementRepository
	Sales          repository.SaleRepository
	Returns        repository.ReturnRepository
	Alerts         repository.AlertRepository
	Replenishments repository.ReplenishmentRepository
}

// Settings reglas configurables del negocio.
type Settings struct {
	TaxRate      decimal.Decimal
	AnnulWindow  time.Duration
	ReturnWindow time.Duration
	Bands        alerting.Bands
}

// Backoffice casos de uso cableados sobre un mismo TxRunner y motor de alertas.
type Backoffice struct {
	Alerts        *alerts.Engine
	Ledger        *inventory.Ledger
	Replenishment *inventory.ReplenishmentUseCase
	RegisterSale  *sales.RegisterSaleUseCase
	AnnulSale     *sales.AnnulSaleUseCase
	Returns       *returns.ReturnUseCase
}

// NewBackoffice construye todos los casos de uso. sweepLock nil = lock en proceso.
func NewBackoffice(
	txRunner inventory.TxRunner,
	repos Repositories,
	sequence repository.SequenceGenerator,
	sweepLock alerts.SweepLocker,
	settings Settings,
	log *logger.Logger,
) *Backoffice {
	engine := alerts.NewEngine(repos.Products, repos.Alerts, settings.Bands, sweepLock, log)
	ledger := inventory.NewLedger(txRunner, repos.Movements, engine, log)
	return &Backoffice{
		Alerts:        engine,
		Ledger:        ledger,
		Replenishment: inventory.NewReplenishmentUseCase(txRunner, ledger, repos.Products, repos.Replenishments, engine, log),
		RegisterSale:  sales.NewRegisterSaleUseCase(txRunner, ledger, repos.Products, repos.Sales, sequence, engine, settings.TaxRate, log),
		AnnulSale:     sales.NewAnnulSaleUseCase(txRunner, ledger, engine, settings.AnnulWindow, log),
		Returns:       returns.NewReturnUseCase(txRunner, ledger, repos.Returns, engine, settings.ReturnWindow, log),
	}
}

// SetClock fija el reloj de todos los casos de uso (tests).
func (b *Backoffice) SetClock(now func() time.Time) {
	b.Ledger.SetClock(now)
	b.Alerts.SetClock(now)
}
