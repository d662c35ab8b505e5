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
)

// Ledger es el único punto de mutación del stock: agrega un movimiento inmutable y actualiza
// el stock cacheado del producto en la misma transacción, con bloqueo de fila (SELECT FOR UPDATE).
type Ledger struct {
	txRunner TxRunner
	movRepo  repository.MovementRepository
	alerts   AlertEvaluator
	log      *logger.Logger
	now      func() time.Time
}

// NewLedger construye el libro de stock. alerts puede ser nil (sin evaluación posterior).
func NewLedger(
	txRunner TxRunner,
	movRepo repository.MovementRepository,
	alerts AlertEvaluator,
	log *logger.Logger,
) *Ledger {
	return &Ledger{
		txRunner: txRunner,
		movRepo:  movRepo,
		alerts:   alerts,
		log:      log.Component("ledger"),
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Now hora actual según el reloj del libro.
func (l *Ledger) Now() time.Time { return l.now() }

// MovementInput entrada de ApplyMovement. Para ADJUSTMENT, Quantity es el stock objetivo.
type MovementInput struct {
	ProductID   string
	Type        entity.MovementType
	Quantity    int
	ActorID     string
	SaleID      string
	ReferenceID string
	Note        string
	At          time.Time // cero = reloj del libro
}

// ApplyMovement aplica un movimiento usando los repositorios del caller (misma transacción).
// Bloquea la fila del producto hasta el fin de la tx: es el punto de serialización por producto.
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
func (l *Ledger) ApplyMovement(ctx context.Context, repos TxRepos, in MovementInput) (*entity.Movement, error) {
	if in.ProductID == "" || in.ActorID == "" {
		return nil, fmt.Errorf("%w: producto y actor son obligatorios", domain.ErrInvalidInput)
	}
	if !domaininv.ValidMovementType(in.Type) {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}

	// Bloquea la fila del producto (SELECT FOR UPDATE)
	product, err := repos.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, in.ProductID)
	}
	if in.Type == entity.MovementTypeOUT && !product.Active {
		return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrBusinessRule, product.Code)
	}

	after, recorded, err := domaininv.ApplyMovementType(in.Type, product.Stock, in.Quantity)
	if err != nil {
		return nil, err
	}

	at := in.At
	if at.IsZero() {
		at = l.now()
	}
	if err := repos.Products.UpdateStock(ctx, product.ID, after); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		Type:        in.Type,
		Quantity:    recorded,
		StockBefore: product.Stock,
		StockAfter:  after,
		CreatedAt:   at,
		ActorID:     in.ActorID,
		SaleID:      in.SaleID,
		ReferenceID: in.ReferenceID,
		Note:        in.Note,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// RegisterMovement registra un movimiento manual (entrada directa, salida o ajuste de conteo)
// en su propia transacción y evalúa alertas tras el commit.
func (l *Ledger) RegisterMovement(ctx context.Context, in dto.RegisterMovementRequest) (*entity.Movement, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		mov, err = l.ApplyMovement(ctx, repos, MovementInput{
			ProductID: in.ProductID,
			Type:      entity.MovementType(in.Type),
			Quantity:  in.Quantity,
			ActorID:   in.ActorID,
			Note:      in.Note,
		})
		return err
	})
	if err != nil {
		if !domain.IsClientError(err) {
			l.log.OpError("register_movement", err).
				Str("product_id", in.ProductID).
				Str("type", in.Type).
				Str("actor", in.ActorID).
				Msg("fallo inesperado registrando movimiento")
		}
		return nil, err
	}

	l.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("type", string(mov.Type)).
		Int("stock_before", mov.StockBefore).
		Int("stock_after", mov.StockAfter).
		Msg("movimiento registrado")

	EvaluateAlerts(ctx, l.alerts, l.log, mov.ProductID)
	return mov, nil
}

// EvaluateAlerts evalúa alertas de los productos indicados. Las alertas son informativas:
// un fallo se registra y no afecta a la operación ya confirmada.
func EvaluateAlerts(ctx context.Context, alerts AlertEvaluator, log *logger.Logger, productIDs ...string) {
	if alerts == nil {
		return
	}
	for _, id := range productIDs {
		if _, err := alerts.Evaluate(ctx, id); err != nil {
			log.Warn().Err(err).Str("product_id", id).Msg("evaluación de alertas fallida")
		}
	}
}

// GetMovement obtiene un movimiento por ID.
func (l *Ledger) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	mov, err := l.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// ListMovements búsqueda paginada del libro (por producto, venta, actor, tipo y fechas).
func (l *Ledger) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	filter.Page = filter.Page.Normalize()
	return l.movRepo.List(ctx, filter)
}

// ReconciliationReport compara el stock cacheado con el plegado del libro de movimientos.
type ReconciliationReport struct {
	ProductID   string
	CachedStock int
	LedgerStock int
	Movements   int
	BrokenAt    string // primer movimiento con cadena before/after inconsistente
	Consistent  bool
}

// Reconcile reconstruye el stock de un producto desde su historial completo de movimientos.
// Sin movimientos, el stock cacheado es el stock inicial y se considera consistente.
// Producto e historial se leen en la misma tx con la fila bloqueada: ningún movimiento puede
// confirmarse entre ambas lecturas.
func (l *Ledger) Reconcile(ctx context.Context, productID string) (*ReconciliationReport, error) {
	var (
		product *entity.Product
		movs    []*entity.Movement
	)
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		product, err = repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		movs, err = repos.Movements.ListAllByProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	report := &ReconciliationReport{
		ProductID:   productID,
		CachedStock: product.Stock,
		LedgerStock: product.Stock,
		Movements:   len(movs),
		Consistent:  true,
	}
	if len(movs) == 0 {
		return report, nil
	}
	res := domaininv.Replay(movs)
	report.LedgerStock = res.FinalStock
	report.BrokenAt = res.BrokenAt
	report.Consistent = res.Consistent() && res.FinalStock == product.Stock
	if !report.Consistent {
		l.log.Warn().
			Str("product_id", productID).
			Int("cached", report.CachedStock).
			Int("ledger", report.LedgerStock).
			Str("broken_at", report.BrokenAt).
			Msg("stock cacheado diverge del libro de movimientos")
	}
	return report, nil
}
