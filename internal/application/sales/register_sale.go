package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"

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

const (
	// saleCodeSequence nombre de la secuencia atómica de códigos de venta.
	saleCodeSequence = "sale_code"
	// maxCodeAttempts reintentos ante colisión del código único.
	maxCodeAttempts = 3
)

// FormatSaleCode formatea el valor de secuencia como código de venta (V-00000042).
func FormatSaleCode(n int64) string {
	return fmt.Sprintf("V-%08d", n)
}

// RegisterSaleUseCase registra ventas y descuenta el inventario en una sola transacción.
type RegisterSaleUseCase struct {
	txRunner    inventory.TxRunner
	ledger      *inventory.Ledger
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	sequence    repository.SequenceGenerator
	alerts      inventory.AlertEvaluator
	taxRate     decimal.Decimal
	log         *logger.Logger
}

// NewRegisterSaleUseCase construye el caso de uso. taxRate es la tasa única configurada (ej. 0.18).
func NewRegisterSaleUseCase(
	txRunner inventory.TxRunner,
	ledger *inventory.Ledger,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	sequence repository.SequenceGenerator,
	alerts inventory.AlertEvaluator,
	taxRate decimal.Decimal,
	log *logger.Logger,
) *RegisterSaleUseCase {
	return &RegisterSaleUseCase{
		txRunner:    txRunner,
		ledger:      ledger,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		sequence:    sequence,
		alerts:      alerts,
		taxRate:     taxRate,
		log:         log.Component("sales"),
	}
}

// RegisterSale valida, verifica stock de todas las líneas, calcula totales, persiste la venta en
// estado PAID y registra una salida OUT por línea. Todo o nada: cualquier fallo revierte la venta,
// sus líneas y los movimientos.
func (uc *RegisterSaleUseCase) RegisterSale(ctx context.Context, in dto.RegisterSaleRequest) (*entity.Sale, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}

	// 1) Productos existentes y activos; stock suficiente para todas las líneas antes de mutar nada
	requested := make(map[string]int, len(in.Lines))
	for _, l := range in.Lines {
		requested[l.ProductID] += l.Quantity
	}
	for productID, qty := range requested {
		product, err := uc.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrBusinessRule, product.Code)
		}
		if product.Stock < qty {
			return nil, fmt.Errorf("%w: producto %s disponible %d, solicitado %d",
				domain.ErrInsufficientStock, product.Code, product.Stock, qty)
		}
	}

	// 2) Totales
	priced := make([]salesrules.PricedLine, len(in.Lines))
	for i, l := range in.Lines {
		priced[i] = salesrules.PricedLine{Quantity: l.Quantity, UnitPrice: l.UnitPrice, Discount: l.Discount}
	}
	totals := salesrules.ComputeTotals(priced, uc.taxRate)

	// 3) Persistencia + salidas; ante colisión de código se reintenta con el siguiente valor
	var sale *entity.Sale
	var err error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		sale, err = uc.persist(ctx, in, priced, totals)
		if err == nil || !errors.Is(err, domain.ErrDuplicate) {
			break
		}
		uc.log.Warn().Int("attempt", attempt).Msg("colisión de código de venta, reintentando")
	}
	if err != nil {
		if !domain.IsClientError(err) {
			uc.log.OpError("register_sale", err).
				Str("client_id", in.ClientID).
				Str("actor", in.SellerID).
				Int("lines", len(in.Lines)).
				Msg("fallo inesperado registrando venta")
		}
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("code", sale.Code).
		Str("total", sale.Total.StringFixed(2)).
		Str("actor", sale.SellerID).
		Msg("venta registrada")

	// 4) Alertas tras el commit (sin bloqueo; informativas)
	inventory.EvaluateAlerts(ctx, uc.alerts, uc.log, sortedKeys(requested)...)
	return sale, nil
}

func (uc *RegisterSaleUseCase) persist(
	ctx context.Context,
	in dto.RegisterSaleRequest,
	priced []salesrules.PricedLine,
	totals salesrules.Totals,
) (*entity.Sale, error) {
	n, err := uc.sequence.Next(ctx, saleCodeSequence)
	if err != nil {
		return nil, fmt.Errorf("generar código de venta: %w", err)
	}
	now := uc.ledger.Now()
	sale := &entity.Sale{
		ID:              uuid.New().String(),
		Code:            FormatSaleCode(n),
		ClientID:        in.ClientID,
		SellerID:        in.SellerID,
		PaymentMethodID: in.PaymentMethodID,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Status:          entity.SaleStatusPaid,
		CreatedAt:       now,
		Lines:           make([]entity.SaleLine, 0, len(in.Lines)),
	}
	for i, l := range in.Lines {
		sale.Lines = append(sale.Lines, entity.SaleLine{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			Subtotal:  salesrules.LineSubtotal(priced[i]),
		})
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		// Orden por producto: los bloqueos de fila se toman siempre en el mismo orden.
		for _, line := range linesByProduct(sale.Lines) {
			if _, err := uc.ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
				ProductID: line.ProductID,
				Type:      entity.MovementTypeOUT,
				Quantity:  line.Quantity,
				ActorID:   sale.SellerID,
				SaleID:    sale.ID,
				Note:      "VENTA " + sale.Code,
				At:        now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// GetSale obtiene una venta con sus líneas.
func (uc *RegisterSaleUseCase) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// ListSales búsqueda paginada por fechas, estado, cliente, vendedor o producto.
func (uc *RegisterSaleUseCase) ListSales(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	filter.Page = filter.Page.Normalize()
	return uc.saleRepo.List(ctx, filter)
}

// SyncCodeSequence sube la secuencia de códigos al mayor código ya persistido. Se ejecuta al
// arrancar: tras alternar entre Redis y PostgreSQL el generador activo puede estar rezagado.
// Devuelve el último número persistido.
func (uc *RegisterSaleUseCase) SyncCodeSequence(ctx context.Context) (int64, error) {
	last, err := uc.saleRepo.LastCodeNumber(ctx)
	if err != nil {
		uc.log.OpError("sync_sale_code", err).Msg("leer último código de venta")
		return 0, err
	}
	seeder, ok := uc.sequence.(repository.SequenceSeeder)
	if !ok {
		return last, nil
	}
	if err := seeder.Seed(ctx, saleCodeSequence, last); err != nil {
		uc.log.OpError("sync_sale_code", err).Int64("last", last).Msg("sincronizar secuencia de códigos")
		return 0, err
	}
	return last, nil
}

// linesByProduct copia de las líneas ordenada por producto (estable).
func linesByProduct(lines []entity.SaleLine) []entity.SaleLine {
	out := make([]entity.SaleLine, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// productIDs productos distintos de las líneas, ordenados.
func productIDs(lines []entity.SaleLine) []string {
	qty := make(map[string]int, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	return sortedKeys(qty)
}
