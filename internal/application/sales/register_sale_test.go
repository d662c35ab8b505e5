package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application/apptest"
	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/application/sales"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleRequest(lines ...dto.SaleLineRequest) dto.RegisterSaleRequest {
	return dto.RegisterSaleRequest{
		ClientID:        "cliente-1",
		SellerID:        "vendedor-1",
		PaymentMethodID: "efectivo",
		Lines:           lines,
	}
}

func line(productID string, qty int, price string) dto.SaleLineRequest {
	return dto.SaleLineRequest{ProductID: productID, Quantity: qty, UnitPrice: dec(price)}
}

func TestFormatSaleCode(t *testing.T) {
	assert.Equal(t, "V-00000001", sales.FormatSaleCode(1))
	assert.Equal(t, "V-00012345", sales.FormatSaleCode(12345))
}

func TestRegisterSale_StockBajoGeneraAlertaLow(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 5, "20"))
	ctx := context.Background()

	sale, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 7, "20")))
	require.NoError(t, err)

	assert.Equal(t, "V-00000001", sale.Code)
	assert.Equal(t, entity.SaleStatusPaid, sale.Status)
	assert.Equal(t, 3, f.Stock(t, "P"))

	movs := f.Movements(t, "P")
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.Equal(t, 7, movs[0].Quantity)
	assert.Equal(t, 10, movs[0].StockBefore)
	assert.Equal(t, 3, movs[0].StockAfter)
	assert.Equal(t, sale.ID, movs[0].SaleID)
	assert.Equal(t, "vendedor-1", movs[0].ActorID)

	alerts := f.Alerts(t, "P")
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertTypeLowStock, alerts[0].Type)
	assert.Equal(t, entity.UrgencyLow, alerts[0].Urgency)
	assert.Equal(t, 3, alerts[0].StockAtAlert)
}

func TestRegisterSale_AgotadoSinDuplicarLowStock(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 5, "20"))
	ctx := context.Background()

	_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 7, "20")))
	require.NoError(t, err)
	_, err = f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 3, "20")))
	require.NoError(t, err)

	assert.Equal(t, 0, f.Stock(t, "P"))

	alerts := f.Alerts(t, "P")
	require.Len(t, alerts, 2)
	byType := map[entity.AlertType]*entity.Alert{}
	for _, a := range alerts {
		byType[a.Type] = a
	}
	require.Contains(t, byType, entity.AlertTypeOutOfStock)
	require.Contains(t, byType, entity.AlertTypeLowStock)
	assert.Equal(t, entity.UrgencyCritical, byType[entity.AlertTypeOutOfStock].Urgency)

	critical, err := f.App.Alerts.ListCritical(ctx, repository.Page{})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "P", critical[0].ProductID)
	f.RequireConsistent(t, "P")
}

func TestRegisterSale_TotalesConIVAYAnulacion(t *testing.T) {
	f := apptest.New(t,
		apptest.Product("P1", 10, 2, "10"),
		apptest.Product("P2", 10, 2, "5"),
	)
	ctx := context.Background()

	sale, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P1", 2, "10"), line("P2", 1, "5")))
	require.NoError(t, err)
	assert.True(t, sale.Subtotal.Equal(dec("25.00")), sale.Subtotal.String())
	assert.True(t, sale.Tax.Equal(dec("4.50")), sale.Tax.String())
	assert.True(t, sale.Total.Equal(dec("29.50")), sale.Total.String())
	require.Len(t, sale.Lines, 2)
	assert.True(t, sale.Lines[0].Subtotal.Equal(dec("20")))
	assert.Equal(t, 8, f.Stock(t, "P1"))
	assert.Equal(t, 9, f.Stock(t, "P2"))

	f.Clock.Advance(time.Hour)
	annulled, err := f.App.AnnulSale.AnnulSale(ctx, dto.AnnulSaleRequest{
		SaleID:  sale.ID,
		ActorID: "supervisor-1",
		Reason:  "cliente desistió",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAnnulled, annulled.Status)
	require.NotNil(t, annulled.AnnulledAt)
	assert.Contains(t, annulled.Note, "cliente desistió")
	assert.Contains(t, annulled.Note, "supervisor-1")

	assert.Equal(t, 10, f.Stock(t, "P1"))
	assert.Equal(t, 10, f.Stock(t, "P2"))

	movs := f.Movements(t, "P1")
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeIN, movs[1].Type)
	assert.Equal(t, 2, movs[1].Quantity)
	assert.Equal(t, sale.ID, movs[1].SaleID)

	stored, err := f.App.RegisterSale.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAnnulled, stored.Status)
	f.RequireConsistent(t, "P1", "P2")
}

func TestRegisterSale_ConcurrentesSobreUltimaUnidad(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 1, 0, "30"))
	ctx := context.Background()

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "30")))
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, f.Stock(t, "P"))
	assert.Len(t, f.Movements(t, "P"), 1)

	list, err := f.App.RegisterSale.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	f.RequireConsistent(t, "P")
}

func TestRegisterSale_StockInsuficienteNoMutaNada(t *testing.T) {
	f := apptest.New(t,
		apptest.Product("P1", 5, 1, "10"),
		apptest.Product("P2", 1, 1, "10"),
	)
	ctx := context.Background()

	_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P1", 2, "10"), line("P2", 3, "10")))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.Stock(t, "P1"))
	assert.Equal(t, 1, f.Stock(t, "P2"))
	assert.Empty(t, f.Movements(t, "P1"))
	assert.Empty(t, f.Movements(t, "P2"))
	list, err := f.App.RegisterSale.ListSales(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterSale_LineasRepetidasSumanCantidad(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 3, 0, "10"))

	_, err := f.App.RegisterSale.RegisterSale(context.Background(), saleRequest(line("P", 2, "10"), line("P", 2, "10")))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 3, f.Stock(t, "P"))
}

func TestRegisterSale_ReintentaAnteColisionDeCodigo(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 0, "10"))
	ctx := context.Background()

	first, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.NoError(t, err)
	require.Equal(t, "V-00000001", first.Code)

	// La secuencia retrocede: el primer código generado ya existe
	f.Sequence.Set("sale_code", 0)
	second, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "V-00000002", second.Code)
	assert.Equal(t, 8, f.Stock(t, "P"))
}

func TestRegisterSale_AgotaReintentosDeCodigo(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 0, "10"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
		require.NoError(t, err)
	}
	f.Sequence.Set("sale_code", 0)

	_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 7, f.Stock(t, "P"))
	assert.Len(t, f.Movements(t, "P"), 3)
}

func TestSyncCodeSequence_GeneradorRezagado(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 0, "10"))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
		require.NoError(t, err)
	}
	// El generador activo no conoce los códigos emitidos por el otro (ej: Redis -> PostgreSQL)
	f.Sequence.Set("sale_code", 0)

	last, err := f.App.RegisterSale.SyncCodeSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)

	sale, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "V-00000006", sale.Code)
}

func TestSyncCodeSequence_NoRetrocede(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 10, 0, "10"))
	ctx := context.Background()

	_, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.NoError(t, err)
	f.Sequence.Set("sale_code", 40)

	last, err := f.App.RegisterSale.SyncCodeSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)

	sale, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P", 1, "10")))
	require.NoError(t, err)
	assert.Equal(t, "V-00000041", sale.Code)
}

func TestRegisterSale_Validaciones(t *testing.T) {
	inactive := apptest.Product("INA", 5, 0, "10")
	inactive.Active = false
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"), inactive)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.RegisterSaleRequest
		wantErr error
	}{
		{"sin líneas", saleRequest(), domain.ErrInvalidInput},
		{"cantidad cero", saleRequest(line("P", 0, "10")), domain.ErrInvalidInput},
		{"precio cero", saleRequest(line("P", 1, "0")), domain.ErrInvalidInput},
		{"sin vendedor", dto.RegisterSaleRequest{ClientID: "c", PaymentMethodID: "m", Lines: []dto.SaleLineRequest{line("P", 1, "10")}}, domain.ErrInvalidInput},
		{"producto inexistente", saleRequest(line("NOPE", 1, "10")), domain.ErrNotFound},
		{"producto inactivo", saleRequest(line("INA", 1, "10")), domain.ErrBusinessRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.App.RegisterSale.RegisterSale(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 5, f.Stock(t, "P"))
	assert.Equal(t, 5, f.Stock(t, "INA"))
}

func TestRegisterSale_DescuentoNoBajaDeCero(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"))

	l := line("P", 1, "10")
	l.Discount = dec("15")
	sale, err := f.App.RegisterSale.RegisterSale(context.Background(), saleRequest(l))
	require.NoError(t, err)
	assert.True(t, sale.Subtotal.IsZero())
	assert.True(t, sale.Total.IsZero())
}

func TestListSales_FiltraPorProductoYEstado(t *testing.T) {
	f := apptest.New(t, apptest.Product("P1", 5, 0, "10"), apptest.Product("P2", 5, 0, "10"))
	ctx := context.Background()

	s1, err := f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P1", 1, "10")))
	require.NoError(t, err)
	_, err = f.App.RegisterSale.RegisterSale(ctx, saleRequest(line("P2", 1, "10")))
	require.NoError(t, err)
	_, err = f.App.AnnulSale.AnnulSale(ctx, dto.AnnulSaleRequest{SaleID: s1.ID, ActorID: "sup"})
	require.NoError(t, err)

	byProduct, err := f.App.RegisterSale.ListSales(ctx, repository.SaleFilter{ProductID: "P1"})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, s1.ID, byProduct[0].ID)

	paid, err := f.App.RegisterSale.ListSales(ctx, repository.SaleFilter{Status: entity.SaleStatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.NotEqual(t, s1.ID, paid[0].ID)

	_, err = f.App.RegisterSale.GetSale(ctx, "no-existe")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
