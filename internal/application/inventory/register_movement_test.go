package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/application/apptest"
	"github.com/jhoicas/boutique-backoffice/internal/application/dto"
	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movement(productID, typ string, qty int) dto.RegisterMovementRequest {
	return dto.RegisterMovementRequest{ProductID: productID, Type: typ, Quantity: qty, ActorID: "bodega"}
}

func TestRegisterMovement_SecuenciaConsistente(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"))
	ctx := context.Background()

	steps := []struct {
		req       dto.RegisterMovementRequest
		wantAfter int
		wantQty   int
	}{
		{movement("P", "IN", 10), 15, 10},
		{movement("P", "OUT", 4), 11, 4},
		{movement("P", "RETURN", 1), 12, 1},
		{movement("P", "ADJUSTMENT", 9), 9, -3},
		{movement("P", "ADJUSTMENT", 0), 0, -9},
		{movement("P", "IN", 2), 2, 2},
	}
	for _, s := range steps {
		f.Clock.Advance(time.Minute)
		mov, err := f.App.Ledger.RegisterMovement(ctx, s.req)
		require.NoError(t, err, s.req.Type)
		assert.Equal(t, s.wantAfter, mov.StockAfter, s.req.Type)
		assert.Equal(t, s.wantQty, mov.Quantity, s.req.Type)
		assert.Equal(t, f.Clock.Now(), mov.CreatedAt)
	}

	assert.Equal(t, 2, f.Stock(t, "P"))
	rep, err := f.App.Ledger.Reconcile(ctx, "P")
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.Equal(t, 2, rep.LedgerStock)
	assert.Equal(t, len(steps), rep.Movements)
	assert.Empty(t, rep.BrokenAt)
}

func TestRegisterMovement_Errores(t *testing.T) {
	inactive := apptest.Product("INA", 5, 0, "10")
	inactive.Active = false
	f := apptest.New(t, apptest.Product("P", 3, 0, "10"), inactive)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.RegisterMovementRequest
		wantErr error
	}{
		{"salida mayor al stock", movement("P", "OUT", 4), domain.ErrInsufficientStock},
		{"tipo desconocido", movement("P", "TRANSFER", 1), domain.ErrInvalidInput},
		{"entrada en cero", movement("P", "IN", 0), domain.ErrInvalidInput},
		{"ajuste sin cambio", movement("P", "ADJUSTMENT", 3), domain.ErrInvalidInput},
		{"sin actor", dto.RegisterMovementRequest{ProductID: "P", Type: "IN", Quantity: 1}, domain.ErrInvalidInput},
		{"producto inexistente", movement("NOPE", "IN", 1), domain.ErrNotFound},
		{"salida de producto inactivo", movement("INA", "OUT", 1), domain.ErrBusinessRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.App.Ledger.RegisterMovement(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 3, f.Stock(t, "P"))
	assert.Empty(t, f.Movements(t, "P"))

	// Entradas sobre un producto inactivo siguen permitidas
	_, err := f.App.Ledger.RegisterMovement(ctx, movement("INA", "IN", 1))
	require.NoError(t, err)
	assert.Equal(t, 6, f.Stock(t, "INA"))
}

func TestApplyMovement_RollbackDeLaTransaccion(t *testing.T) {
	f := apptest.New(t, apptest.Product("P1", 5, 0, "10"), apptest.Product("P2", 1, 0, "10"))
	ctx := context.Background()

	runner := f.Store.TxRunner()
	err := runner.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		if _, err := f.App.Ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
			ProductID: "P1", Type: entity.MovementTypeOUT, Quantity: 2, ActorID: "bodega",
		}); err != nil {
			return err
		}
		_, err := f.App.Ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
			ProductID: "P2", Type: entity.MovementTypeOUT, Quantity: 2, ActorID: "bodega",
		})
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, f.Stock(t, "P1"))
	assert.Equal(t, 1, f.Stock(t, "P2"))
	assert.Empty(t, f.Movements(t, "P1"))
	assert.Empty(t, f.Movements(t, "P2"))
}

func TestApplyMovement_ErrorDelLlamadorRevierte(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"))
	boom := errors.New("boom")

	err := f.Store.TxRunner().Run(context.Background(), func(ctx context.Context, repos inventory.TxRepos) error {
		if _, err := f.App.Ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
			ProductID: "P", Type: entity.MovementTypeIN, Quantity: 3, ActorID: "bodega",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, f.Stock(t, "P"))
	assert.Empty(t, f.Movements(t, "P"))
}

func TestReconcile_DetectaDivergencia(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"))
	ctx := context.Background()

	_, err := f.App.Ledger.RegisterMovement(ctx, movement("P", "IN", 5))
	require.NoError(t, err)

	// Escritura fuera del libro
	p, err := f.Store.Products().GetByID(ctx, "P")
	require.NoError(t, err)
	p.Stock = 42
	f.Store.PutProduct(p)

	rep, err := f.App.Ledger.Reconcile(ctx, "P")
	require.NoError(t, err)
	assert.False(t, rep.Consistent)
	assert.Equal(t, 42, rep.CachedStock)
	assert.Equal(t, 10, rep.LedgerStock)

	_, err = f.App.Ledger.Reconcile(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcile_EsperaMovimientoEnCurso(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"))
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- f.Store.TxRunner().Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
			if _, err := f.App.Ledger.ApplyMovement(ctx, repos, inventory.MovementInput{
				ProductID: "P", Type: entity.MovementTypeIN, Quantity: 3, ActorID: "bodega",
			}); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	type result struct {
		rep *inventory.ReconciliationReport
		err error
	}
	done := make(chan result, 1)
	go func() {
		rep, err := f.App.Ledger.Reconcile(ctx, "P")
		done <- result{rep, err}
	}()

	select {
	case <-done:
		t.Fatal("la conciliación no debe leer mientras la fila está bloqueada")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-txDone)

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.rep.Consistent)
	assert.Equal(t, 8, res.rep.CachedStock)
	assert.Equal(t, 8, res.rep.LedgerStock)
	assert.Equal(t, 1, res.rep.Movements)
}

func TestReconcile_SinMovimientos(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 7, 0, "10"))

	rep, err := f.App.Ledger.Reconcile(context.Background(), "P")
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.Equal(t, 7, rep.LedgerStock)
	assert.Zero(t, rep.Movements)
}

func TestListMovements(t *testing.T) {
	f := apptest.New(t, apptest.Product("P", 5, 0, "10"), apptest.Product("Q", 5, 0, "10"))
	ctx := context.Background()

	var lastID string
	for _, req := range []dto.RegisterMovementRequest{
		movement("P", "IN", 1),
		movement("Q", "IN", 1),
		movement("P", "OUT", 2),
	} {
		f.Clock.Advance(time.Minute)
		mov, err := f.App.Ledger.RegisterMovement(ctx, req)
		require.NoError(t, err)
		lastID = mov.ID
	}

	byProduct, err := f.App.Ledger.ListMovements(ctx, repository.MovementFilter{ProductID: "P"})
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.Equal(t, lastID, byProduct[0].ID)

	outs, err := f.App.Ledger.ListMovements(ctx, repository.MovementFilter{Type: entity.MovementTypeOUT})
	require.NoError(t, err)
	assert.Len(t, outs, 1)

	from := apptest.Base.Add(90 * time.Second)
	recent, err := f.App.Ledger.ListMovements(ctx, repository.MovementFilter{DateRange: repository.DateRange{From: &from}})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	paged, err := f.App.Ledger.ListMovements(ctx, repository.MovementFilter{Page: repository.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	got, err := f.App.Ledger.GetMovement(ctx, lastID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeOUT, got.Type)
	_, err = f.App.Ledger.GetMovement(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
