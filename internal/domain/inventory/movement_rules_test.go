package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aritmética por tipo de movimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovementType(t *testing.T) {
	cases := []struct {
		name     string
		typ      entity.MovementType
		before   int
		qty      int
		after    int
		recorded int
		err      error
	}{
		{"IN suma", entity.MovementTypeIN, 4, 6, 10, 6, nil},
		{"RETURN suma", entity.MovementTypeRETURN, 0, 2, 2, 2, nil},
		{"OUT resta", entity.MovementTypeOUT, 10, 7, 3, 7, nil},
		{"OUT deja en cero", entity.MovementTypeOUT, 3, 3, 0, 3, nil},
		{"OUT mayor al disponible", entity.MovementTypeOUT, 1, 2, 0, 0, domain.ErrInsufficientStock},
		{"OUT cantidad cero", entity.MovementTypeOUT, 5, 0, 0, 0, domain.ErrInvalidInput},
		{"IN cantidad negativa", entity.MovementTypeIN, 5, -1, 0, 0, domain.ErrInvalidInput},
		{"ADJUSTMENT baja a objetivo", entity.MovementTypeADJUSTMENT, 10, 8, 8, -2, nil},
		{"ADJUSTMENT sube a objetivo", entity.MovementTypeADJUSTMENT, 2, 9, 9, 7, nil},
		{"ADJUSTMENT a cero", entity.MovementTypeADJUSTMENT, 4, 0, 0, -4, nil},
		{"ADJUSTMENT sin cambio", entity.MovementTypeADJUSTMENT, 5, 5, 0, 0, domain.ErrInvalidInput},
		{"ADJUSTMENT objetivo negativo", entity.MovementTypeADJUSTMENT, 5, -1, 0, 0, domain.ErrInvalidInput},
		{"tipo desconocido", entity.MovementType("TRANSFER"), 5, 1, 0, 0, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			after, recorded, err := inventory.ApplyMovementType(tc.typ, tc.before, tc.qty)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.after, after)
			assert.Equal(t, tc.recorded, recorded)
		})
	}
}

func TestValidMovementTypeEIsInbound(t *testing.T) {
	assert.True(t, inventory.ValidMovementType(entity.MovementTypeADJUSTMENT))
	assert.False(t, inventory.ValidMovementType("TRANSFER"))
	assert.True(t, inventory.IsInbound(entity.MovementTypeRETURN))
	assert.False(t, inventory.IsInbound(entity.MovementTypeADJUSTMENT))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconstrucción desde el libro
// ──────────────────────────────────────────────────────────────────────────────

func mov(id string, typ entity.MovementType, qty, before, after int) *entity.Movement {
	return &entity.Movement{ID: id, Type: typ, Quantity: qty, StockBefore: before, StockAfter: after}
}

func TestReplay_CadenaConsistente(t *testing.T) {
	res := inventory.Replay([]*entity.Movement{
		mov("m1", entity.MovementTypeIN, 10, 0, 10),
		mov("m2", entity.MovementTypeOUT, 7, 10, 3),
		mov("m3", entity.MovementTypeADJUSTMENT, -1, 3, 2),
		mov("m4", entity.MovementTypeRETURN, 2, 2, 4),
	})
	assert.True(t, res.Consistent())
	assert.Equal(t, 0, res.InitialStock)
	assert.Equal(t, 4, res.FinalStock)
	assert.Equal(t, 4, res.Movements)
}

func TestReplay_DetectaSalto(t *testing.T) {
	res := inventory.Replay([]*entity.Movement{
		mov("m1", entity.MovementTypeIN, 10, 0, 10),
		mov("m2", entity.MovementTypeOUT, 2, 9, 7), // before debería ser 10
	})
	assert.False(t, res.Consistent())
	assert.Equal(t, "m2", res.BrokenAt)
}

func TestReplay_DetectaAjusteConDeltaIncoherente(t *testing.T) {
	res := inventory.Replay([]*entity.Movement{
		mov("m1", entity.MovementTypeADJUSTMENT, 3, 5, 7),
	})
	assert.Equal(t, "m1", res.BrokenAt)
}

func TestReplay_SinMovimientos(t *testing.T) {
	res := inventory.Replay(nil)
	assert.True(t, res.Consistent())
	assert.Zero(t, res.FinalStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reposición y costo promedio
// ──────────────────────────────────────────────────────────────────────────────

func TestClampReceiptYEstados(t *testing.T) {
	line := entity.ReplenishmentLine{QtySolicited: 10, QtyReceived: 6}
	assert.Equal(t, 4, inventory.ClampReceipt(line, 9), "se limita a lo pendiente")
	assert.Equal(t, 3, inventory.ClampReceipt(line, 3))
	assert.Equal(t, 0, inventory.ClampReceipt(entity.ReplenishmentLine{QtySolicited: 2, QtyReceived: 2}, 1))

	assert.Equal(t, entity.ReplenishmentPartial, inventory.LineStatus(line))
	assert.Equal(t, entity.ReplenishmentPending, inventory.LineStatus(entity.ReplenishmentLine{QtySolicited: 1}))
	assert.Equal(t, entity.ReplenishmentComplete, inventory.LineStatus(entity.ReplenishmentLine{QtySolicited: 1, QtyReceived: 1}))

	complete := entity.ReplenishmentLine{QtySolicited: 1, QtyReceived: 1}
	pending := entity.ReplenishmentLine{QtySolicited: 1}
	assert.Equal(t, entity.ReplenishmentComplete, inventory.OrderStatus([]entity.ReplenishmentLine{complete, complete}))
	assert.Equal(t, entity.ReplenishmentPartial, inventory.OrderStatus([]entity.ReplenishmentLine{complete, pending}))
	assert.Equal(t, entity.ReplenishmentPending, inventory.OrderStatus([]entity.ReplenishmentLine{pending}))
}

func TestCostCalculator(t *testing.T) {
	// (10*20 + 5*26) / 15 = 22
	got := inventory.CostCalculator(10, decimal.NewFromInt(20), 5, decimal.NewFromInt(26))
	assert.True(t, got.Equal(decimal.NewFromInt(22)), "got %s", got)

	// Sin stock previo el costo es el de la entrada
	got = inventory.CostCalculator(0, decimal.NewFromInt(99), 3, decimal.RequireFromString("12.50"))
	assert.Equal(t, "12.50", got.StringFixed(2))

	// (1*10 + 2*11) / 3 = 10.666.. -> 10.67
	got = inventory.CostCalculator(1, decimal.NewFromInt(10), 2, decimal.NewFromInt(11))
	assert.Equal(t, "10.67", got.StringFixed(2))
}
