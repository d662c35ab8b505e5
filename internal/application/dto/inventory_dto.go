package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest movimiento manual de stock.
// Para ADJUSTMENT, Quantity es el stock objetivo absoluto (puede ser 0).
type RegisterMovementRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=IN OUT ADJUSTMENT RETURN"`
	Quantity  int    `json:"quantity" validate:"min=0"`
	ActorID   string `json:"actor_id" validate:"required"`
	Note      string `json:"note"`
}

// CreateReplenishmentOrderRequest orden de reposición a proveedor.
type CreateReplenishmentOrderRequest struct {
	SupplierID string                     `json:"supplier_id" validate:"required"`
	ExpectedAt time.Time                  `json:"expected_at" validate:"required"`
	CreatedBy  string                     `json:"created_by" validate:"required"`
	Lines      []ReplenishmentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReplenishmentLineRequest prenda solicitada al proveedor. UnitCost cero = sin costo informado.
type ReplenishmentLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

// RegisterReceiptRequest recepción (parcial o total) de una línea de reposición.
type RegisterReceiptRequest struct {
	LineID      string `json:"line_id" validate:"required"`
	QtyReceived int    `json:"qty_received" validate:"gt=0"`
	ActorID     string `json:"actor_id" validate:"required"`
}
