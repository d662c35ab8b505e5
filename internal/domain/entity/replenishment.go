package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReplenishmentStatus estado de una orden o línea de reposición.
type ReplenishmentStatus string

// Estados de reposición.
const (
	ReplenishmentPending  ReplenishmentStatus = "PENDING"
	ReplenishmentPartial  ReplenishmentStatus = "PARTIAL"
	ReplenishmentComplete ReplenishmentStatus = "COMPLETE"
)

// ReplenishmentOrder orden de compra a proveedor.
type ReplenishmentOrder struct {
	ID         string
	SupplierID string
	Status     ReplenishmentStatus
	ExpectedAt time.Time
	CreatedAt  time.Time
	CreatedBy  string
	Lines      []ReplenishmentLine
}

// ReplenishmentLine línea solicitada al proveedor.
type ReplenishmentLine struct {
	ID           string
	OrderID      string
	ProductID    string
	QtySolicited int
	QtyReceived  int
	UnitCost     decimal.Decimal
	Status       ReplenishmentStatus
}
