package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnStatus estado de una devolución.
type ReturnStatus string

// Estados de devolución.
const (
	ReturnStatusPending   ReturnStatus = "PENDING"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

// Return devolución de cliente sobre una venta.
type Return struct {
	ID          string
	SaleID      string
	ActorID     string
	Status      ReturnStatus
	Reason      string
	Lines       []ReturnLine
	TotalRefund decimal.Decimal
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	ResolvedBy  string
	CompletedAt *time.Time
}

// ReturnLine prenda devuelta.
type ReturnLine struct {
	ID        string
	ReturnID  string
	ProductID string
	Quantity  int
	Reason    string
}
