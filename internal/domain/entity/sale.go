package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de una venta.
type SaleStatus string

// Estados de venta.
const (
	SaleStatusPaid     SaleStatus = "PAID"
	SaleStatusAnnulled SaleStatus = "ANNULLED"
)

// Sale cabecera de venta. Las líneas le pertenecen y se referencian por SaleID.
type Sale struct {
	ID              string
	Code            string
	ClientID        string
	SellerID        string
	PaymentMethodID string
	Lines           []SaleLine
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          SaleStatus
	Note            string // bitácora de auditoría (motivos de anulación)
	CreatedAt       time.Time
	AnnulledAt      *time.Time
}

// SaleLine línea de venta.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
}
