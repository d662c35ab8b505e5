package dto

import "github.com/shopspring/decimal"

// RegisterSaleRequest entrada para registrar una venta.
type RegisterSaleRequest struct {
	ClientID        string            `json:"client_id" validate:"required"`
	SellerID        string            `json:"seller_id" validate:"required"`
	PaymentMethodID string            `json:"payment_method_id" validate:"required"`
	Lines           []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SaleLineRequest línea de venta solicitada. Discount es un monto absoluto por línea.
type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gt=0"`
	Discount  decimal.Decimal `json:"discount" validate:"gte=0"`
}

// AnnulSaleRequest entrada para anular una venta.
type AnnulSaleRequest struct {
	SaleID  string `json:"sale_id" validate:"required"`
	ActorID string `json:"actor_id" validate:"required"`
	Reason  string `json:"reason"`
}
