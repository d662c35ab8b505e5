package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa una prenda del catálogo.
// Stock es una proyección cacheada del libro de movimientos; solo el Ledger lo modifica.
type Product struct {
	ID           string
	Code         string // código único de la prenda
	Name         string
	BuyPrice     decimal.Decimal // costo promedio ponderado de compra
	SellPrice    decimal.Decimal
	Stock        int
	StockMinimum int
	Active       bool
	UpdatedAt    time.Time
}
