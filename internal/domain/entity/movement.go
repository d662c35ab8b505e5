package entity

import "time"

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         MovementType = "IN"         // entrada (reposición, anulación)
	MovementTypeOUT        MovementType = "OUT"        // salida por venta
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste a valor absoluto
	MovementTypeRETURN     MovementType = "RETURN"     // devolución de cliente
)

// Movement es un registro inmutable del libro de stock. Nunca se actualiza ni se elimina.
type Movement struct {
	ID          string
	ProductID   string
	Type        MovementType
	Quantity    int // IN/OUT/RETURN: cantidad positiva; ADJUSTMENT: delta con signo
	StockBefore int
	StockAfter  int
	CreatedAt   time.Time
	ActorID     string
	SaleID      string // opcional
	ReferenceID string // opcional: devolución o línea de reposición
	Note        string
}
