package repository

import (
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// Page paginación común de listados.
type Page struct {
	Limit  int
	Offset int
}

// Normalize aplica valores por defecto (20) y tope (100).
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ProductCursor posición de paginación por clave (code, id). Cero = desde el inicio.
type ProductCursor struct {
	Code string
	ID   string
}

// After indica si p va después del cursor en el orden (code, id).
func (c ProductCursor) After(p *entity.Product) bool {
	if p.Code != c.Code {
		return p.Code > c.Code
	}
	return p.ID > c.ID
}

// DateRange rango de fechas opcional (extremos inclusivos).
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains indica si t cae dentro del rango.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// SaleFilter filtros de búsqueda de ventas.
type SaleFilter struct {
	DateRange
	Page
	Status    entity.SaleStatus
	ClientID  string
	SellerID  string
	ProductID string
}

// ReturnFilter filtros de búsqueda de devoluciones.
type ReturnFilter struct {
	DateRange
	Page
	SaleID    string
	Status    entity.ReturnStatus
	ActorID   string
	ProductID string
}

// MovementFilter filtros de búsqueda del libro de movimientos.
type MovementFilter struct {
	DateRange
	Page
	ProductID string
	SaleID    string
	ActorID   string
	Type      entity.MovementType
}

// AlertFilter filtros de búsqueda de alertas. Unread nil = todas.
type AlertFilter struct {
	DateRange
	Page
	ProductID string
	Type      entity.AlertType
	Urgency   entity.Urgency
	Unread    *bool
}
