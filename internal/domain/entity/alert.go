package entity

import "time"

// AlertType tipo de alerta de stock.
type AlertType string

// Tipos de alerta.
const (
	AlertTypeLowStock   AlertType = "LOW_STOCK"
	AlertTypeOutOfStock AlertType = "OUT_OF_STOCK"
)

// Urgency severidad de la alerta, de menor a mayor.
type Urgency string

// Niveles de urgencia.
const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Alert alerta de stock. Nunca se elimina; solo pasa de no leída a leída.
type Alert struct {
	ID              string
	ProductID       string
	Type            AlertType
	Urgency         Urgency
	StockAtAlert    int
	Read            bool
	CreatedAt       time.Time
	ReadAt          *time.Time
	NotifiedActorID string
}
