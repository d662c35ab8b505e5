package alerting

import "github.com/jhoicas/boutique-backoffice/internal/domain/entity"

// Bands umbrales de urgencia sobre la razón stock/stockMinimum para LOW_STOCK.
type Bands struct {
	HighRatio   float64 // razón <= HighRatio -> HIGH
	MediumRatio float64 // razón <= MediumRatio -> MEDIUM; mayor -> LOW
}

// DefaultBands bandas por defecto.
var DefaultBands = Bands{HighRatio: 0.25, MediumRatio: 0.5}

// Classification resultado de clasificar el stock de un producto.
type Classification struct {
	Type    entity.AlertType
	Urgency entity.Urgency
}

// Classify devuelve la alerta que corresponde al stock, o ok=false si no hay alerta.
//   - stock == 0 -> OUT_OF_STOCK / CRITICAL
//   - 0 < stock <= minimum -> LOW_STOCK con urgencia según bandas
func Classify(stock, minimum int, b Bands) (Classification, bool) {
	if stock <= 0 {
		return Classification{Type: entity.AlertTypeOutOfStock, Urgency: entity.UrgencyCritical}, true
	}
	if minimum <= 0 || stock > minimum {
		return Classification{}, false
	}
	ratio := float64(stock) / float64(minimum)
	urgency := entity.UrgencyLow
	switch {
	case ratio <= b.HighRatio:
		urgency = entity.UrgencyHigh
	case ratio <= b.MediumRatio:
		urgency = entity.UrgencyMedium
	}
	return Classification{Type: entity.AlertTypeLowStock, Urgency: urgency}, true
}
