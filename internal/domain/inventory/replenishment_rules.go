package inventory

import "github.com/jhoicas/boutique-backoffice/internal/domain/entity"

// ClampReceipt limita la cantidad recibida a lo pendiente de la línea (solicitado - recibido).
func ClampReceipt(line entity.ReplenishmentLine, qty int) int {
	remaining := line.QtySolicited - line.QtyReceived
	if remaining <= 0 || qty <= 0 {
		return 0
	}
	if qty > remaining {
		return remaining
	}
	return qty
}

// LineStatus estado de una línea según lo recibido.
func LineStatus(line entity.ReplenishmentLine) entity.ReplenishmentStatus {
	switch {
	case line.QtyReceived >= line.QtySolicited:
		return entity.ReplenishmentComplete
	case line.QtyReceived > 0:
		return entity.ReplenishmentPartial
	default:
		return entity.ReplenishmentPending
	}
}

// OrderStatus COMPLETE solo si todas las líneas están completas; PARTIAL si alguna recibió algo.
func OrderStatus(lines []entity.ReplenishmentLine) entity.ReplenishmentStatus {
	if len(lines) == 0 {
		return entity.ReplenishmentPending
	}
	complete := true
	received := false
	for _, l := range lines {
		if LineStatus(l) != entity.ReplenishmentComplete {
			complete = false
		}
		if l.QtyReceived > 0 {
			received = true
		}
	}
	switch {
	case complete:
		return entity.ReplenishmentComplete
	case received:
		return entity.ReplenishmentPartial
	default:
		return entity.ReplenishmentPending
	}
}
