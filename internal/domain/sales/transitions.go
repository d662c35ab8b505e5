package sales

import (
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// saleTransitions transiciones permitidas de Sale.
var saleTransitions = map[entity.SaleStatus][]entity.SaleStatus{
	entity.SaleStatusPaid: {entity.SaleStatusAnnulled},
}

// returnTransitions transiciones permitidas de Return. REJECTED y COMPLETED son terminales.
var returnTransitions = map[entity.ReturnStatus][]entity.ReturnStatus{
	entity.ReturnStatusPending:  {entity.ReturnStatusApproved, entity.ReturnStatusRejected},
	entity.ReturnStatusApproved: {entity.ReturnStatusCompleted},
}

// CanTransitionSale indica si la venta puede pasar de from a to.
func CanTransitionSale(from, to entity.SaleStatus) bool {
	for _, s := range saleTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionReturn indica si la devolución puede pasar de from a to.
func CanTransitionReturn(from, to entity.ReturnStatus) bool {
	for _, s := range returnTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// WithinWindow indica si now no supera start+window (límite inclusivo).
func WithinWindow(start, now time.Time, window time.Duration) bool {
	return !now.After(start.Add(window))
}
