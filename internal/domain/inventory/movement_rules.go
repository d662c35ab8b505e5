package inventory

import (
	"fmt"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// movementRule calcula el stock resultante y el delta almacenado a partir del stock previo.
type movementRule func(before, qty int) (after, delta int, err error)

// movementRules tabla de despacho por tipo de movimiento.
var movementRules = map[entity.MovementType]movementRule{
	entity.MovementTypeIN:     addRule,
	entity.MovementTypeRETURN: addRule,
	entity.MovementTypeOUT: func(before, qty int) (int, int, error) {
		if qty <= 0 {
			return 0, 0, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
		}
		if qty > before {
			return 0, 0, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, before, qty)
		}
		return before - qty, qty, nil
	},
	// En ADJUSTMENT qty es el stock objetivo absoluto.
	entity.MovementTypeADJUSTMENT: func(before, target int) (int, int, error) {
		if target < 0 {
			return 0, 0, fmt.Errorf("%w: stock objetivo negativo", domain.ErrInvalidInput)
		}
		delta := target - before
		if delta == 0 {
			return 0, 0, fmt.Errorf("%w: el ajuste no modifica el stock", domain.ErrInvalidInput)
		}
		return target, delta, nil
	},
}

func addRule(before, qty int) (int, int, error) {
	if qty <= 0 {
		return 0, 0, fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	return before + qty, qty, nil
}

// ApplyMovementType aplica la aritmética del tipo de movimiento sobre el stock previo.
// Devuelve el stock posterior y la cantidad a registrar en el movimiento.
func ApplyMovementType(t entity.MovementType, before, qty int) (after, recorded int, err error) {
	rule, ok := movementRules[t]
	if !ok {
		return 0, 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, t)
	}
	return rule(before, qty)
}

// ValidMovementType indica si el tipo es conocido.
func ValidMovementType(t entity.MovementType) bool {
	_, ok := movementRules[t]
	return ok
}

// IsInbound indica si el tipo suma stock siempre (IN, RETURN).
func IsInbound(t entity.MovementType) bool {
	return t == entity.MovementTypeIN || t == entity.MovementTypeRETURN
}
