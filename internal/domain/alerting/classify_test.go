package alerting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		stock   int
		minimum int
		ok      bool
		typ     entity.AlertType
		urgency entity.Urgency
	}{
		{"agotado", 0, 5, true, entity.AlertTypeOutOfStock, entity.UrgencyCritical},
		{"agotado sin mínimo", 0, 0, true, entity.AlertTypeOutOfStock, entity.UrgencyCritical},
		{"sobre el mínimo", 6, 5, false, "", ""},
		{"igual al mínimo", 5, 5, true, entity.AlertTypeLowStock, entity.UrgencyLow},
		{"razón 0.6", 3, 5, true, entity.AlertTypeLowStock, entity.UrgencyLow},
		{"razón 0.5", 5, 10, true, entity.AlertTypeLowStock, entity.UrgencyMedium},
		{"razón 0.4", 2, 5, true, entity.AlertTypeLowStock, entity.UrgencyMedium},
		{"razón 0.25", 1, 4, true, entity.AlertTypeLowStock, entity.UrgencyHigh},
		{"razón 0.2", 1, 5, true, entity.AlertTypeLowStock, entity.UrgencyHigh},
		{"mínimo cero con stock", 3, 0, false, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := alerting.Classify(tc.stock, tc.minimum, alerting.DefaultBands)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.typ, c.Type)
				assert.Equal(t, tc.urgency, c.Urgency)
			}
		})
	}
}
