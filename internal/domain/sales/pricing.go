package sales

import "github.com/shopspring/decimal"

// PricedLine datos mínimos de una línea para calcular importes.
type PricedLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Totals importes de cabecera de una venta.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal = qty * unitPrice - discount, nunca negativo, redondeado a 2 decimales.
func LineSubtotal(l PricedLine) decimal.Decimal {
	gross := decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitPrice)
	net := gross.Sub(l.Discount)
	if net.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return net.Round(2)
}

// ComputeTotals suma los subtotales de línea y aplica la tasa de impuesto única.
// Cada importe se redondea half-up a 2 decimales; Total = Subtotal + Tax.
func ComputeTotals(lines []PricedLine, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax).Round(2),
	}
}
