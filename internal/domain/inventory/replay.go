package inventory

import "github.com/jhoicas/boutique-backoffice/internal/domain/entity"

// ReplayResult resultado de reconstruir el stock desde el libro de movimientos.
type ReplayResult struct {
	InitialStock int
	FinalStock   int
	Movements    int
	// BrokenAt id del primer movimiento cuyo StockBefore no coincide con el acumulado
	// o cuyo StockAfter no coincide con la aritmética de su tipo. Vacío si la cadena es consistente.
	BrokenAt string
}

// Consistent indica que la cadena before/after no tiene saltos.
func (r ReplayResult) Consistent() bool { return r.BrokenAt == "" }

// Replay pliega los movimientos (en orden cronológico) partiendo del StockBefore del primero.
// IN/RETURN suman, OUT resta y ADJUSTMENT fija el valor absoluto.
func Replay(movements []*entity.Movement) ReplayResult {
	if len(movements) == 0 {
		return ReplayResult{}
	}
	res := ReplayResult{InitialStock: movements[0].StockBefore, Movements: len(movements)}
	running := res.InitialStock
	for _, m := range movements {
		if m.StockBefore != running && res.BrokenAt == "" {
			res.BrokenAt = m.ID
		}
		next := foldOne(running, m)
		if m.Type == entity.MovementTypeADJUSTMENT && m.StockBefore+m.Quantity != m.StockAfter && res.BrokenAt == "" {
			res.BrokenAt = m.ID
		}
		if next != m.StockAfter && res.BrokenAt == "" {
			res.BrokenAt = m.ID
		}
		running = next
	}
	res.FinalStock = running
	return res
}

func foldOne(running int, m *entity.Movement) int {
	switch m.Type {
	case entity.MovementTypeIN, entity.MovementTypeRETURN:
		return running + m.Quantity
	case entity.MovementTypeOUT:
		return running - m.Quantity
	case entity.MovementTypeADJUSTMENT:
		return m.StockAfter
	}
	return running
}
