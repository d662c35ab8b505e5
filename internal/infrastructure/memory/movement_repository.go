package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

// MovementRepository libro de movimientos en memoria (append-only).
type MovementRepository struct {
	s  *Store
	tx *memTx
}

func (r *MovementRepository) Create(ctx context.Context, m *entity.Movement) error {
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, cloneMovement(m))
		return nil
	}
	return r.s.autocommit(ctx, func(tx *memTx) error {
		tx.movements = append(tx.movements, cloneMovement(m))
		return nil
	})
}

// snapshot movimientos confirmados seguidos de los preparados en la tx, en orden de inserción.
func (r *MovementRepository) snapshot() []*entity.Movement {
	r.s.mu.RLock()
	out := make([]*entity.Movement, 0, len(r.s.movements))
	out = append(out, r.s.movements...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		out = append(out, r.tx.movements...)
	}
	return out
}

func (r *MovementRepository) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.snapshot() {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *MovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	all := r.snapshot()
	out := make([]*entity.Movement, 0)
	// más recientes primero
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.SaleID != "" && m.SaleID != f.SaleID {
			continue
		}
		if f.ActorID != "" && m.ActorID != f.ActorID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if !f.DateRange.Contains(m.CreatedAt) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	pg := f.Page.Normalize()
	return page(out, pg.Offset, pg.Limit), nil
}

func (r *MovementRepository) ListAllByProduct(_ context.Context, productID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.snapshot() {
		if m.ProductID == productID {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}
