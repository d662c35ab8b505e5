package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepository)(nil)

// ReturnRepository devoluciones en memoria.
type ReturnRepository struct {
	s  *Store
	tx *memTx
}

func readReturn(s *Store, tx *memTx, id string) *entity.Return {
	if tx != nil {
		if r, ok := tx.returns[id]; ok {
			return cloneReturn(r)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReturn(s.returns[id])
}

func (r *ReturnRepository) ids() []string {
	r.s.mu.RLock()
	ids := append([]string(nil), r.s.returnIDs...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		ids = append(ids, r.tx.newRets...)
	}
	return ids
}

func (r *ReturnRepository) Create(ctx context.Context, ret *entity.Return) error {
	apply := func(tx *memTx) error {
		tx.returns[ret.ID] = cloneReturn(ret)
		tx.newRets = append(tx.newRets, ret.ID)
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *ReturnRepository) GetByID(_ context.Context, id string) (*entity.Return, error) {
	return readReturn(r.s, r.tx, id), nil
}

func (r *ReturnRepository) GetForUpdate(ctx context.Context, id string) (*entity.Return, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, "return:"+id); err != nil {
			return nil, err
		}
	}
	return readReturn(r.s, r.tx, id), nil
}

// Update reemplaza la devolución completa; debe existir.
func (r *ReturnRepository) Update(ctx context.Context, ret *entity.Return) error {
	apply := func(tx *memTx) error {
		if readReturn(r.s, tx, ret.ID) == nil {
			return fmt.Errorf("%w: devolución %s", domain.ErrNotFound, ret.ID)
		}
		tx.returns[ret.ID] = cloneReturn(ret)
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *ReturnRepository) ReturnedQtyBySale(_ context.Context, saleID string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range r.ids() {
		ret := readReturn(r.s, r.tx, id)
		if ret == nil || ret.SaleID != saleID || ret.Status == entity.ReturnStatusRejected {
			continue
		}
		for _, l := range ret.Lines {
			out[l.ProductID] += l.Quantity
		}
	}
	return out, nil
}

func (r *ReturnRepository) List(_ context.Context, f repository.ReturnFilter) ([]*entity.Return, error) {
	ids := r.ids()
	out := make([]*entity.Return, 0)
	for i := len(ids) - 1; i >= 0; i-- {
		ret := readReturn(r.s, r.tx, ids[i])
		if ret == nil || !matchReturn(ret, f) {
			continue
		}
		out = append(out, ret)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	pg := f.Page.Normalize()
	return page(out, pg.Offset, pg.Limit), nil
}

func matchReturn(ret *entity.Return, f repository.ReturnFilter) bool {
	if f.SaleID != "" && ret.SaleID != f.SaleID {
		return false
	}
	if f.Status != "" && ret.Status != f.Status {
		return false
	}
	if f.ActorID != "" && ret.ActorID != f.ActorID {
		return false
	}
	if !f.DateRange.Contains(ret.CreatedAt) {
		return false
	}
	if f.ProductID == "" {
		return true
	}
	for _, l := range ret.Lines {
		if l.ProductID == f.ProductID {
			return true
		}
	}
	return false
}
