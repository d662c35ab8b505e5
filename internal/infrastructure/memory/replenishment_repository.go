package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.ReplenishmentRepository = (*ReplenishmentRepository)(nil)

// ReplenishmentRepository órdenes de reposición en memoria.
type ReplenishmentRepository struct {
	s  *Store
	tx *memTx
}

func readOrder(s *Store, tx *memTx, id string) *entity.ReplenishmentOrder {
	if tx != nil {
		if o, ok := tx.orders[id]; ok {
			return cloneOrder(o)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrder(s.orders[id])
}

func (r *ReplenishmentRepository) orderOfLine(lineID string) string {
	if r.tx != nil {
		for _, id := range r.tx.newOrders {
			for _, l := range r.tx.orders[id].Lines {
				if l.ID == lineID {
					return id
				}
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.lineIndex[lineID]
}

func (r *ReplenishmentRepository) Create(ctx context.Context, o *entity.ReplenishmentOrder) error {
	apply := func(tx *memTx) error {
		tx.orders[o.ID] = cloneOrder(o)
		tx.newOrders = append(tx.newOrders, o.ID)
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *ReplenishmentRepository) GetByID(_ context.Context, id string) (*entity.ReplenishmentOrder, error) {
	return readOrder(r.s, r.tx, id), nil
}

// GetLineForUpdate bloquea la orden completa de la línea.
func (r *ReplenishmentRepository) GetLineForUpdate(ctx context.Context, lineID string) (*entity.ReplenishmentLine, error) {
	orderID := r.orderOfLine(lineID)
	if orderID == "" {
		return nil, nil
	}
	if r.tx != nil {
		if err := r.tx.lock(ctx, "order:"+orderID); err != nil {
			return nil, err
		}
	}
	o := readOrder(r.s, r.tx, orderID)
	if o == nil {
		return nil, nil
	}
	for _, l := range o.Lines {
		if l.ID == lineID {
			line := l
			return &line, nil
		}
	}
	return nil, nil
}

func (r *ReplenishmentRepository) UpdateLine(ctx context.Context, line *entity.ReplenishmentLine) error {
	return r.mutate(ctx, line.OrderID, func(o *entity.ReplenishmentOrder) error {
		for i := range o.Lines {
			if o.Lines[i].ID == line.ID {
				o.Lines[i] = *line
				return nil
			}
		}
		return fmt.Errorf("%w: línea de reposición %s", domain.ErrNotFound, line.ID)
	})
}

func (r *ReplenishmentRepository) UpdateStatus(ctx context.Context, orderID string, status entity.ReplenishmentStatus) error {
	return r.mutate(ctx, orderID, func(o *entity.ReplenishmentOrder) error {
		o.Status = status
		return nil
	})
}

func (r *ReplenishmentRepository) mutate(ctx context.Context, orderID string, fn func(o *entity.ReplenishmentOrder) error) error {
	apply := func(tx *memTx) error {
		o := readOrder(r.s, tx, orderID)
		if o == nil {
			return fmt.Errorf("%w: orden de reposición %s", domain.ErrNotFound, orderID)
		}
		if err := fn(o); err != nil {
			return err
		}
		tx.orders[orderID] = o
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *ReplenishmentRepository) ListOverdue(_ context.Context, now time.Time, pg repository.Page) ([]*entity.ReplenishmentOrder, error) {
	r.s.mu.RLock()
	ids := append([]string(nil), r.s.orderIDs...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		ids = append(ids, r.tx.newOrders...)
	}

	out := make([]*entity.ReplenishmentOrder, 0)
	for _, id := range ids {
		o := readOrder(r.s, r.tx, id)
		if o == nil || o.Status == entity.ReplenishmentComplete || !o.ExpectedAt.Before(now) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpectedAt.Before(out[j].ExpectedAt) })
	pg = pg.Normalize()
	return page(out, pg.Offset, pg.Limit), nil
}
