package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository productos en memoria. tx nil = lecturas y escrituras confirmadas.
type ProductRepository struct {
	s  *Store
	tx *memTx
}

func readProduct(s *Store, tx *memTx, id string) *entity.Product {
	if tx != nil {
		if p, ok := tx.products[id]; ok {
			return cloneProduct(p)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProduct(s.products[id])
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return readProduct(r.s, r.tx, id), nil
}

func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, "product:"+id); err != nil {
			return nil, err
		}
	}
	return readProduct(r.s, r.tx, id), nil
}

func (r *ProductRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	return r.mutate(ctx, id, func(p *entity.Product) { p.Stock = stock })
}

func (r *ProductRepository) UpdateBuyPrice(ctx context.Context, id string, price decimal.Decimal) error {
	return r.mutate(ctx, id, func(p *entity.Product) { p.BuyPrice = price })
}

func (r *ProductRepository) mutate(ctx context.Context, id string, fn func(p *entity.Product)) error {
	apply := func(tx *memTx) error {
		p := readProduct(r.s, tx, id)
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		fn(p)
		p.UpdatedAt = time.Now()
		tx.products[id] = p
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *ProductRepository) ListLowStock(_ context.Context, pg repository.Page) ([]*entity.Product, error) {
	return r.list(pg, func(p *entity.Product) bool { return p.Stock <= p.StockMinimum }), nil
}

func (r *ProductRepository) ListLowStockAfter(_ context.Context, after repository.ProductCursor, limit int) ([]*entity.Product, error) {
	low := r.sorted(func(p *entity.Product) bool { return p.Stock <= p.StockMinimum && after.After(p) })
	return page(low, 0, limit), nil
}

func (r *ProductRepository) ListOutOfStock(_ context.Context, pg repository.Page) ([]*entity.Product, error) {
	return r.list(pg, func(p *entity.Product) bool { return p.Stock == 0 }), nil
}

func (r *ProductRepository) list(pg repository.Page, keep func(p *entity.Product) bool) []*entity.Product {
	pg = pg.Normalize()
	return page(r.sorted(keep), pg.Offset, pg.Limit)
}

// sorted productos activos que cumplen keep, ordenados por (code, id).
func (r *ProductRepository) sorted(keep func(p *entity.Product) bool) []*entity.Product {
	r.s.mu.RLock()
	all := make(map[string]*entity.Product, len(r.s.products))
	for id, p := range r.s.products {
		all[id] = p
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, p := range r.tx.products {
			all[id] = p
		}
	}

	out := make([]*entity.Product, 0)
	for _, p := range all {
		if p.Active && keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID < out[j].ID
	})
	return out
}
