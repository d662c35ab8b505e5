package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepository)(nil)

// SaleRepository ventas en memoria.
type SaleRepository struct {
	s  *Store
	tx *memTx
}

func readSale(s *Store, tx *memTx, id string) *entity.Sale {
	if tx != nil {
		if sale, ok := tx.sales[id]; ok {
			return cloneSale(sale)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSale(s.sales[id])
}

func (r *SaleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	apply := func(tx *memTx) error {
		r.s.mu.RLock()
		_, taken := r.s.saleCodes[sale.Code]
		r.s.mu.RUnlock()
		if taken {
			return fmt.Errorf("%w: código de venta %s", domain.ErrDuplicate, sale.Code)
		}
		for _, id := range tx.newSales {
			if tx.sales[id].Code == sale.Code {
				return fmt.Errorf("%w: código de venta %s", domain.ErrDuplicate, sale.Code)
			}
		}
		tx.sales[sale.ID] = cloneSale(sale)
		tx.newSales = append(tx.newSales, sale.ID)
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *SaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return readSale(r.s, r.tx, id), nil
}

func (r *SaleRepository) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, "sale:"+id); err != nil {
			return nil, err
		}
	}
	return readSale(r.s, r.tx, id), nil
}

func (r *SaleRepository) MarkAnnulled(ctx context.Context, id, note string, at time.Time) error {
	apply := func(tx *memTx) error {
		sale := readSale(r.s, tx, id)
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, id)
		}
		sale.Status = entity.SaleStatusAnnulled
		sale.Note = note
		sale.AnnulledAt = &at
		tx.sales[id] = sale
		return nil
	}
	if r.tx != nil {
		return apply(r.tx)
	}
	return r.s.autocommit(ctx, apply)
}

func (r *SaleRepository) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	r.s.mu.RLock()
	ids := append([]string(nil), r.s.saleIDs...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		ids = append(ids, r.tx.newSales...)
	}

	out := make([]*entity.Sale, 0)
	for i := len(ids) - 1; i >= 0; i-- {
		sale := readSale(r.s, r.tx, ids[i])
		if sale == nil || !matchSale(sale, f) {
			continue
		}
		out = append(out, sale)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	pg := f.Page.Normalize()
	return page(out, pg.Offset, pg.Limit), nil
}

func matchSale(sale *entity.Sale, f repository.SaleFilter) bool {
	if f.Status != "" && sale.Status != f.Status {
		return false
	}
	if f.ClientID != "" && sale.ClientID != f.ClientID {
		return false
	}
	if f.SellerID != "" && sale.SellerID != f.SellerID {
		return false
	}
	if !f.DateRange.Contains(sale.CreatedAt) {
		return false
	}
	if f.ProductID == "" {
		return true
	}
	for _, l := range sale.Lines {
		if l.ProductID == f.ProductID {
			return true
		}
	}
	return false
}

// LastCodeNumber mayor número entre los códigos confirmados con formato V-<n>.
func (r *SaleRepository) LastCodeNumber(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var last int64
	for code := range r.s.saleCodes {
		n, err := strconv.ParseInt(strings.TrimPrefix(code, "V-"), 10, 64)
		if err != nil || !strings.HasPrefix(code, "V-") {
			continue
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}
