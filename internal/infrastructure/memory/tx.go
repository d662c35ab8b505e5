package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/boutique-backoffice/internal/application/inventory"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta fn con repositorios atados a una tx en memoria.
// Commit si fn devuelve nil; en otro caso se descartan las escrituras preparadas.
type TxRunner struct {
	s *Store
}

// Run implementa inventory.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.TxRepos) error) error {
	tx := newTx(r.s)
	defer tx.releaseLocks()
	if err := fn(ctx, tx.repos()); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	s    *Store
	held map[string]bool
	keys []string

	products  map[string]*entity.Product
	movements []*entity.Movement
	sales     map[string]*entity.Sale
	newSales  []string
	returns   map[string]*entity.Return
	newRets   []string
	orders    map[string]*entity.ReplenishmentOrder
	newOrders []string
}

func newTx(s *Store) *memTx {
	return &memTx{
		s:        s,
		held:     make(map[string]bool),
		products: make(map[string]*entity.Product),
		sales:    make(map[string]*entity.Sale),
		returns:  make(map[string]*entity.Return),
		orders:   make(map[string]*entity.ReplenishmentOrder),
	}
}

func (tx *memTx) repos() inventory.TxRepos {
	return inventory.TxRepos{
		Products:       &ProductRepository{s: tx.s, tx: tx},
		Movements:      &MovementRepository{s: tx.s, tx: tx},
		Sales:          &SaleRepository{s: tx.s, tx: tx},
		Returns:        &ReturnRepository{s: tx.s, tx: tx},
		Replenishments: &ReplenishmentRepository{s: tx.s, tx: tx},
	}
}

// lock bloquea key hasta el fin de la tx. Reentrante dentro de la misma tx.
func (tx *memTx) lock(ctx context.Context, key string) error {
	if tx.held[key] {
		return nil
	}
	if err := tx.s.locks.acquire(ctx, key, tx.s.lockTimeout); err != nil {
		return err
	}
	tx.held[key] = true
	tx.keys = append(tx.keys, key)
	return nil
}

func (tx *memTx) releaseLocks() {
	for _, k := range tx.keys {
		tx.s.locks.release(k)
	}
	tx.keys = nil
	tx.held = map[string]bool{}
}

func (tx *memTx) commit() error {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tx.newSales {
		code := tx.sales[id].Code
		if owner, ok := s.saleCodes[code]; ok && owner != id {
			return fmt.Errorf("%w: código de venta %s", domain.ErrDuplicate, code)
		}
	}

	for id, p := range tx.products {
		s.products[id] = p
	}
	s.movements = append(s.movements, tx.movements...)
	for _, id := range tx.newSales {
		s.saleIDs = append(s.saleIDs, id)
		s.saleCodes[tx.sales[id].Code] = id
	}
	for id, sale := range tx.sales {
		s.sales[id] = sale
	}
	s.returnIDs = append(s.returnIDs, tx.newRets...)
	for id, r := range tx.returns {
		s.returns[id] = r
	}
	for _, id := range tx.newOrders {
		s.orderIDs = append(s.orderIDs, id)
		for _, l := range tx.orders[id].Lines {
			s.lineIndex[l.ID] = id
		}
	}
	for id, o := range tx.orders {
		s.orders[id] = o
	}
	return nil
}

// autocommit ejecuta una escritura fuera de tx como una tx de una sola operación.
func (s *Store) autocommit(ctx context.Context, fn func(tx *memTx) error) error {
	tx := newTx(s)
	defer tx.releaseLocks()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}
