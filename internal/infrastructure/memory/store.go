package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// Store almacenamiento en memoria con transacciones reales: las escrituras de una tx se
// preparan aparte y solo se publican en Commit. Los bloqueos por clave imitan SELECT FOR UPDATE.
type Store struct {
	mu sync.RWMutex

	products  map[string]*entity.Product
	movements []*entity.Movement
	sales     map[string]*entity.Sale
	saleCodes map[string]string
	saleIDs   []string
	returns   map[string]*entity.Return
	returnIDs []string
	alerts    map[string]*entity.Alert
	alertIDs  []string
	orders    map[string]*entity.ReplenishmentOrder
	orderIDs  []string
	lineIndex map[string]string // línea de reposición -> orden

	locks       *keyLocks
	lockTimeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout es la espera máxima por un bloqueo (ErrConflict al vencer).
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		products:    make(map[string]*entity.Product),
		sales:       make(map[string]*entity.Sale),
		saleCodes:   make(map[string]string),
		returns:     make(map[string]*entity.Return),
		alerts:      make(map[string]*entity.Alert),
		orders:      make(map[string]*entity.ReplenishmentOrder),
		lineIndex:   make(map[string]string),
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
	}
}

// PutProduct inserta o reemplaza un producto del catálogo (siembra y tests).
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
}

// TxRunner devuelve el ejecutor de transacciones del almacén.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{s: s} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() *SaleRepository { return &SaleRepository{s: s} }

// Returns repositorio de devoluciones fuera de transacción.
func (s *Store) Returns() *ReturnRepository { return &ReturnRepository{s: s} }

// Replenishments repositorio de reposición fuera de transacción.
func (s *Store) Replenishments() *ReplenishmentRepository { return &ReplenishmentRepository{s: s} }

// Alerts repositorio de alertas (siempre fuera de transacción).
func (s *Store) Alerts() *AlertRepository { return &AlertRepository{s: s} }

// ── bloqueos por clave ────────────────────────────────────────────────────────

type keyLocks struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[string]chan struct{})}
}

func (k *keyLocks) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.m[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.m[key] = ch
	}
	return ch
}

func (k *keyLocks) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case k.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: tiempo de espera agotado bloqueando %s", domain.ErrConflict, key)
	}
}

func (k *keyLocks) release(key string) {
	<-k.slot(key)
}

// ── copias ────────────────────────────────────────────────────────────────────

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func cloneSale(s *entity.Sale) *entity.Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.Lines = append([]entity.SaleLine(nil), s.Lines...)
	if s.AnnulledAt != nil {
		t := *s.AnnulledAt
		c.AnnulledAt = &t
	}
	return &c
}

func cloneReturn(r *entity.Return) *entity.Return {
	if r == nil {
		return nil
	}
	c := *r
	c.Lines = append([]entity.ReturnLine(nil), r.Lines...)
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func cloneAlert(a *entity.Alert) *entity.Alert {
	c := *a
	if a.ReadAt != nil {
		t := *a.ReadAt
		c.ReadAt = &t
	}
	return &c
}

func cloneOrder(o *entity.ReplenishmentOrder) *entity.ReplenishmentOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]entity.ReplenishmentLine(nil), o.Lines...)
	return &c
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
