package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var (
	_ repository.SequenceGenerator = (*Sequence)(nil)
	_ repository.SequenceSeeder    = (*Sequence)(nil)
)

// Sequence secuencias en proceso (sin Redis ni Postgres).
type Sequence struct {
	mu sync.Mutex
	m  map[string]int64
}

// NewSequence crea el generador con todas las secuencias en cero.
func NewSequence() *Sequence {
	return &Sequence{m: make(map[string]int64)}
}

// Next incrementa y devuelve el siguiente valor de name.
func (s *Sequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name]++
	return s.m[name], nil
}

// Set fija el último valor emitido de name.
func (s *Sequence) Set(name string, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = v
}

// Seed sube el último valor de name a last; si ya es mayor o igual no cambia.
func (s *Sequence) Seed(_ context.Context, name string, last int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[name] < last {
		s.m[name] = last
	}
	return nil
}
