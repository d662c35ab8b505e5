package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
)

// SweepLocker garantiza que un solo barrido de alertas se ejecute a la vez.
// Acquire devuelve domain.ErrConflict si otro barrido tiene el lock.
type SweepLocker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalSweepLock lock en proceso, usado cuando no hay Redis configurado.
type LocalSweepLock struct {
	mu sync.Mutex
}

// NewLocalSweepLock construye el lock en proceso.
func NewLocalSweepLock() *LocalSweepLock {
	return &LocalSweepLock{}
}

// Acquire intenta tomar el lock sin esperar.
func (l *LocalSweepLock) Acquire(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, fmt.Errorf("%w: barrido de alertas en curso", domain.ErrConflict)
	}
	return l.mu.Unlock, nil
}
