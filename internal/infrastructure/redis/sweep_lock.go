package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jhoicas/boutique-backoffice/internal/application/alerts"
	"github.com/jhoicas/boutique-backoffice/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

var _ alerts.SweepLocker = (*SweepLock)(nil)

const sweepLockKey = keyPrefix + "lock:alert-sweep"

// SweepLock lock distribuido del barrido de alertas: una sola réplica barre a la vez.
type SweepLock struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewSweepLock construye el lock. ttl acota cuánto puede retenerlo un barrido caído.
func NewSweepLock(client goredis.UniversalClient, ttl time.Duration) *SweepLock {
	return &SweepLock{locker: redislock.New(client), ttl: ttl}
}

// Acquire intenta tomar el lock sin reintentos. Ocupado -> domain.ErrConflict.
func (l *SweepLock) Acquire(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, sweepLockKey, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: barrido de alertas en curso en otra instancia", domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
