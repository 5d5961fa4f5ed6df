package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

var _ ports.OrderLocker = (*OrderLocker)(nil)

const (
	lockPrefix   = "order-lock:"
	retryBackoff = 50 * time.Millisecond
	releaseWait  = 2 * time.Second
)

// OrderLocker un escritor por orden entre réplicas. El TTL acota cuánto puede
// quedar retenido un bloqueo si el proceso muere sin liberarlo.
type OrderLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewOrderLocker(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *OrderLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrderLocker{locker: redislock.New(rdb), ttl: ttl, log: log}
}

// Lock reintenta hasta obtener la clave o hasta que venza ctx.
// Sin deadline en ctx se rinde tras un TTL de espera y devuelve ErrConflict.
func (l *OrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	retries := int(l.ttl / retryBackoff)
	lock, err := l.locker.Obtain(ctx, lockPrefix+orderID, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		if ctx.Err() != nil {
			return nil, ports.TimeoutErr(ctx.Err())
		}
		return nil, fmt.Errorf("%w: orden %s bloqueada por otra operación", domain.ErrConflict, orderID)
	}
	if err != nil {
		return nil, ports.TimeoutErr(fmt.Errorf("obtain order lock: %w", err))
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseWait)
		defer cancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("order_id", orderID).Msg("liberar bloqueo de orden")
		}
	}, nil
}
