package memory_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Farmacia-api/internal/domain"
	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// KeyedLocker
// ──────────────────────────────────────────────────────────────────────────────

func TestKeyedLocker_UnSoloDuenoPorClave(t *testing.T) {
	l := memory.NewKeyedLocker()
	var inside, maxInside int32

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			release, err := l.Lock(context.Background(), "ord-1")
			if err != nil {
				return err
			}
			defer release()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), maxInside, "nunca debe haber dos dueños a la vez")
}

func TestKeyedLocker_DeadlineVencidoEsTimeout(t *testing.T) {
	l := memory.NewKeyedLocker()
	release, err := l.Lock(context.Background(), "ord-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "ord-1")
	assert.True(t, errors.Is(err, domain.ErrTimeout), "got %v", err)

	other, err := l.Lock(context.Background(), "ord-2")
	require.NoError(t, err, "otra clave no espera")
	other()
}

// ──────────────────────────────────────────────────────────────────────────────
// EventRecorder
// ──────────────────────────────────────────────────────────────────────────────

func TestEventRecorder_GuardaEnOrdenYDevuelveErr(t *testing.T) {
	rec := &memory.EventRecorder{}
	require.NoError(t, rec.Publish(context.Background(), event.TransferApproved{TransferID: "t-1"}))

	rec.Err = errors.New("broker caído")
	err := rec.Publish(context.Background(), event.TransferCompleted{TransferID: "t-1"})
	assert.Error(t, err)

	assert.Equal(t, []string{event.NameTransferApproved, event.NameTransferCompleted}, rec.Names())
	assert.Len(t, rec.Events(), 2)
}
