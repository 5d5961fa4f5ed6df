package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Farmacia-api/internal/domain"
)

// WithTimeout acota la unidad de trabajo; si el caller trae un deadline menor, gana el suyo.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// TimeoutErr traduce la expiración del contexto a domain.ErrTimeout.
func TimeoutErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
