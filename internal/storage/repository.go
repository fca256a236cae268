package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
)

// DefaultTimeout bounds a single store call when none is configured.
const DefaultTimeout = 5 * time.Second

// ErrUnavailable marks transient store failures: timeouts and lost
// connections. The HTTP layer reports them without the driver detail.
var ErrUnavailable = errors.New("store unavailable")

// Store groups data access by domain over one opened backend.
type Store interface {
	Accounts() users.Repository
	Events() events.Repository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// WithTimeout derives the context for one store call.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// Unavailable wraps err as ErrUnavailable while keeping it in the chain.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// ClassifyContext converts context deadline errors into ErrUnavailable and
// leaves everything else alone.
func ClassifyContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err)
	}
	return err
}
