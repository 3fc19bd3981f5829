package billing

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Reprinter re-issues physical tickets for already printed bills. It is a
// single remote call with its own per-order duplicate guard and never touches
// the finalization state machine.
type Reprinter struct {
	backend Backend

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewReprinter creates a Reprinter.
func NewReprinter(backend Backend) *Reprinter {
	return &Reprinter{
		backend:  backend,
		inFlight: make(map[string]struct{}),
	}
}

// Reprint asks the backend to reprint the bill for masterCode. A second call
// while one is in flight returns ErrInFlight. The guard is released on every
// path so the presentation layer can always close its reprint affordance.
func (r *Reprinter) Reprint(ctx context.Context, masterCode string) error {
	r.mu.Lock()
	if _, busy := r.inFlight[masterCode]; busy {
		r.mu.Unlock()
		return ErrInFlight
	}
	r.inFlight[masterCode] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, masterCode)
		r.mu.Unlock()
	}()

	if err := r.backend.ReprintBill(ctx, masterCode); err != nil {
		return errors.Wrap(err, "reprint bill")
	}

	zctx.From(ctx).Info("Bill reprinted", zap.String("master_code", masterCode))
	return nil
}
