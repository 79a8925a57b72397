package carrier

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Delivery is the completion handle for one submission. It is created
// by Send and completed exactly once, from the dispatching goroutine.
// Dropping all references to a Delivery does not cancel the submission;
// delivery proceeds regardless.
//
// Delivery offers both a future-style surface (Done + Err) and an
// awaitable one (Wait); they are two spellings of the same completion.
type Delivery struct {
	id ulid.ULID

	once sync.Once
	err  error
	done chan struct{}
}

func newDelivery() *Delivery {
	return &Delivery{
		id:   ulid.Make(),
		done: make(chan struct{}),
	}
}

// ID returns the submission's unique identity.
func (d *Delivery) ID() string {
	return d.id.String()
}

// Done returns a channel closed when the submission completes, whether
// it succeeded or failed.
func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

// Err returns the submission outcome. It must only be consulted after
// Done is closed; before that it returns nil.
func (d *Delivery) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until the submission completes or ctx is done, returning
// the submission outcome or the context error.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete resolves the delivery. Later calls are no-ops.
func (d *Delivery) complete(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}
