package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Faultbox/archview/internal/engine/model"
)

// Loader resolves an asset path to a mesh. Load is called on its own goroutine
// and may complete in any order relative to other calls.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Mesh, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (*model.Mesh, error)

// Load calls f(ctx, path).
func (f LoaderFunc) Load(ctx context.Context, path string) (*model.Mesh, error) {
	return f(ctx, path)
}

// Outcome is how a load request was settled.
type Outcome int

// Load outcomes.
const (
	OutcomePending   Outcome = iota
	OutcomeCommitted         // mesh bound to the slot
	OutcomeStale             // superseded by a newer request for the slot, discarded
	OutcomeFailed            // loader error, slot left unchanged
	OutcomeCancelled         // viewer closed before completion
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCommitted:
		return "committed"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// LoadRequest tracks one BindAsset call.
type LoadRequest struct {
	Slot       Slot
	Path       string
	Generation uint64

	once    sync.Once
	done    chan struct{}
	outcome Outcome
	err     error
}

func newLoadRequest(slot Slot, path string, gen uint64) *LoadRequest {
	return &LoadRequest{
		Slot:       slot,
		Path:       path,
		Generation: gen,
		done:       make(chan struct{}),
	}
}

// resolve settles the request; later calls are ignored.
func (r *LoadRequest) resolve(o Outcome, err error) {
	r.once.Do(func() {
		r.outcome = o
		r.err = err
		close(r.done)
	})
}

// Done is closed once the request is settled.
// Settling happens on the frame loop, so do not block on Done from the goroutine that pumps.
func (r *LoadRequest) Done() <-chan struct{} {
	return r.done
}

// Outcome returns the settled outcome, or OutcomePending.
func (r *LoadRequest) Outcome() Outcome {
	select {
	case <-r.done:
		return r.outcome
	default:
		return OutcomePending
	}
}

// Err returns the *LoadError for a failed request, ErrClosed for a cancelled
// one, and nil otherwise.
func (r *LoadRequest) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
