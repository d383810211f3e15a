package mutation

import (
	"context"

	"go.uber.org/zap"
)

// Phase is the state of one mutation.
type Phase string

const (
	Pending    Phase = "pending"
	Confirmed  Phase = "confirmed"
	RolledBack Phase = "rolled_back"
	Reconciled Phase = "reconciled"
)

// Mutation describes one keyed change against the API.
//
// Send performs the request. Confirm merges a successful result into local state. Rollback
// restores local state after a failure. When Authoritative reports that the result carries the
// final value, the mutation is reconciled directly; otherwise Refetch reloads the affected state.
type Mutation[T any] struct {
	Key           string
	Send          func(ctx context.Context) (T, error)
	Confirm       func(result T)
	Rollback      func(err error)
	Authoritative func(result T) bool
	Refetch       func(ctx context.Context) error
}

// Outcome is the final state of a mutation that was sent.
type Outcome[T any] struct {
	Result T
	Phase  Phase
	// RefetchErr is set when the reconcile refetch failed. The mutation itself still succeeded.
	RefetchErr error
}

// Coordinator runs mutations under a per-key in-flight guard.
type Coordinator struct {
	registry *Registry
	logger   *zap.Logger
}

func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.L()
	}
	return &Coordinator{registry: NewRegistry(), logger: logger}
}

// InFlight reports whether a mutation for key is outstanding.
func (c *Coordinator) InFlight(key string) bool { return c.registry.InFlight(key) }

// Keys returns the keys with an outstanding mutation, in no particular order.
func (c *Coordinator) Keys() []string { return c.registry.Keys() }

// Hold acquires key outside of Run, for operations that guard a whole collection.
func (c *Coordinator) Hold(key string) (release func(), err error) {
	release, ok := c.registry.TryAcquire(key)
	if !ok {
		return nil, ErrInFlight
	}
	return release, nil
}

// Run executes m: pending, then confirmed or rolled back, then reconciled. A concurrent Run
// with the same key returns ErrInFlight without calling Send. Reconcile runs before Run returns
// and the key is held until it finishes.
func Run[T any](ctx context.Context, c *Coordinator, m Mutation[T]) (Outcome[T], error) {
	release, ok := c.registry.TryAcquire(m.Key)
	if !ok {
		c.logger.Debug("Mutation already in flight", zap.String("key", m.Key))
		return Outcome[T]{}, ErrInFlight
	}
	defer release()

	out := Outcome[T]{Phase: Pending}
	result, err := m.Send(ctx)
	if err != nil {
		out.Phase = RolledBack
		if m.Rollback != nil {
			m.Rollback(err)
		}
		c.logger.Debug("Mutation rolled back", zap.String("key", m.Key), zap.Error(err))
		return out, err
	}

	out.Result = result
	out.Phase = Confirmed
	if m.Confirm != nil {
		m.Confirm(result)
	}

	if m.Authoritative != nil && m.Authoritative(result) {
		out.Phase = Reconciled
		return out, nil
	}
	if m.Refetch == nil {
		return out, nil
	}
	if err := m.Refetch(ctx); err != nil {
		c.logger.Warn("Reconcile refetch failed", zap.String("key", m.Key), zap.Error(err))
		out.RefetchErr = err
		return out, nil
	}
	out.Phase = Reconciled
	return out, nil
}
