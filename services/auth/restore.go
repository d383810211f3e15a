package auth

import (
	"context"
	"errors"
	"fmt"

	"bookitgy/models"
	"bookitgy/services/api"

	"go.uber.org/zap"
)

// RestoreState is the outcome of a session restore. There is no loading state.
type RestoreState string

const (
	SignedOut RestoreState = "signed_out"
	SignedIn  RestoreState = "signed_in"
	// Unverified means a credential was found but the profile could not be fetched in time.
	Unverified RestoreState = "unverified"
)

// RestoreResult reports what Restore found.
type RestoreResult struct {
	State RestoreState
	User  *models.User
	Err   error // the step failure behind Unverified or SignedOut, if any
}

// Restore loads the persisted credential and the current profile. Each step is bounded by the
// step timeout and the whole restore by the watchdog, so it always returns a final state.
func (s *Service) Restore(ctx context.Context) RestoreResult {
	ctx, cancel := context.WithTimeout(ctx, s.watchdog)
	defer cancel()

	done := make(chan RestoreResult, 1)
	hadToken := make(chan bool, 1)
	go func() { done <- s.restore(ctx, hadToken) }()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		state := SignedOut
		select {
		case found := <-hadToken:
			if found {
				state = Unverified
			}
		default:
		}
		s.logger.Warn("Session restore watchdog fired", zap.String("state", string(state)))
		return RestoreResult{State: state, Err: fmt.Errorf("restore: %w", ctx.Err())}
	}
}

func (s *Service) restore(ctx context.Context, hadToken chan<- bool) RestoreResult {
	loadCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	found, err := runStep(loadCtx, func(ctx context.Context) (bool, error) {
		t, err := s.session.Load(ctx)
		return t != nil, err
	})
	cancel()
	hadToken <- found
	if err != nil {
		return RestoreResult{State: SignedOut, Err: fmt.Errorf("load credentials: %w", err)}
	}
	if !found {
		return RestoreResult{State: SignedOut}
	}

	profileCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	user, err := runStep(profileCtx, s.Me)
	switch {
	case err == nil:
		return RestoreResult{State: SignedIn, User: user}
	case errors.Is(err, api.ErrSessionExpired):
		return RestoreResult{State: SignedOut, Err: err}
	default:
		s.logger.Warn("Profile fetch failed during restore", zap.Error(err))
		return RestoreResult{State: Unverified, Err: err}
	}
}

// runStep runs fn and gives up when ctx ends, even if fn ignores ctx.
func runStep[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
