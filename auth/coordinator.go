package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single rotation attempt. Waiters are released
// with a timeout failure rather than blocking indefinitely.
const DefaultRefreshTimeout = 10 * time.Second

// rotateFunc performs one full rotation: verify, revoke the consumed token,
// mint a new pair, persist it. It must only return after the ledger write.
type rotateFunc func(ctx context.Context, refreshToken string) (*TokenPair, error)

// Coordinator serializes refresh attempts per refresh-token value. When N
// concurrent callers present the same token, exactly one executes the rotation;
// the rest suspend on the in-flight call and receive the identical result or
// the identical failure. Tokens that differ never block each other.
type Coordinator struct {
	group   singleflight.Group
	rotate  rotateFunc
	timeout time.Duration
}

// NewCoordinator wires the rotation executor behind the single-flight gate.
func NewCoordinator(rotate rotateFunc, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Coordinator{
		rotate:  rotate,
		timeout: timeout,
	}
}

// Refresh runs the rotation for refreshToken at most once concurrently. A caller
// whose own context is cancelled is released immediately; the in-flight rotation
// continues for the remaining waiters, bounded by the coordinator's timeout.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ch := c.group.DoChan(refreshToken, func() (interface{}, error) {
		// The executor runs on its own deadline, detached from any single
		// caller's context: waiters share the flight, so one caller hanging up
		// must not fail the rest.
		execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		pair, err := c.rotate(execCtx, refreshToken)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrRefreshTimeout
			}
			return nil, err
		}
		return pair, nil
	})

	select {
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*TokenPair), nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "[Coordinator.Refresh] caller context done")
	}
}
