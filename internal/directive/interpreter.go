package directive

import (
	"context"
	"time"

	"github.com/iliamunaev/order-chain/internal/apperr"
)

// Apply performs what d asks of service: first the delay, then the failure.
// A nil return means the hop continues with its normal result.
// Callers must check ShouldActHere first.
func Apply(ctx context.Context, d Directive, service string) error {
	if d.Delay {
		if err := wait(ctx, d.DelayDuration()); err != nil {
			return err
		}
	}
	if d.Fail {
		return &apperr.InjectedFailure{Service: service, Status: d.FailureCode}
	}
	return nil
}

// wait suspends for delay unless ctx ends first. A zero delay still reports
// a context that is already done.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
