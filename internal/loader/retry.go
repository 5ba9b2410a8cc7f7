package loader

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// InitialLoad performs the first non-progressive load. When every region
// fails it retries up to RetryMax times, waiting RetryBaseDelay*n before
// attempt n; the last failure is shown through the View and returned.
func (c *Coordinator) InitialLoad(ctx context.Context) error {
	err := c.Load(ctx, false, false)
	for attempt := 1; err != nil; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > c.opts.RetryMax {
			c.view.ShowError(err)
			return err
		}

		delay := c.opts.RetryBaseDelay * time.Duration(attempt)
		c.logger.Warn("load failed, retrying",
			"attempt", attempt,
			"max_retries", c.opts.RetryMax,
			"delay", delay,
			"error", err,
		)
		c.metrics.LoadRetries.Inc()
		if !sleepWithContext(ctx, c.clock, delay) {
			return ctx.Err()
		}
		err = c.Load(ctx, false, true)
	}
	return nil
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
