package loader

import (
	"context"
	"errors"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

// Refresh reloads every region fresh-first. Calls closer together than the
// debounce window return ErrRefreshThrottled. Failures are shown
// immediately and not retried.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.limiter.Allow() {
		return ErrRefreshThrottled
	}
	if err := c.Load(ctx, true, false); err != nil {
		c.view.ShowError(err)
		return err
	}
	return nil
}

// Run handles background updates, date selections, and periodic refreshes
// until ctx is cancelled or the bus is closed.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("coordinator started", "refresh_interval", c.opts.RefreshInterval)

	ticker := c.clock.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopping", "reason", ctx.Err())
			return nil
		case ev, ok := <-c.updates:
			if !ok {
				return nil
			}
			c.handleDataUpdated(ctx, ev.Region)
		case ev, ok := <-c.dates:
			if !ok {
				return nil
			}
			c.handleDateSelected(ctx, ev.Date)
		case <-ticker.Chan():
			if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshThrottled) {
				c.logger.Error("auto refresh failed", "error", err)
			}
		}
	}
}

func (c *Coordinator) handleDataUpdated(ctx context.Context, region domain.Region) {
	res := c.LoadRegion(ctx, region, false)
	if !res.Success {
		c.logger.Error("failed to apply background update", "region", region, "error", res.Err)
		return
	}
	c.store(region, res.Data)
	if res.HasChanged {
		c.publish(ctx, region, res.Data)
	}

	if region != c.ActiveRegion() {
		return
	}
	c.view.Render(region, res.Data)
	if res.HasChanged {
		c.view.NotifyUpdated()
	}
}

func (c *Coordinator) handleDateSelected(ctx context.Context, date string) {
	lookup, err := c.LoadForDate(ctx, c.ActiveRegion(), date)
	if err != nil {
		c.logger.Warn("date lookup failed", "date", date, "error", err)
		c.view.ShowError(err)
		return
	}
	c.view.ShowDate(lookup)
}
