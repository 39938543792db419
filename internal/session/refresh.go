package session

import (
	"context"
	"time"
)

// startRefresh launches the refresh task unless one is already running. The
// task belongs to the controller, not to the caller's context.
func (c *Controller) startRefresh() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.closed || c.cancelRefresh != nil || c.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancelRefresh = cancel
	c.refreshDone = done

	go c.refreshLoop(ctx, done)
}

// stopRefresh cancels the refresh task and waits for it. An in-flight
// refresh sees its context cancelled and its result is dropped.
func (c *Controller) stopRefresh() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.cancelRefresh == nil {
		return
	}

	c.cancelRefresh()
	<-c.refreshDone
	c.cancelRefresh = nil
	c.refreshDone = nil
}

// refreshLoop ticks sequentially, so a refresh never starts before the
// previous one settled.
func (c *Controller) refreshLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}
