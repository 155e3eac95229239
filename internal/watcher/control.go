package watcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Controller exposes start, stop and exit to a front end and guarantees at
// most one running loop.
type Controller struct {
	loop   *Loop
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	state atomic.Int32 // LoopState

	// mu hands the stop and done channels between Start, Stop and Wait.
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewController wraps loop. Cancelling ctx, or calling Exit, aborts an
// in-flight pass; Stop never does.
func NewController(ctx context.Context, loop *Loop, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Controller{loop: loop, ctx: ctx, cancel: cancel, log: logger}
}

// State returns the current lifecycle state.
func (c *Controller) State() LoopState {
	return LoopState(c.state.Load())
}

// Start launches the loop on its own goroutine. It returns false, doing
// nothing, unless the loop is Idle.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx.Err() != nil {
		return false
	}
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return false
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go func() {
		defer close(done)
		defer c.state.Store(int32(Idle))
		c.loop.Run(c.ctx, stop)
	}()
	c.log.Debug("watcher started")
	return true
}

// Stop asks a running loop to finish. The current pass completes; the wait
// before the next one is cut short. It returns false, doing nothing, unless
// the loop is Running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.CompareAndSwap(int32(Running), int32(StopRequested)) {
		return false
	}
	close(c.stop)
	c.log.Debug("watcher stop requested")
	return true
}

// Wait blocks until no loop goroutine is live.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Exit stops the loop, aborts any in-flight pass and waits for the loop
// goroutine to return. The controller cannot be started again.
func (c *Controller) Exit() {
	c.Stop()
	c.cancel()
	c.Wait()
}

// Status returns a consistent snapshot of loop state and counters.
func (c *Controller) Status() Status {
	return c.loop.status.snapshot(c.State())
}
