package sensor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State describes where the controller is in its acquisition lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StatePermissionCheck State = "permission_check"
	StateAcquiring       State = "acquiring"
	StateReady           State = "ready"
	StateDenied          State = "denied"
	StateTimeout         State = "timeout"
	StateError           State = "error"
)

const (
	// ReadyAccuracyM is the horizontal accuracy a fix must reach before the
	// controller reports ready and a session may launch.
	ReadyAccuracyM = 25.0

	// FallbackAccuracyM is stamped on synthesized fallback fixes.
	FallbackAccuracyM = 100.0

	firstFixTimeout = 15 * time.Second
	maxRefreshes    = 3
)

// Controller owns the sensor subscription for one session. It absorbs
// permission, timeout and hardware failures into its own state and always
// leaves consumers with a position to render: every failure path emits a
// fallback fix at the configured reference coordinate.
type Controller struct {
	src Source

	mu           sync.Mutex
	state        State
	latest       *Fix
	retries      int
	timer        *time.Timer
	gotFix       bool
	cancel       context.CancelFunc
	out          chan Fix
	fallback     Fix
	firstFixWait time.Duration
}

func NewController(src Source, fallbackLat, fallbackLng float64) *Controller {
	return &Controller{
		src:   src,
		state: StateIdle,
		out:   make(chan Fix, 16),
		fallback: Fix{
			Lat:       fallbackLat,
			Lng:       fallbackLng,
			AccuracyM: FallbackAccuracyM,
			Source:    SourceNetworkFallback,
		},
		firstFixWait: firstFixTimeout,
	}
}

// Start begins acquisition. Permission and hardware failures are never
// returned to the caller; they degrade the controller state instead.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	c.state = StatePermissionCheck
	c.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := c.src.Subscribe(subCtx)
	if err != nil {
		cancel()
		c.degrade(stateForError(err))
		return
	}

	c.mu.Lock()
	c.cancel = cancel
	c.state = StateAcquiring
	c.gotFix = false
	c.timer = time.AfterFunc(c.firstFixWait, c.onFirstFixTimeout)
	c.mu.Unlock()

	go c.consume(subCtx, ch)
}

// Refresh restarts acquisition after a failure, up to a budget of
// maxRefreshes. Beyond the budget it is a no-op.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.retries >= maxRefreshes {
		c.mu.Unlock()
		return
	}
	c.retries++
	cancel := c.cancel
	c.cancel = nil
	c.stopTimerLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.Start(ctx)
}

// Stop releases the subscription and the first-fix timer synchronously. The
// controller must not be reused for another session afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.stopTimerLocked()
	c.state = StateIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = c.src.Close()
}

// Fixes is the bounded feed of emitted fixes. Slow consumers lose fixes
// rather than block the sensor path.
func (c *Controller) Fixes() <-chan Fix {
	return c.out
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Latest returns the most recently emitted fix, fallback fixes included.
func (c *Controller) Latest() (Fix, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Fix{}, false
	}
	return *c.latest, true
}

// CanStart is the launch gate: an accurate real fix has been acquired.
func (c *Controller) CanStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady && c.latest != nil && c.latest.AccuracyM <= ReadyAccuracyM
}

func (c *Controller) RefreshesLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maxRefreshes - c.retries
}

func (c *Controller) consume(ctx context.Context, ch <-chan Fix) {
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return
			}
			c.handleFix(f)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) handleFix(f Fix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return
	}
	if !c.gotFix {
		c.gotFix = true
		c.stopTimerLocked()
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	if f.Source == "" {
		f.Source = SourceSensor
	}
	c.latest = &f
	if f.AccuracyM <= ReadyAccuracyM {
		c.state = StateReady
	} else {
		// coarse fixes keep consumers informed but do not unblock launch
		c.state = StateAcquiring
	}
	c.emitLocked(f)
}

func (c *Controller) onFirstFixTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gotFix || c.state != StateAcquiring {
		return
	}
	c.state = StateTimeout
	f := c.fallback
	f.Timestamp = time.Now()
	c.latest = &f
	c.emitLocked(f)
}

func (c *Controller) degrade(next State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = next
	f := c.fallback
	f.Timestamp = time.Now()
	c.latest = &f
	c.emitLocked(f)
}

func (c *Controller) emitLocked(f Fix) {
	select {
	case c.out <- f:
	default:
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func stateForError(err error) State {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return StateDenied
	case errors.Is(err, context.DeadlineExceeded):
		return StateTimeout
	default:
		return StateError
	}
}
