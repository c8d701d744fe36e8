package booking

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a bounded wait gives up.
	ErrTimeout = errors.New("timed out waiting for condition")
	// ErrNotFound is returned when a query matched nothing.
	ErrNotFound = errors.New("element not found")
)

// Clock is the time source for waits and settle delays.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by the system time.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Waiter polls a condition until it holds or a timeout expires.
type Waiter struct {
	Clock Clock
	Poll  time.Duration
}

// Until polls cond every w.Poll until it returns true, the timeout
// elapses (ErrTimeout) or ctx is done. cond is always evaluated at least
// once, so a zero timeout is an instantaneous check.
func (w *Waiter) Until(ctx context.Context, timeout time.Duration, cond func() bool) error {
	deadline := w.Clock.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.Clock.Now().Before(deadline) {
			return ErrTimeout
		}
		step := w.Poll
		if left := deadline.Sub(w.Clock.Now()); left < step {
			step = left
		}
		if err := w.Clock.Sleep(ctx, step); err != nil {
			return err
		}
	}
}

// Visible waits for el to be visible.
func (w *Waiter) Visible(ctx context.Context, el Element, timeout time.Duration) error {
	return w.Until(ctx, timeout, func() bool {
		ok, err := el.IsVisible()
		return err == nil && ok
	})
}

// Hidden waits for el to be hidden or detached.
func (w *Waiter) Hidden(ctx context.Context, el Element, timeout time.Duration) error {
	return w.Until(ctx, timeout, func() bool {
		ok, err := el.IsVisible()
		return err == nil && !ok
	})
}

// Attached waits for el to match at least one node.
func (w *Waiter) Attached(ctx context.Context, el Element, timeout time.Duration) error {
	return w.AtLeast(ctx, el, 1, timeout)
}

// AtLeast waits for el to match at least n nodes.
func (w *Waiter) AtLeast(ctx context.Context, el Element, n int, timeout time.Duration) error {
	return w.Until(ctx, timeout, func() bool {
		c, err := el.Count()
		return err == nil && c >= n
	})
}

// Settle sleeps for d so the client-side app can finish rendering.
func (w *Waiter) Settle(ctx context.Context, d time.Duration) error {
	return w.Clock.Sleep(ctx, d)
}

// FirstVisible waits until any match of el is visible and returns it.
func (w *Waiter) FirstVisible(ctx context.Context, el Element, timeout time.Duration) (Element, error) {
	var found Element
	err := w.Until(ctx, timeout, func() bool {
		n, err := el.Count()
		if err != nil {
			return false
		}
		for i := 0; i < n; i++ {
			cand := el.Nth(i)
			if ok, err := cand.IsVisible(); err == nil && ok {
				found = cand
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
