package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Scheduler wakes the run at a precise wall-clock time, for booking
// windows that open on the minute.
type Scheduler struct {
	// SpinDuration is the duration before target time to switch from sleeping to busy-waiting.
	// Default: 5ms
	SpinDuration time.Duration
}

// NewScheduler creates a new Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		SpinDuration: 5 * time.Millisecond,
	}
}

// NextOccurrence returns the next time at or after now whose clock reads
// hhmmss ("15:04:05" or "15:04"), in now's location.
func NextOccurrence(now time.Time, hhmmss string) (time.Time, error) {
	var t time.Time
	var err error
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err = time.Parse(layout, hhmmss); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse wake time %q: want HH:MM[:SS]", hhmmss)
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target, nil
}

// SleepUntil blocks until target. It sleeps for the bulk of the wait and
// busy-waits the final SpinDuration to remove scheduler jitter. Returns
// the drift (actual wake time - target time), or ctx's error if it was
// cancelled first.
func (s *Scheduler) SleepUntil(ctx context.Context, target time.Time) (time.Duration, error) {
	now := time.Now()
	if !now.Before(target) {
		return now.Sub(target), nil
	}

	if remaining := target.Sub(now); remaining > s.SpinDuration {
		timer := time.NewTimer(remaining - s.SpinDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	for {
		now = time.Now()
		if !now.Before(target) {
			break
		}
	}
	return now.Sub(target), nil
}

// LogDrift reports how far the wake landed from target.
func (s *Scheduler) LogDrift(log *zap.Logger, drift time.Duration) {
	fields := []zap.Field{zap.Int64("drift_us", drift.Microseconds())}
	if drift > time.Millisecond {
		log.Warn("precision wake drifted", fields...)
		return
	}
	log.Info("precision wake", fields...)
}
