package client

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSafetyTriggered is returned once the site has signalled that it is
// refusing us; the run must stop before the browser touches it.
var ErrSafetyTriggered = errors.New("safety trigger active")

// SafetyManager watches preflight responses for ban signals.
type SafetyManager struct {
	mu            sync.RWMutex
	Triggered     bool
	TriggerReason string
	TriggeredAt   time.Time

	// Thresholds
	MaxConsecutiveErrors int
	ErrorCount           int

	log *zap.Logger
	now func() time.Time
}

// NewSafetyManager creates a new SafetyManager.
func NewSafetyManager() *SafetyManager {
	return &SafetyManager{
		MaxConsecutiveErrors: 5,
		log:                  zap.NewNop(),
		now:                  time.Now,
	}
}

// WithLogger sets the logger used when the trigger is pulled.
func (sm *SafetyManager) WithLogger(log *zap.Logger) *SafetyManager {
	if log != nil {
		sm.log = log
	}
	return sm
}

// CheckResponse inspects a response for ban signals (403, 429, a run of
// 5xx). Returns true if safe to proceed.
func (sm *SafetyManager) CheckResponse(resp *http.Response) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.Triggered {
		return false
	}

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		sm.triggerLocked(fmt.Sprintf("HTTP %d detected", resp.StatusCode))
		return false
	case resp.StatusCode >= 500:
		sm.ErrorCount++
		if sm.ErrorCount >= sm.MaxConsecutiveErrors {
			sm.triggerLocked("too many consecutive 5xx errors")
			return false
		}
	case resp.StatusCode < 400:
		sm.ErrorCount = 0
	}
	return true
}

// CheckError counts a transport failure. Network errors alone never pull
// the trigger, but they do count towards the 5xx run.
func (sm *SafetyManager) CheckError(err error) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.ErrorCount++
	sm.log.Debug("probe transport error", zap.Error(err), zap.Int("consecutive", sm.ErrorCount))
	return !sm.Triggered
}

func (sm *SafetyManager) triggerLocked(reason string) {
	if !sm.Triggered {
		sm.Triggered = true
		sm.TriggerReason = reason
		sm.TriggeredAt = sm.now()
		sm.log.Error("safety trigger activated", zap.String("reason", reason))
	}
}

// IsTriggered reports whether the trigger has been pulled.
func (sm *SafetyManager) IsTriggered() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.Triggered
}

// Err returns nil while it is safe to proceed, else an error wrapping
// ErrSafetyTriggered with the reason.
func (sm *SafetyManager) Err() error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if !sm.Triggered {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSafetyTriggered, sm.TriggerReason)
}
