package booking

import (
	"context"
	"errors"
	"fmt"
)

// Status is the result of one stage.
type Status int

const (
	Completed Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// FaultKind classifies why a stage did not complete.
type FaultKind int

const (
	NoFault FaultKind = iota
	FaultTimeout
	FaultNotFound
	FaultUnexpected
)

func (k FaultKind) String() string {
	switch k {
	case NoFault:
		return ""
	case FaultTimeout:
		return "timeout"
	case FaultNotFound:
		return "not-found"
	case FaultUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Outcome is what a stage reports back to the pipeline.
type Outcome struct {
	Stage  string
	Status Status
	Kind   FaultKind
	Reason string
	Err    error
	// Fatal stops the pipeline; Err is returned to the caller.
	Fatal bool
}

func completed(reason string) Outcome {
	return Outcome{Status: Completed, Reason: reason}
}

func skipped(reason string, err error) Outcome {
	return Outcome{Status: Skipped, Kind: classify(err), Reason: reason, Err: err}
}

func failed(reason string, err error) Outcome {
	return Outcome{Status: Failed, Kind: classify(err), Reason: reason, Err: err}
}

func classify(err error) FaultKind {
	switch {
	case err == nil:
		return NoFault
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FaultTimeout
	case errors.Is(err, ErrNotFound):
		return FaultNotFound
	}
	return FaultUnexpected
}

// Report is the record of one booking attempt.
type Report struct {
	Center string
	Time   string
	Stages []Outcome
	// Confirmed is set when the final confirmation control was invoked.
	Confirmed    bool
	ConfirmLabel string
	// AppHandoff is set when the site asked to finish in the companion app.
	AppHandoff bool
}

// Outcome returns the recorded outcome of stage, if it ran.
func (r *Report) Outcome(stage string) (Outcome, bool) {
	for _, o := range r.Stages {
		if o.Stage == stage {
			return o, true
		}
	}
	return Outcome{}, false
}
