package booking

import "go.uber.org/zap"

// Sink receives diagnostic screenshots named after the stage or failure
// that produced them.
type Sink interface {
	Capture(name string, png []byte) error
}

// SnapshotSink is implemented by sinks that also keep the page HTML next
// to a screenshot.
type SnapshotSink interface {
	Snapshot(name, html string) error
}

type discardSink struct{}

func (discardSink) Capture(string, []byte) error { return nil }

// Diagnostic names emitted by the flow.
const (
	DiagSearchTimeout = "search_results_timeout_text"
	DiagNoDates       = "no_dates_found"
	DiagNoSlot        = "no_slot_found"
	DiagRowNoClass    = "row_found_no_class"
	DiagBookingError  = "booking_error"
	DiagPreConfirm    = "pre_confirm_js"
	DiagPostConfirm   = "post_confirm_js"
	DiagErrorCapture  = "error_capture"
)

// capture takes a screenshot of the page and hands it to the sink. It is
// best effort: failures are logged, never returned.
func (a *attempt) capture(name string) {
	png, err := a.page.Screenshot()
	if err != nil {
		a.log.Warn("screenshot failed", zap.String("name", name), zap.Error(err))
		return
	}
	if err := a.sink.Capture(name, png); err != nil {
		a.log.Warn("diagnostic capture failed", zap.String("name", name), zap.Error(err))
		return
	}
	if snap, ok := a.sink.(SnapshotSink); ok {
		if html, err := a.page.Content(); err == nil {
			if err := snap.Snapshot(name, html); err != nil {
				a.log.Warn("html snapshot failed", zap.String("name", name), zap.Error(err))
			}
		}
	}
	a.log.Info("diagnostic captured", zap.String("name", name))
}

// CaptureDiagnostic captures name from page into sink outside of a run;
// the process boundary uses it for its final error capture.
func CaptureDiagnostic(page Page, sink Sink, name string) error {
	png, err := page.Screenshot()
	if err != nil {
		return err
	}
	if err := sink.Capture(name, png); err != nil {
		return err
	}
	if snap, ok := sink.(SnapshotSink); ok {
		if html, err := page.Content(); err == nil {
			return snap.Snapshot(name, html)
		}
	}
	return nil
}
