package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// ErrSearchResultsTimeout is the one stage failure that stops the
// pipeline: the center search never produced a result.
var ErrSearchResultsTimeout = errors.New("center search results did not appear")

// Stage names, in pipeline order.
const (
	StageNavigate = "navigate"
	StageSession  = "verify_session"
	StageCenter   = "select_center"
	StageDate     = "navigate_date"
	StageSlot     = "select_slot"
	StageConfirm  = "confirm"
)

// Request is what one booking attempt is for.
type Request struct {
	// Center is the display name of the center, e.g. "Cult Whitefield".
	Center string
	// Time is the class time as shown on the site, e.g. "07:00 AM".
	Time string
}

// Options configures a Controller. Zero fields take defaults.
type Options struct {
	Sink      Sink
	Logger    *zap.Logger
	Landmarks Landmarks
	Timings   Timings
	Clock     Clock
}

// Controller drives the booking flow against a borrowed Page.
type Controller struct {
	page Page
	sink Sink
	log  *zap.Logger
	lm   Landmarks
	re   compiled
	t    Timings
	w    *Waiter
}

// NewController returns a controller for page. Landmarks and Timings in
// opts are merged over the defaults.
func NewController(page Page, opts Options) (*Controller, error) {
	if page == nil {
		return nil, errors.New("booking: nil page")
	}
	lm := DefaultLandmarks().Merge(opts.Landmarks)
	re, err := lm.compile()
	if err != nil {
		return nil, fmt.Errorf("booking: %w", err)
	}
	c := &Controller{
		page: page,
		sink: opts.Sink,
		log:  opts.Logger,
		lm:   lm,
		re:   re,
		t:    DefaultTimings().Merge(opts.Timings),
	}
	if c.sink == nil {
		c.sink = discardSink{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	c.w = &Waiter{Clock: clock, Poll: c.t.Poll}
	return c, nil
}

// attempt is the state of one Run: the request, its report and a logger
// scoped to it.
type attempt struct {
	*Controller
	req    Request
	report *Report
	log    *zap.Logger
}

func (c *Controller) newAttempt(req Request) *attempt {
	return &attempt{
		Controller: c,
		req:        req,
		report:     &Report{Center: req.Center, Time: req.Time},
		log:        c.log.With(zap.String("center", req.Center), zap.String("time", req.Time)),
	}
}

// Run executes every stage in order. Stage failures are recorded in the
// report and the pipeline moves on; the returned error is non-nil only
// when center search results never appeared or ctx was cancelled.
func (c *Controller) Run(ctx context.Context, req Request) (*Report, error) {
	a := c.newAttempt(req)
	a.log.Info("booking flow started")

	stages := []struct {
		name string
		run  func(context.Context) Outcome
	}{
		{StageNavigate, a.navigate},
		{StageSession, a.verifySession},
		{StageCenter, a.selectCenter},
		{StageDate, a.navigateDate},
		{StageSlot, a.selectSlot},
		{StageConfirm, a.confirm},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			a.log.Warn("booking flow interrupted", zap.String("before", s.name))
			return a.report, err
		}
		o := c.runStage(ctx, s.name, s.run)
		a.report.Stages = append(a.report.Stages, o)
		a.logOutcome(o)
		if o.Fatal {
			return a.report, fmt.Errorf("%s: %w", o.Stage, o.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return a.report, err
	}

	a.log.Info("booking flow completed",
		zap.Bool("confirmed", a.report.Confirmed),
		zap.Bool("app_handoff", a.report.AppHandoff))
	return a.report, nil
}

// runStage converts a panic inside a stage into a Failed outcome so the
// pipeline keeps going.
func (c *Controller) runStage(ctx context.Context, name string, run func(context.Context) Outcome) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = failed("unexpected fault", fmt.Errorf("panic: %v", r))
		}
		o.Stage = name
	}()
	return run(ctx)
}

func (a *attempt) logOutcome(o Outcome) {
	fields := []zap.Field{
		zap.String("stage", o.Stage),
		zap.Stringer("status", o.Status),
		zap.String("reason", o.Reason),
	}
	if o.Kind != NoFault {
		fields = append(fields, zap.Stringer("kind", o.Kind))
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	switch o.Status {
	case Completed:
		a.log.Info("stage done", fields...)
	case Skipped:
		a.log.Warn("stage skipped", fields...)
	default:
		a.log.Error("stage failed", fields...)
	}
}

func (a *attempt) stageLog(stage string) *zap.Logger {
	return a.log.With(zap.String("stage", stage))
}

func visible(el Element) bool {
	ok, err := el.IsVisible()
	return err == nil && ok
}

// containsFold matches s anywhere, ignoring case.
func containsFold(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}
