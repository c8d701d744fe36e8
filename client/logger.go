package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"cult-booker/booking"
)

// StageLog is one stage row of the run report.
type StageLog struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// RunReport holds everything the end-of-run summary prints and the
// structured log records.
type RunReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Center        string `json:"center"`
	Time          string `json:"time"`
	ExecutionMode string `json:"execution_mode"`
	Network       string `json:"network"`
	UserAgent     string `json:"user_agent"`

	// Scheduler, zero when the run was not scheduled
	WakeTarget time.Time     `json:"wake_target,omitempty"`
	WakeDrift  time.Duration `json:"wake_drift,omitempty"`

	Probe *ProbeResult `json:"probe,omitempty"`

	Stages       []StageLog `json:"stages"`
	Confirmed    bool       `json:"confirmed"`
	ConfirmLabel string     `json:"confirm_label,omitempty"`
	AppHandoff   bool       `json:"app_handoff"`
	Error        string     `json:"error,omitempty"`
}

// Record copies the controller's report (which may be nil) and the run
// error into r.
func (r *RunReport) Record(report *booking.Report, err error) {
	if report != nil {
		r.Stages = r.Stages[:0]
		for _, o := range report.Stages {
			row := StageLog{
				Stage:  o.Stage,
				Status: o.Status.String(),
				Kind:   o.Kind.String(),
				Reason: o.Reason,
			}
			if o.Err != nil {
				row.Error = o.Err.Error()
			}
			r.Stages = append(r.Stages, row)
		}
		r.Confirmed = report.Confirmed
		r.ConfirmLabel = report.ConfirmLabel
		r.AppHandoff = report.AppHandoff
	}
	if err != nil {
		r.Error = err.Error()
	}
}

// Result is the one-word verdict of the run.
func (r *RunReport) Result() string {
	switch {
	case r.Error != "":
		return "ABORTED"
	case r.Confirmed:
		return "SUCCESS"
	case r.AppHandoff:
		return "APP HANDOFF"
	}
	return "NOT CONFIRMED"
}

// PrintRunReport writes the colored human summary of a run to w.
func PrintRunReport(w io.Writer, r *RunReport) {
	headerColor := color.New(color.FgHiCyan, color.Bold).SprintFunc()
	sectionColor := color.New(color.FgHiYellow).SprintFunc()
	labelColor := color.New(color.FgWhite).SprintFunc()
	valueColor := color.New(color.FgHiWhite).SprintFunc()
	successColor := color.New(color.FgGreen, color.Bold).SprintFunc()
	warnColor := color.New(color.FgYellow).SprintFunc()
	errorColor := color.New(color.FgRed, color.Bold).SprintFunc()
	driftColor := color.New(color.FgHiMagenta).SprintfFunc()

	rule := sectionColor(strings.Repeat("-", 50))
	section := func(title string) {
		fmt.Fprintln(w, "\n"+rule)
		fmt.Fprintln(w, sectionColor(title))
		fmt.Fprintln(w, rule)
	}

	fmt.Fprintln(w, "\n"+headerColor("[Class Booking Run Report]"))
	fmt.Fprintf(w, "%s         : %s\n", labelColor("Run ID"), valueColor(r.RunID))
	fmt.Fprintf(w, "%s         : %s\n", labelColor("Center"), valueColor(r.Center))
	fmt.Fprintf(w, "%s     : %s\n", labelColor("Class Time"), valueColor(r.Time))
	fmt.Fprintf(w, "%s : %s\n", labelColor("Execution Mode"), valueColor(r.ExecutionMode))
	fmt.Fprintf(w, "%s        : %s\n", labelColor("Network"), valueColor(r.Network))

	if !r.WakeTarget.IsZero() || r.Probe != nil {
		section("[1] Scheduler & Preflight")
		if !r.WakeTarget.IsZero() {
			fmt.Fprintf(w, "%s    : %s\n", labelColor("Wake Target"), valueColor(r.WakeTarget.Format("2006-01-02 15:04:05.000")))
			fmt.Fprintf(w, "%s   : %s\n", labelColor("Timing Drift"), driftColor("%+d µs", r.WakeDrift.Microseconds()))
		}
		if p := r.Probe; p != nil {
			status := valueColor(fmt.Sprintf("%d %s", p.StatusCode, p.Protocol))
			if p.Error != "" {
				status = errorColor(p.Error)
			}
			fmt.Fprintf(w, "%s   : %s\n", labelColor("Probe Status"), status)
			fmt.Fprintf(w, "%s  : %s\n", labelColor("TCP Handshake"), valueColor(fmt.Sprintf("%d ms", p.ConnectDone.Milliseconds())))
			fmt.Fprintf(w, "%s  : %s\n", labelColor("TLS Handshake"), valueColor(fmt.Sprintf("%d ms", p.TLSHandshakeDone.Milliseconds())))
			fmt.Fprintf(w, "%s           : %s\n", labelColor("TTFB"), valueColor(fmt.Sprintf("%d ms", p.GotFirstResponseByte.Milliseconds())))
		}
	}

	section("[2] Booking Stages")
	for i, s := range r.Stages {
		status := successColor(s.Status)
		switch s.Status {
		case booking.Skipped.String():
			status = warnColor(s.Status)
		case booking.Failed.String():
			status = errorColor(s.Status)
		}
		line := fmt.Sprintf("  [%d] %-15s → %s  %s", i+1, s.Stage, status, s.Reason)
		if s.Kind != "" {
			line += fmt.Sprintf(" (%s)", s.Kind)
		}
		fmt.Fprintln(w, line)
	}

	section("[3] Result Summary")
	result := r.Result()
	resColor := errorColor
	switch result {
	case "SUCCESS":
		resColor = successColor
	case "APP HANDOFF":
		resColor = warnColor
	}
	fmt.Fprintf(w, "%s         : %s\n", labelColor("Result"), resColor(result))
	if r.ConfirmLabel != "" {
		fmt.Fprintf(w, "%s : %s\n", labelColor("Confirmed With"), valueColor(r.ConfirmLabel))
	}
	if r.Error != "" {
		fmt.Fprintf(w, "%s          : %s\n", labelColor("Error"), errorColor(r.Error))
	}
	fmt.Fprintf(w, "%s       : %s\n", labelColor("Duration"), valueColor(r.Duration.Round(time.Millisecond).String()))

	switch result {
	case "SUCCESS":
		fmt.Fprintln(w, "\n"+successColor("BOOKING CONFIRMED"))
	case "APP HANDOFF":
		fmt.Fprintln(w, "\n"+warnColor("FINISH THE BOOKING IN THE APP"))
	default:
		fmt.Fprintln(w, "\n"+errorColor("BOOKING NOT CONFIRMED"))
	}
}

// WriteStructuredLog appends the report as a JSON line to filename.
func WriteStructuredLog(r *RunReport, filename string) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}
