package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// confirm presses the final CONFIRM/PAY/BOOK control, if any. A missing
// control ends the flow normally: the class is already booked or the
// site took a different path.
func (a *attempt) confirm(ctx context.Context) Outcome {
	log := a.stageLog(StageConfirm)
	log.Info("checking for final confirmation")

	if visible(a.page.ByText(a.lm.AppInterstitial, false).First()) {
		log.Info("site asks to complete the booking in the companion app")
		a.report.AppHandoff = true
		return completed("complete in companion app")
	}

	btn := a.page.ByRole("button", a.re.confirm).First()
	if err := a.w.Visible(ctx, btn, a.t.ConfirmRole); err != nil {
		if ctx.Err() != nil {
			return failed("wait for confirm button", err)
		}
		log.Info("no confirm button by role, trying text match")
		btn, err = a.w.FirstVisible(ctx, a.page.ByTextPattern(a.re.confirm), a.t.ConfirmVisible)
		if err != nil {
			if ctx.Err() != nil {
				return failed("wait for confirm control", err)
			}
			log.Info("no CONFIRM/PAY/BOOK control, already booked or different flow")
			return skipped("no confirm control", err)
		}
	}

	label, err := btn.Text()
	if err != nil {
		label = "unknown"
	}
	label = strings.TrimSpace(label)
	log.Info("final confirmation control visible", zap.String("label", label))

	a.capture(DiagPreConfirm)
	if err := btn.ForceClick(); err != nil {
		return failed("force click confirm", err)
	}
	a.report.Confirmed = true
	a.report.ConfirmLabel = label
	log.Info("clicked final confirmation", zap.String("label", label))

	if err := a.w.Settle(ctx, a.t.PostConfirmSettle); err != nil {
		return failed("settle after confirm", err)
	}
	a.capture(DiagPostConfirm)
	return completed("confirmed")
}
