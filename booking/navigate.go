package booking

import (
	"context"

	"go.uber.org/zap"
)

func (a *attempt) navigate(ctx context.Context) Outcome {
	log := a.stageLog(StageNavigate)
	if a.page.URL() == a.lm.BookingURL {
		return completed("already on booking view")
	}

	log.Info("navigating to booking view", zap.String("url", a.lm.BookingURL))
	if err := a.page.Goto(a.lm.BookingURL); err != nil {
		return failed("load booking view", err)
	}
	if err := a.w.Settle(ctx, a.t.NavigationSettle); err != nil {
		return failed("settle after navigation", err)
	}
	return completed("loaded booking view")
}

// verifySession looks for landmarks that only render for a loaded,
// signed-in page. It never blocks the pipeline.
func (a *attempt) verifySession(ctx context.Context) Outcome {
	log := a.stageLog(StageSession)

	trigger := a.page.Locator(a.lm.LocationTrigger).First()
	err := a.w.Visible(ctx, trigger, a.t.TriggerVisible)
	if err == nil {
		log.Info("page loaded, location trigger found")
		return completed("location trigger visible")
	}
	if ctx.Err() != nil {
		return failed("wait for location trigger", err)
	}

	if visible(a.page.ByPlaceholder(a.lm.CenterSearchHint).First()) {
		log.Info("center search already open")
		return completed("center search visible")
	}

	log.Warn("neither location trigger nor center search found, possible login issue")
	return skipped("no session landmark", ErrNotFound)
}
