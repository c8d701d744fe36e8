package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// navigateDate moves the calendar DayOffset tabs past today.
func (a *attempt) navigateDate(ctx context.Context) Outcome {
	log := a.stageLog(StageDate)

	tabs := a.page.Locator(a.lm.DateCell)
	if err := a.w.Attached(ctx, tabs, a.t.DateTabs); err != nil && ctx.Err() != nil {
		return failed("wait for date tabs", err)
	}
	n, err := tabs.Count()
	if err != nil {
		return failed("count date tabs", err)
	}
	log.Info("date tabs found", zap.Int("count", n))

	idx, ok := DateTabIndex(n)
	if !ok {
		log.Warn("no date tabs on page")
		a.capture(DiagNoDates)
		return skipped("no date tabs", ErrNotFound)
	}
	if idx != DayOffset {
		log.Warn("fewer date tabs than expected, clicking the last one", zap.Int("index", idx))
	}

	if err := tabs.Nth(idx).Click(); err != nil {
		return failed("click date tab", err)
	}
	log.Info("clicked date tab", zap.Int("index", idx))
	if err := a.w.Settle(ctx, a.t.DateClickSettle); err != nil {
		return failed("settle after date click", err)
	}
	return completed(fmt.Sprintf("date tab %d", idx))
}
