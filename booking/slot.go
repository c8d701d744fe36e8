package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// selectSlot opens the class in the row labelled target and presses its
// Book/Join action.
func (a *attempt) selectSlot(ctx context.Context) Outcome {
	target := a.req.Time
	log := a.stageLog(StageSlot)
	log.Info("looking for class")

	row := a.page.Locator(a.lm.TimeRow).FilterHas(a.lm.TimeText, target).First()
	if err := a.w.Attached(ctx, row, a.t.SlotRowAttached); err != nil {
		if ctx.Err() != nil {
			return failed("wait for time row", err)
		}
		log.Warn("timed out waiting for time row")
	}

	if n, err := row.Count(); err != nil || n == 0 {
		log.Error("time slot row not found")
		a.capture(DiagNoSlot)
		return skipped("time slot row not found", ErrNotFound)
	}
	log.Info("time slot row found")

	card := row.Locator(a.lm.ClassCell).First()
	if n, err := card.Count(); err != nil || n == 0 {
		log.Error("time slot row has no class cell")
		a.capture(DiagRowNoClass)
		return skipped("no class in row", ErrNotFound)
	}

	classes, err := card.Attribute("class")
	if err != nil {
		log.Debug("read class attribute failed", zap.Error(err))
	}
	log.Info("class card found", zap.String("classes", classes))
	if strings.Contains(classes, a.lm.UnavailableMarker) {
		// The site's own handling of unavailable classes decides.
		log.Warn("class appears unavailable (full or past), clicking anyway")
	}

	if err := card.Click(); err != nil {
		log.Error("class card click failed", zap.Error(err))
		a.capture(DiagBookingError)
		return failed("click class card", err)
	}
	log.Info("clicked class card")

	book, err := a.w.FirstVisible(ctx, a.page.Locator(a.lm.BookButton).FilterText(a.re.book), a.t.BookButton)
	if err != nil {
		if ctx.Err() != nil {
			return failed("wait for book button", err)
		}
		log.Info("no Book/Join button after class click, booking may already be processed")
		return completed("class clicked, no book button")
	}
	if err := book.Click(); err != nil {
		log.Error("book button click failed", zap.Error(err))
		a.capture(DiagBookingError)
		return failed("click book button", err)
	}
	log.Info("clicked Book/Join button")
	return completed("class booked")
}
