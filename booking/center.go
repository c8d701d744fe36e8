package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// selectCenter makes center the active booking location. It is
// best-effort except when the search never returns a result, which is
// reported as a fatal outcome.
func (a *attempt) selectCenter(ctx context.Context) Outcome {
	center := a.req.Center
	log := a.stageLog(StageCenter)
	log.Info("selecting center")

	modalTitle := a.page.ByText(a.lm.ModalTitle, false).First()
	trigger := a.page.Locator(a.lm.LocationTrigger).First()

	if visible(modalTitle) {
		log.Info("center modal already open")
	} else if visible(trigger) {
		if n, err := trigger.FilterText(containsFold(center)).Count(); err == nil && n > 0 {
			log.Info("center already selected")
			return completed("already selected")
		}
		log.Info("opening center modal")
		if err := trigger.Click(); err != nil {
			return failed("open center modal", err)
		}
		if err := a.w.Settle(ctx, a.t.ModalOpenSettle); err != nil {
			return failed("open center modal", err)
		}
	} else {
		log.Warn("location trigger not visible, expecting the modal to open on its own")
	}

	input := a.page.Locator(a.lm.ModalSearchInput).First()
	if err := a.w.Visible(ctx, input, a.t.SearchInputVisible); err != nil {
		log.Error("center search input not found", zap.Error(err))
		return skipped("search input not found", err)
	}
	if err := a.enterSearch(input, center); err != nil {
		return failed("enter center name", err)
	}

	candidates := a.page.ByText(center, false)
	if _, err := a.w.FirstVisible(ctx, candidates, a.t.SearchResults); err != nil {
		log.Error("search results did not appear", zap.Error(err))
		a.capture(DiagSearchTimeout)
		o := failed("search results did not appear", fmt.Errorf("%w: %w", ErrSearchResultsTimeout, err))
		o.Fatal = errors.Is(err, ErrTimeout)
		return o
	}

	result, n, err := DisambiguateResult(candidates)
	if err != nil {
		return failed("pick search result", err)
	}
	log.Info("search results found", zap.Int("matches", n), zap.Int("picked", ResultIndex(n)))

	// Hover first: the SELECT button of a card only renders on hover.
	if err := result.ScrollIntoView(); err != nil {
		log.Debug("scroll to result failed", zap.Error(err))
	}
	if err := result.Hover(); err != nil {
		log.Debug("hover on result failed", zap.Error(err))
	}
	if err := result.Click(); err != nil {
		return failed("click search result", err)
	}
	log.Info("clicked search result")
	if err := a.w.Settle(ctx, a.t.CardClickSettle); err != nil {
		return failed("settle after result click", err)
	}

	sel, scoped, err := a.findSelect(ctx, result)
	if err != nil {
		log.Warn("no visible SELECT control", zap.Error(err))
		return skipped("SELECT control not found", err)
	}
	if err := sel.Click(); err != nil {
		return failed("click SELECT", err)
	}
	log.Info("clicked SELECT", zap.Bool("scoped", scoped))

	if err := a.w.Hidden(ctx, modalTitle, a.t.ModalClose); err != nil && ctx.Err() == nil {
		log.Warn("center modal still open after SELECT")
	}
	return completed("center selected")
}

func (a *attempt) enterSearch(input Element, center string) error {
	if err := input.Click(); err != nil {
		return err
	}
	if err := input.Fill(""); err != nil {
		return err
	}
	// Typed key by key so the site's incremental search fires.
	return input.Type(center, a.t.TypeDelay)
}

// findSelect locates the SELECT control for result. The page carries one
// SELECT per center, so the search is scoped to the result's card before
// falling back to the first visible SELECT anywhere.
func (a *attempt) findSelect(ctx context.Context, result Element) (Element, bool, error) {
	scoped := result.Parent().Parent().ByText(a.lm.SelectLabel, true).First()
	err := a.w.Visible(ctx, scoped, a.t.ScopedSelect)
	if err == nil {
		return scoped, true, nil
	}
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}

	a.stageLog(StageCenter).Info("scoped SELECT not found, trying first visible SELECT")
	global, err := a.w.FirstVisible(ctx, a.page.ByText(a.lm.SelectLabel, true), a.t.GlobalSelect)
	if err != nil {
		return nil, false, err
	}
	return global, false, nil
}
