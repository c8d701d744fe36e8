package diag

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"cult-booker/booking"
)

// Inspection is what a saved page contains of the booking landmarks.
type Inspection struct {
	LocationTrigger  bool
	ModalTitle       bool
	DateCells        int
	TimeRows         int
	ClassCells       int
	UnavailableCells int
	SelectControls   int
	ConfirmControls  int
	AppInterstitial  bool
	// TargetRow is set when a time row shows the requested time.
	TargetRow bool
}

// Missing lists the landmarks the flow needs that the page lacks.
func (in *Inspection) Missing() []string {
	var out []string
	if !in.LocationTrigger {
		out = append(out, "location_trigger")
	}
	if in.DateCells == 0 {
		out = append(out, "date_cell")
	}
	if in.TimeRows == 0 {
		out = append(out, "time_row")
	}
	if in.ClassCells == 0 {
		out = append(out, "class_cell")
	}
	return out
}

// Fields renders the inspection as log fields.
func (in *Inspection) Fields() []zap.Field {
	return []zap.Field{
		zap.Bool("location_trigger", in.LocationTrigger),
		zap.Bool("modal_title", in.ModalTitle),
		zap.Int("date_cells", in.DateCells),
		zap.Int("time_rows", in.TimeRows),
		zap.Int("class_cells", in.ClassCells),
		zap.Int("unavailable_cells", in.UnavailableCells),
		zap.Int("select_controls", in.SelectControls),
		zap.Int("confirm_controls", in.ConfirmControls),
		zap.Bool("app_interstitial", in.AppInterstitial),
		zap.Bool("target_row", in.TargetRow),
	}
}

// InspectLandmarks parses an HTML snapshot and counts the landmarks of
// lm. target is the class time to look for; empty skips that check.
// Selectors that only playwright understands (such as :has-text) match
// nothing here.
func InspectLandmarks(r io.Reader, lm booking.Landmarks, target string) (*Inspection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	confirm, err := regexp.Compile("(?i)" + lm.ConfirmPattern)
	if err != nil {
		return nil, fmt.Errorf("confirm pattern: %w", err)
	}

	in := &Inspection{
		LocationTrigger: findAny(doc, lm.LocationTrigger).Length() > 0,
		DateCells:       findAny(doc, lm.DateCell).Length(),
		AppInterstitial: strings.Contains(doc.Text(), lm.AppInterstitial),
	}

	leaves := doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Children().Length() == 0
	})
	leaves.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		switch {
		case text == lm.SelectLabel:
			in.SelectControls++
		case strings.Contains(text, lm.ModalTitle):
			in.ModalTitle = true
		}
	})

	rows := findAny(doc, lm.TimeRow)
	in.TimeRows = rows.Length()
	rows.Each(func(_ int, row *goquery.Selection) {
		if target != "" && strings.Contains(row.Find(lm.TimeText).Text(), target) {
			in.TargetRow = true
		}
	})

	cells := findAny(doc, lm.ClassCell)
	in.ClassCells = cells.Length()
	in.UnavailableCells = cells.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(lm.UnavailableMarker)
	}).Length()

	in.ConfirmControls = findAny(doc, lm.BookButton).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return confirm.MatchString(s.Text())
	}).Length()
	return in, nil
}

// findAny evaluates each member of a selector group on its own, so one
// member goquery cannot compile does not blank out the others.
func findAny(doc *goquery.Document, group string) *goquery.Selection {
	sel := doc.Selection.Slice(0, 0)
	for _, part := range strings.Split(group, ",") {
		if part = strings.TrimSpace(part); part != "" {
			sel = sel.AddSelection(doc.Find(part))
		}
	}
	return sel
}
