package booking

import "fmt"

// DayOffset is how many tabs past today the calendar is moved: the 4th
// selectable day.
const DayOffset = 3

// ResultIndex picks which of count text matches for a center name is the
// result card. With more than one match the first is usually the echo of
// the search input, so the second is taken.
func ResultIndex(count int) int {
	if count > 1 {
		return 1
	}
	return 0
}

// DateTabIndex returns the date tab to click for count tabs, falling back
// to the last tab when fewer than DayOffset+1 exist. ok is false when
// there is nothing to click.
func DateTabIndex(count int) (idx int, ok bool) {
	switch {
	case count <= 0:
		return 0, false
	case count > DayOffset:
		return DayOffset, true
	}
	return count - 1, true
}

// DisambiguateResult resolves the live candidate set for a center name to
// the single element that should be clicked.
func DisambiguateResult(candidates Element) (Element, int, error) {
	n, err := candidates.Count()
	if err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}
	if n == 0 {
		return nil, 0, ErrNotFound
	}
	return candidates.Nth(ResultIndex(n)), n, nil
}
