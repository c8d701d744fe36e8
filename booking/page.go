package booking

import (
	"regexp"
	"time"
)

// Page is the handle on one browser tab. The controller borrows it for a
// single booking attempt and never closes it.
type Page interface {
	URL() string
	Goto(url string) error

	// Locator matches a CSS selector against the whole document.
	Locator(selector string) Element
	// ByText matches elements by their text. When exact is false the
	// match is a case-insensitive substring match.
	ByText(text string, exact bool) Element
	ByTextPattern(pattern *regexp.Regexp) Element
	// ByRole matches elements by ARIA role whose accessible name
	// matches pattern.
	ByRole(role string, name *regexp.Regexp) Element
	ByPlaceholder(text string) Element

	Screenshot() ([]byte, error)
	Content() (string, error)
}

// Element is a lazy query against the live document. It may match zero,
// one or many nodes and is re-resolved on every call, so a value obtained
// before a navigation or re-render still describes the query, not the
// old nodes.
//
// Actions (Click, Hover, ...) require the query to resolve to exactly one
// node; narrow with First/Nth before acting.
type Element interface {
	Count() (int, error)
	Nth(i int) Element
	First() Element
	Last() Element
	Parent() Element

	// Locator and ByText search inside the matched subtree.
	Locator(selector string) Element
	ByText(text string, exact bool) Element

	// FilterText keeps matches whose text matches pattern.
	FilterText(pattern *regexp.Regexp) Element
	// FilterHas keeps matches containing a descendant that matches
	// selector and contains text.
	FilterHas(selector, text string) Element

	// IsVisible reports visibility right now, without waiting.
	IsVisible() (bool, error)

	Click() error
	Hover() error
	ScrollIntoView() error
	Fill(value string) error
	// Type sends text one key at a time with delay between keys.
	Type(text string, delay time.Duration) error
	Attribute(name string) (string, error)
	Text() (string, error)
	// ForceClick invokes the element's click handler from script,
	// bypassing hit testing so an overlapping element cannot swallow it.
	ForceClick() error
}
