package client

import (
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"cult-booker/booking"
)

// PlaywrightPage adapts a playwright page to booking.Page. Every query is
// a lazy playwright Locator; waiting is left to the booking controller.
type PlaywrightPage struct {
	page playwright.Page
}

var _ booking.Page = (*PlaywrightPage)(nil)

// NewPlaywrightPage wraps page.
func NewPlaywrightPage(page playwright.Page) *PlaywrightPage {
	return &PlaywrightPage{page: page}
}

func (p *PlaywrightPage) URL() string { return p.page.URL() }

func (p *PlaywrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (p *PlaywrightPage) Locator(selector string) booking.Element {
	return &locator{l: p.page.Locator(selector), page: p.page}
}

func (p *PlaywrightPage) ByText(text string, exact bool) booking.Element {
	return &locator{l: p.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(exact),
	}), page: p.page}
}

func (p *PlaywrightPage) ByTextPattern(pattern *regexp.Regexp) booking.Element {
	return &locator{l: p.page.GetByText(pattern), page: p.page}
}

func (p *PlaywrightPage) ByRole(role string, name *regexp.Regexp) booking.Element {
	return &locator{l: p.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{
		Name: name,
	}), page: p.page}
}

func (p *PlaywrightPage) ByPlaceholder(text string) booking.Element {
	return &locator{l: p.page.GetByPlaceholder(text), page: p.page}
}

func (p *PlaywrightPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (p *PlaywrightPage) Content() (string, error) { return p.page.Content() }

type locator struct {
	l    playwright.Locator
	page playwright.Page
}

func (e *locator) wrap(l playwright.Locator) booking.Element {
	return &locator{l: l, page: e.page}
}

func (e *locator) Count() (int, error) { return e.l.Count() }
func (e *locator) Nth(i int) booking.Element { return e.wrap(e.l.Nth(i)) }
func (e *locator) First() booking.Element { return e.wrap(e.l.First()) }
func (e *locator) Last() booking.Element { return e.wrap(e.l.Last()) }
func (e *locator) Parent() booking.Element { return e.wrap(e.l.Locator("..")) }
func (e *locator) IsVisible() (bool, error) { return e.l.IsVisible() }
func (e *locator) Click() error { return e.l.Click() }
func (e *locator) Hover() error { return e.l.Hover() }
func (e *locator) ScrollIntoView() error { return e.l.ScrollIntoViewIfNeeded() }
func (e *locator) Fill(value string) error { return e.l.Fill(value) }
func (e *locator) Text() (string, error) { return e.l.TextContent() }

func (e *locator) Locator(selector string) booking.Element {
	return e.wrap(e.l.Locator(selector))
}

func (e *locator) ByText(text string, exact bool) booking.Element {
	return e.wrap(e.l.GetByText(text, playwright.LocatorGetByTextOptions{
		Exact: playwright.Bool(exact),
	}))
}

func (e *locator) FilterText(pattern *regexp.Regexp) booking.Element {
	return e.wrap(e.l.Filter(playwright.LocatorFilterOptions{HasText: pattern}))
}

func (e *locator) FilterHas(selector, text string) booking.Element {
	inner := e.page.Locator(selector, playwright.PageLocatorOptions{HasText: text})
	return e.wrap(e.l.Filter(playwright.LocatorFilterOptions{Has: inner}))
}

func (e *locator) Type(text string, delay time.Duration) error {
	return e.l.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (e *locator) Attribute(name string) (string, error) {
	return e.l.GetAttribute(name)
}

// ForceClick dispatches the click from page script, bypassing overlays
// and actionability checks.
func (e *locator) ForceClick() error {
	_, err := e.l.Evaluate("el => el.click()", nil)
	return err
}
