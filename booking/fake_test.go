package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// fakeClock advances only when slept on.
type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.slept += d
	return nil
}

// node is one element of the fake document.
type node struct {
	name        string
	text        string
	sels        []string
	role        string
	placeholder string
	attrs       map[string]string
	hidden      bool
	value       string

	parent   *node
	children []*node

	onClick func()
	onType  func(value string)
}

func (n *node) add(children ...*node) *node {
	for _, ch := range children {
		ch.parent = n
		n.children = append(n.children, ch)
	}
	return n
}

// prepend inserts children ahead of n's existing children.
func (n *node) prepend(children ...*node) *node {
	for _, ch := range children {
		ch.parent = n
	}
	n.children = append(append([]*node{}, children...), n.children...)
	return n
}

func (n *node) is(sel string) bool {
	for _, s := range n.sels {
		if s == sel {
			return true
		}
	}
	return false
}

func (n *node) visible() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.hidden {
			return false
		}
	}
	return true
}

func (n *node) subtreeText() string {
	parts := []string{}
	if n.text != "" {
		parts = append(parts, n.text)
	}
	for _, ch := range n.children {
		if t := ch.subtreeText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// descendants returns the nodes below n in document order.
func (n *node) descendants() []*node {
	var out []*node
	for _, ch := range n.children {
		out = append(out, ch)
		out = append(out, ch.descendants()...)
	}
	return out
}

// fakePage is an in-memory document that records every interaction.
type fakePage struct {
	mu    sync.Mutex
	root  *node
	url   string
	gotos []string
	trace []string

	gotoErr error
}

func newFakePage() *fakePage {
	return &fakePage{root: &node{name: "body"}}
}

func (p *fakePage) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trace = append(p.trace, event)
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Goto(url string) error {
	p.gotos = append(p.gotos, url)
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.url = url
	return nil
}

func (p *fakePage) query(match func(*node) bool) Element {
	return &fakeElement{page: p, resolve: func() []*node {
		var out []*node
		for _, n := range p.root.descendants() {
			if match(n) {
				out = append(out, n)
			}
		}
		return out
	}}
}

func (p *fakePage) Locator(selector string) Element {
	return p.query(func(n *node) bool { return n.is(selector) })
}

func (p *fakePage) ByText(text string, exact bool) Element {
	return p.query(textMatcher(text, exact))
}

func (p *fakePage) ByTextPattern(pattern *regexp.Regexp) Element {
	return p.query(func(n *node) bool { return n.text != "" && pattern.MatchString(n.text) })
}

// ByRole skips hidden nodes, as the accessibility tree does.
func (p *fakePage) ByRole(role string, name *regexp.Regexp) Element {
	return p.query(func(n *node) bool {
		return n.role == role && n.visible() && name.MatchString(n.subtreeText())
	})
}

func (p *fakePage) ByPlaceholder(text string) Element {
	return p.query(func(n *node) bool {
		return n.placeholder != "" && strings.Contains(strings.ToLower(n.placeholder), strings.ToLower(text))
	})
}

func (p *fakePage) Screenshot() ([]byte, error) {
	return []byte("png"), nil
}

func (p *fakePage) Content() (string, error) {
	return "<html><body>" + p.root.subtreeText() + "</body></html>", nil
}

func textMatcher(text string, exact bool) func(*node) bool {
	if exact {
		return func(n *node) bool { return n.text == text }
	}
	lower := strings.ToLower(text)
	return func(n *node) bool {
		return n.text != "" && strings.Contains(strings.ToLower(n.text), lower)
	}
}

type fakeElement struct {
	page    *fakePage
	resolve func() []*node
}

func (e *fakeElement) derive(f func([]*node) []*node) Element {
	parent := e.resolve
	return &fakeElement{page: e.page, resolve: func() []*node { return f(parent()) }}
}

func (e *fakeElement) within(match func(*node) bool) Element {
	return e.derive(func(ns []*node) []*node {
		seen := map[*node]bool{}
		var out []*node
		for _, n := range ns {
			for _, d := range n.descendants() {
				if match(d) && !seen[d] {
					seen[d] = true
					out = append(out, d)
				}
			}
		}
		return out
	})
}

func (e *fakeElement) Count() (int, error) { return len(e.resolve()), nil }

func (e *fakeElement) Nth(i int) Element {
	return e.derive(func(ns []*node) []*node {
		if i < 0 || i >= len(ns) {
			return nil
		}
		return ns[i : i+1]
	})
}

func (e *fakeElement) First() Element { return e.Nth(0) }

func (e *fakeElement) Last() Element {
	return e.derive(func(ns []*node) []*node {
		if len(ns) == 0 {
			return nil
		}
		return ns[len(ns)-1:]
	})
}

func (e *fakeElement) Parent() Element {
	return e.derive(func(ns []*node) []*node {
		var out []*node
		for _, n := range ns {
			if n.parent != nil {
				out = append(out, n.parent)
			}
		}
		return out
	})
}

func (e *fakeElement) Locator(selector string) Element {
	return e.within(func(n *node) bool { return n.is(selector) })
}

func (e *fakeElement) ByText(text string, exact bool) Element {
	return e.within(textMatcher(text, exact))
}

func (e *fakeElement) FilterText(pattern *regexp.Regexp) Element {
	return e.derive(func(ns []*node) []*node {
		var out []*node
		for _, n := range ns {
			if pattern.MatchString(n.subtreeText()) {
				out = append(out, n)
			}
		}
		return out
	})
}

func (e *fakeElement) FilterHas(selector, text string) Element {
	return e.derive(func(ns []*node) []*node {
		var out []*node
		for _, n := range ns {
			for _, d := range n.descendants() {
				if d.is(selector) && strings.Contains(d.subtreeText(), text) {
					out = append(out, n)
					break
				}
			}
		}
		return out
	})
}

var errStrict = errors.New("strict mode violation")

func (e *fakeElement) one() (*node, error) {
	ns := e.resolve()
	switch len(ns) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return ns[0], nil
	}
	return nil, fmt.Errorf("%w: %d elements", errStrict, len(ns))
}

// actionable mirrors a pointer action: the node must be visible.
func (e *fakeElement) actionable() (*node, error) {
	n, err := e.one()
	if err != nil {
		return nil, err
	}
	if !n.visible() {
		return nil, fmt.Errorf("%s: element is not visible", n.name)
	}
	return n, nil
}

func (e *fakeElement) IsVisible() (bool, error) {
	ns := e.resolve()
	switch len(ns) {
	case 0:
		return false, nil
	case 1:
		return ns[0].visible(), nil
	}
	return false, fmt.Errorf("%w: %d elements", errStrict, len(ns))
}

func (e *fakeElement) Click() error {
	n, err := e.actionable()
	if err != nil {
		return err
	}
	e.page.record("click:" + n.name)
	if n.onClick != nil {
		n.onClick()
	}
	return nil
}

func (e *fakeElement) Hover() error {
	n, err := e.actionable()
	if err != nil {
		return err
	}
	e.page.record("hover:" + n.name)
	return nil
}

func (e *fakeElement) ScrollIntoView() error {
	n, err := e.one()
	if err != nil {
		return err
	}
	e.page.record("scroll:" + n.name)
	return nil
}

func (e *fakeElement) Fill(value string) error {
	n, err := e.actionable()
	if err != nil {
		return err
	}
	n.value = value
	e.page.record(fmt.Sprintf("fill:%s=%s", n.name, value))
	return nil
}

func (e *fakeElement) Type(text string, delay time.Duration) error {
	n, err := e.actionable()
	if err != nil {
		return err
	}
	n.value += text
	e.page.record(fmt.Sprintf("type:%s=%s", n.name, text))
	if n.onType != nil {
		n.onType(n.value)
	}
	return nil
}

func (e *fakeElement) Attribute(name string) (string, error) {
	n, err := e.one()
	if err != nil {
		return "", err
	}
	return n.attrs[name], nil
}

func (e *fakeElement) Text() (string, error) {
	n, err := e.one()
	if err != nil {
		return "", err
	}
	return n.subtreeText(), nil
}

func (e *fakeElement) ForceClick() error {
	n, err := e.one()
	if err != nil {
		return err
	}
	e.page.record("force-click:" + n.name)
	if n.onClick != nil {
		n.onClick()
	}
	return nil
}

// memorySink keeps diagnostics in memory.
type memorySink struct {
	names []string
	html  map[string]string
}

func (s *memorySink) Capture(name string, png []byte) error {
	s.names = append(s.names, name)
	return nil
}

func (s *memorySink) Snapshot(name, html string) error {
	if s.html == nil {
		s.html = map[string]string{}
	}
	s.html[name] = html
	return nil
}

// site builds the booking page of the live site in the fake document.
// Every part can be adjusted before the page is handed to a controller.
type site struct {
	page *fakePage
	lm   Landmarks

	trigger     *node
	modal       *node
	modalTitle  *node
	searchInput *node
	results     *node
	echo        *node
	resultText  *node
	scopedSel   *node
	globalSels  []*node
	dateTabs    []*node
	slotList    *node
	timeRow     *node
	classCell   *node
	bookBtn     *node
	confirmBtn  *node
	appNotice   *node
}

type siteOptions struct {
	center        string
	time          string
	dateTabs      int
	noTimeRow     bool
	noClassCell   bool
	unavailable   bool
	noConfirm     bool
	appHandoff    bool
	singleMatch   bool
	noScopedSel   bool
	globalSels    int
	noResults     bool
	alreadyActive bool
}

func defaultSiteOptions() siteOptions {
	return siteOptions{
		center:   "Cult Whitefield",
		time:     "07:00 AM",
		dateTabs: 4,
	}
}

func newSite(o siteOptions) *site {
	lm := DefaultLandmarks()
	p := newFakePage()
	p.url = lm.BookingURL
	s := &site{page: p, lm: lm}

	s.trigger = &node{name: "trigger", text: "Bangalore", sels: []string{lm.LocationTrigger}}
	if o.alreadyActive {
		s.trigger.text = o.center
	}
	p.root.add(s.trigger)

	s.modal = &node{name: "modal", hidden: true}
	s.modalTitle = &node{name: "modal-title", text: lm.ModalTitle}
	s.searchInput = &node{name: "search-input", sels: []string{lm.ModalSearchInput}}
	s.results = &node{name: "results", hidden: true}
	s.modal.add(s.modalTitle, s.searchInput, s.results)
	p.root.add(s.modal)

	// Other centers listed in the modal, each with its own SELECT.
	for i := 0; i < o.globalSels; i++ {
		sel := &node{name: fmt.Sprintf("global-select-%d", i), text: lm.SelectLabel}
		s.globalSels = append(s.globalSels, sel)
		s.modal.add((&node{name: fmt.Sprintf("other-card-%d", i)}).add(
			&node{name: fmt.Sprintf("other-inner-%d", i)}).add(
			&node{name: fmt.Sprintf("other-name-%d", i), text: fmt.Sprintf("Cult Center %d", i)}, sel))
	}

	if !o.singleMatch {
		s.echo = &node{name: "echo", text: o.center}
		s.results.add(s.echo)
	}
	s.resultText = &node{name: "result-text", text: o.center}
	inner := (&node{name: "result-inner"}).add(s.resultText)
	card := (&node{name: "result-card"}).add(inner)
	if !o.noScopedSel {
		s.scopedSel = &node{name: "scoped-select", text: lm.SelectLabel}
		card.add(s.scopedSel)
	}
	s.results.add(card)

	s.trigger.onClick = func() { s.modal.hidden = false }
	s.searchInput.onType = func(v string) {
		if !o.noResults && strings.Contains(v, o.center) {
			s.results.hidden = false
		}
	}
	closeModal := func() {
		s.modal.hidden = true
		s.results.hidden = true
		s.trigger.text = o.center
	}
	if s.scopedSel != nil {
		s.scopedSel.onClick = closeModal
	}
	for _, g := range s.globalSels {
		g.onClick = closeModal
	}

	for i := 0; i < o.dateTabs; i++ {
		tab := &node{name: fmt.Sprintf("date-%d", i), text: fmt.Sprintf("D%d", i), sels: []string{lm.DateCell}}
		s.dateTabs = append(s.dateTabs, tab)
		p.root.add(tab)
	}

	s.slotList = &node{name: "slots"}
	p.root.add(s.slotList)
	other := (&node{name: "row-0600", sels: []string{lm.TimeRow}}).add(
		&node{name: "time-0600", text: "06:00 AM", sels: []string{lm.TimeText}},
		&node{name: "class-0600", text: "YOGA", sels: []string{lm.ClassCell}})
	s.slotList.add(other)
	if !o.noTimeRow {
		s.timeRow = (&node{name: "row-target", sels: []string{lm.TimeRow}}).add(
			&node{name: "time-target", text: o.time, sels: []string{lm.TimeText}})
		if !o.noClassCell {
			cls := "class-cell"
			if o.unavailable {
				cls += " unavailable-theme"
			}
			s.classCell = &node{name: "class-target", text: "HRX", sels: []string{lm.ClassCell},
				attrs: map[string]string{"class": cls}}
			s.timeRow.add(s.classCell)
		}
		s.slotList.add(s.timeRow)
	}

	s.bookBtn = &node{name: "book", text: "Book", sels: []string{lm.BookButton}, role: "button", hidden: true}
	p.root.add(s.bookBtn)
	if s.classCell != nil {
		s.classCell.onClick = func() { s.bookBtn.hidden = false }
	}

	if !o.noConfirm {
		s.confirmBtn = &node{name: "confirm", text: "CONFIRM & BOOK", sels: []string{lm.BookButton}, role: "button", hidden: true}
		p.root.add(s.confirmBtn)
		s.bookBtn.onClick = func() {
			s.bookBtn.hidden = true
			s.confirmBtn.hidden = false
		}
	} else {
		s.bookBtn.onClick = func() { s.bookBtn.hidden = true }
	}

	if o.appHandoff {
		s.appNotice = &node{name: "app-notice", text: lm.AppInterstitial}
		p.root.add(s.appNotice)
	}
	return s
}
