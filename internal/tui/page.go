// Package tui hosts the product listing page in a terminal using Bubble Tea.
//
// Page implements the controller's page elements over shared state. The
// controller mutates that state from fetch goroutines; every mutation calls
// the notify hook so the running program re-renders.
package tui

import (
	"sync"

	"github.com/Sternrassler/product-search/pkg/controller"
	"github.com/Sternrassler/product-search/pkg/render"
)

// Page is the terminal listing page state.
type Page struct {
	mu sync.Mutex

	query   string
	onInput func()
	onPrev  func()
	onNext  func()

	rows         []render.Row
	prevDisabled bool
	nextDisabled bool
	currentText  string
	totalText    string

	notify func()
}

// NewPage creates a page whose labels start with the given texts, as a
// server-rendered listing would.
func NewPage(currentText, totalText string) *Page {
	return &Page{
		currentText: currentText,
		totalText:   totalText,
	}
}

// SetNotify sets the hook called after each change. It runs on its own
// goroutine so a blocked program never stalls the controller.
func (p *Page) SetNotify(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
}

func (p *Page) changedLocked() {
	if fn := p.notify; fn != nil {
		go fn()
	}
}

// Elements returns the page elements for the controller.
func (p *Page) Elements() controller.Elements {
	return controller.Elements{
		SearchBox:   searchBox{p},
		TableBody:   tableBody{p},
		PrevButton:  button{p: p, prev: true},
		NextButton:  button{p: p},
		CurrentPage: label{p: p, current: true},
		TotalPages:  label{p: p},
	}
}

// Snapshot is a consistent copy of the page for rendering.
type Snapshot struct {
	Query        string
	Rows         []render.Row
	PrevDisabled bool
	NextDisabled bool
	CurrentText  string
	TotalText    string
}

// Snapshot returns the current page contents.
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows := make([]render.Row, len(p.rows))
	copy(rows, p.rows)
	return Snapshot{
		Query:        p.query,
		Rows:         rows,
		PrevDisabled: p.prevDisabled,
		NextDisabled: p.nextDisabled,
		CurrentText:  p.currentText,
		TotalText:    p.totalText,
	}
}

// SetQuery replaces the search text and fires the input handler.
func (p *Page) SetQuery(q string) {
	p.mu.Lock()
	p.query = q
	h := p.onInput
	p.mu.Unlock()

	if h != nil {
		h()
	}
}

// ClickPrev fires the previous-page handler.
func (p *Page) ClickPrev() {
	p.mu.Lock()
	h := p.onPrev
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

// ClickNext fires the next-page handler.
func (p *Page) ClickNext() {
	p.mu.Lock()
	h := p.onNext
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

type searchBox struct{ p *Page }

func (s searchBox) Value() string {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.p.query
}

func (s searchBox) OnInput(h func()) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.onInput = h
}

type tableBody struct{ p *Page }

func (t tableBody) Clear() {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.p.rows = nil
	t.p.changedLocked()
}

func (t tableBody) AppendRow(r render.Row) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.p.rows = append(t.p.rows, r)
	t.p.changedLocked()
}

type button struct {
	p    *Page
	prev bool
}

func (b button) OnClick(h func()) {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	if b.prev {
		b.p.onPrev = h
	} else {
		b.p.onNext = h
	}
}

func (b button) SetDisabled(d bool) {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	if b.prev {
		b.p.prevDisabled = d
	} else {
		b.p.nextDisabled = d
	}
	b.p.changedLocked()
}

type label struct {
	p       *Page
	current bool
}

func (l label) Text() string {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.current {
		return l.p.currentText
	}
	return l.p.totalText
}

func (l label) SetText(s string) {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.current {
		l.p.currentText = s
	} else {
		l.p.totalText = s
	}
	l.p.changedLocked()
}
