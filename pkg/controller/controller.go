// Package controller drives a product listing page: it debounces search
// input, fetches result pages and reconciles the table and pagination
// controls with each response.
//
// Page state (current page, total pages) changes only when a fetch succeeds.
// Fetches triggered by the page run concurrently and are neither serialized
// nor cancelled, so by default the last response to arrive wins even if it
// answers an older request. Config.DropStale opts into discarding responses
// older than one already applied.
package controller

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/product-search/pkg/client"
	"github.com/Sternrassler/product-search/pkg/debounce"
	"github.com/Sternrassler/product-search/pkg/logging"
	"github.com/Sternrassler/product-search/pkg/product"
	"github.com/Sternrassler/product-search/pkg/render"
)

var (
	searchDebouncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_search_debounced_total",
		Help: "Total searches fired after the input quiet period",
	})

	searchStaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_search_stale_responses_total",
		Help: "Total responses discarded because a newer request was already applied",
	})

	searchRendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "product_search_renders_total",
		Help: "Total result pages rendered into the table",
	})
)

// Searcher fetches one page of results. *client.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, q string, page int) (*product.Page, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, q string, page int) (*product.Page, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, q string, page int) (*product.Page, error) {
	return f(ctx, q, page)
}

// PageState is the pagination position shown on the page.
type PageState struct {
	// CurrentPage is the zero-based index of the displayed page.
	CurrentPage int
	// TotalPages is at least 1.
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (s PageState) HasPrev() bool {
	return s.CurrentPage > 0
}

// HasNext reports whether a next page exists.
func (s PageState) HasNext() bool {
	return s.CurrentPage < s.TotalPages-1
}

// Config holds controller settings.
type Config struct {
	// Debounce is the quiet period after the last keystroke before searching.
	Debounce time.Duration

	// DropStale discards a response when a newer request's response has
	// already been applied.
	DropStale bool

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns the listing page defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: debounce.DefaultDelay,
	}
}

// Controller is the search and pagination controller for one page.
type Controller struct {
	searcher  Searcher
	el        Elements
	config    Config
	logger    zerolog.Logger
	debouncer *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       PageState
	seq         uint64
	appliedSeq  uint64
	initialized bool

	flightMu   sync.Mutex
	flightCond *sync.Cond
	inflight   int
}

// New creates a controller. Call Initialize to read the initial state and
// bind the element handlers.
func New(searcher Searcher, el Elements, cfg Config) *Controller {
	logger := logging.NewLogger("search-controller")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		searcher:  searcher,
		el:        el,
		config:    cfg,
		logger:    logger,
		debouncer: debounce.New(cfg.Debounce),
		ctx:       ctx,
		cancel:    cancel,
		state:     PageState{CurrentPage: 0, TotalPages: 1},
	}
	c.flightCond = sync.NewCond(&c.flightMu)
	return c
}

// Initialize parses the initial page state from the labels and wires the
// handlers of the elements that are present. Calling it again is a no-op.
func (c *Controller) Initialize() {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return
	}
	c.initialized = true
	c.state = initialState(c.el.CurrentPage, c.el.TotalPages)
	state := c.state
	c.mu.Unlock()

	if c.el.SearchBox != nil {
		c.el.SearchBox.OnInput(c.handleInput)
	}
	if c.el.PrevButton != nil {
		c.el.PrevButton.OnClick(c.handlePrev)
	}
	if c.el.NextButton != nil {
		c.el.NextButton.OnClick(c.handleNext)
	}

	c.logger.Debug().
		Int("current_page", state.CurrentPage).
		Int("total_pages", state.TotalPages).
		Bool("search_box", c.el.SearchBox != nil).
		Bool("table_body", c.el.TableBody != nil).
		Bool("prev", c.el.PrevButton != nil).
		Bool("next", c.el.NextButton != nil).
		Msg("Controller initialized")
}

// initialState reads the one-based current page label and the total pages
// label, falling back to page 0 of 1.
func initialState(current, total Label) PageState {
	state := PageState{CurrentPage: 0, TotalPages: 1}

	if current != nil {
		if n, ok := parseLeadingInt(current.Text()); ok && n-1 > 0 {
			state.CurrentPage = n - 1
		}
	}
	if total != nil {
		if n, ok := parseLeadingInt(total.Text()); ok && n >= 1 {
			state.TotalPages = n
		}
	}
	return state
}

// parseLeadingInt reads an optionally signed integer prefix after leading
// whitespace, ignoring trailing text ("3 of 7" reads as 3).
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FetchAndRender requests page of the results for q and, on success, renders
// the rows, adopts the response's page position and refreshes pagination.
// On failure it logs, returns the error and leaves state and elements as
// they were.
func (c *Controller) FetchAndRender(ctx context.Context, q string, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	result, err := c.searcher.Search(ctx, q, page)
	if err != nil {
		c.logger.Error().
			Err(err).
			Int("status", client.StatusCodeOf(err)).
			Str("query", q).
			Int("page", page).
			Msg("Search failed")
		return err
	}
	result.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.DropStale && seq < c.appliedSeq {
		searchStaleResponsesTotal.Inc()
		c.logger.Debug().
			Str("query", q).
			Int("page", page).
			Uint64("seq", seq).
			Uint64("applied_seq", c.appliedSeq).
			Msg("Discarding stale response")
		return nil
	}
	c.appliedSeq = seq

	c.renderTableLocked(result.Content)
	c.state.CurrentPage = result.Number
	c.state.TotalPages = result.TotalPages
	c.updatePaginationLocked()
	searchRendersTotal.Inc()

	c.logger.Debug().
		Str("query", q).
		Int("page", c.state.CurrentPage).
		Int("total_pages", c.state.TotalPages).
		Int("items", len(result.Content)).
		Msg("Rendered search results")

	return nil
}

// RenderTable replaces the table rows with items in the given order.
func (c *Controller) RenderTable(items []product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderTableLocked(items)
}

func (c *Controller) renderTableLocked(items []product.Product) {
	if c.el.TableBody == nil {
		return
	}
	c.el.TableBody.Clear()
	for _, p := range items {
		c.el.TableBody.AppendRow(render.NewRow(p))
	}
}

// UpdatePagination writes the one-based page number and the page count to
// the labels and sets the disabled state of the prev and next controls.
func (c *Controller) UpdatePagination() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updatePaginationLocked()
}

func (c *Controller) updatePaginationLocked() {
	if c.el.CurrentPage != nil {
		c.el.CurrentPage.SetText(strconv.Itoa(c.state.CurrentPage + 1))
	}
	if c.el.TotalPages != nil {
		c.el.TotalPages.SetText(strconv.Itoa(c.state.TotalPages))
	}
	if c.el.PrevButton != nil {
		c.el.PrevButton.SetDisabled(c.state.CurrentPage <= 0)
	}
	if c.el.NextButton != nil {
		c.el.NextButton.SetDisabled(c.state.CurrentPage >= c.state.TotalPages-1)
	}
}

// State returns the current page state.
func (c *Controller) State() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns the search box text, or "" without a search box.
func (c *Controller) Query() string {
	if c.el.SearchBox == nil {
		return ""
	}
	return c.el.SearchBox.Value()
}

// handleInput restarts the quiet period; when it elapses the current search
// text is fetched from the first page.
func (c *Controller) handleInput() {
	c.debouncer.Trigger(func() {
		searchDebouncedTotal.Inc()
		c.dispatch(c.Query(), 0)
	})
}

func (c *Controller) handlePrev() {
	state := c.State()
	if !state.HasPrev() {
		return
	}
	c.dispatch(c.Query(), state.CurrentPage-1)
}

func (c *Controller) handleNext() {
	state := c.State()
	if !state.HasNext() {
		return
	}
	c.dispatch(c.Query(), state.CurrentPage+1)
}

// dispatch runs FetchAndRender without blocking the caller.
func (c *Controller) dispatch(q string, page int) {
	c.flightMu.Lock()
	c.inflight++
	c.flightMu.Unlock()

	go func() {
		defer c.flightDone()
		_ = c.FetchAndRender(c.ctx, q, page)
	}()
}

func (c *Controller) flightDone() {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		c.flightCond.Broadcast()
	}
}

// Wait blocks until no fetch started by the page is in flight. A pending
// debounced search that has not fired yet is not waited for.
func (c *Controller) Wait() {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	for c.inflight > 0 {
		c.flightCond.Wait()
	}
}

// Close cancels the pending debounced search and in-flight requests, then
// waits for them to return.
func (c *Controller) Close() error {
	c.debouncer.Stop()
	c.cancel()
	c.Wait()
	return nil
}
