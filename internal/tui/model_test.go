package tui

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/product-search/pkg/controller"
	"github.com/Sternrassler/product-search/pkg/product"
)

type recordingSearcher struct {
	mu    sync.Mutex
	calls []string
	pages []int
}

func (r *recordingSearcher) Search(ctx context.Context, q string, page int) (*product.Page, error) {
	r.mu.Lock()
	r.calls = append(r.calls, q)
	r.pages = append(r.pages, page)
	r.mu.Unlock()

	return &product.Page{
		Content: []product.Product{
			{ID: int64(page*10 + 1), Name: q + " widget", Quantity: 2, UnitPrice: 3},
		},
		Number:     page,
		TotalPages: 3,
	}, nil
}

func (r *recordingSearcher) Pages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.pages...)
}

func newTestPage(t *testing.T, s controller.Searcher) (*Page, *controller.Controller) {
	t.Helper()

	nop := zerolog.Nop()
	page := NewPage("1", "3")
	ctrl := controller.New(s, page.Elements(), controller.Config{Debounce: 20 * time.Millisecond, Logger: &nop})
	ctrl.Initialize()
	t.Cleanup(func() { ctrl.Close() })
	return page, ctrl
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPage_ElementsRoundTrip(t *testing.T) {
	page := NewPage("2", "5")
	el := page.Elements()

	assert.Equal(t, "2", el.CurrentPage.Text())
	assert.Equal(t, "5", el.TotalPages.Text())

	el.CurrentPage.SetText("3")
	el.PrevButton.SetDisabled(true)
	el.NextButton.SetDisabled(false)

	snap := page.Snapshot()
	assert.Equal(t, "3", snap.CurrentText)
	assert.True(t, snap.PrevDisabled)
	assert.False(t, snap.NextDisabled)
}

func TestPage_NotifyOnChange(t *testing.T) {
	page := NewPage("1", "1")
	var notified atomic.Int32
	page.SetNotify(func() { notified.Add(1) })

	page.Elements().TotalPages.SetText("4")

	assert.Eventually(t, func() bool { return notified.Load() >= 1 }, time.Second, time.Millisecond)
}

func TestModel_TypingSearches(t *testing.T) {
	s := &recordingSearcher{}
	page, ctrl := newTestPage(t, s)
	m := NewModel(page)

	var model tea.Model = m
	for _, r := range "gear" {
		model, _ = model.Update(keyRunes(string(r)))
	}

	assert.Eventually(t, func() bool { return len(s.Pages()) == 1 }, time.Second, 5*time.Millisecond)
	ctrl.Wait()

	model, _ = model.Update(RefreshMsg{})
	view := model.View()

	assert.Equal(t, "gear", page.Snapshot().Query)
	assert.Equal(t, []int{0}, s.Pages())
	assert.Contains(t, view, "gear widget")
	assert.Contains(t, view, "Page 1 / 3")
}

func TestModel_PaginationKeys(t *testing.T) {
	s := &recordingSearcher{}
	page, ctrl := newTestPage(t, s)
	var model tea.Model = NewModel(page)

	// Prev on the first page does nothing.
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyLeft})
	ctrl.Wait()
	assert.Empty(t, s.Pages())

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	ctrl.Wait()
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	ctrl.Wait()
	assert.Equal(t, controller.PageState{CurrentPage: 2, TotalPages: 3}, ctrl.State())

	// Last page: next does nothing.
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRight})
	ctrl.Wait()

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	ctrl.Wait()

	assert.Equal(t, []int{1, 2, 1}, s.Pages())

	model, _ = model.Update(RefreshMsg{})
	assert.Contains(t, model.View(), "Page 2 / 3")
}

func TestModel_EnterShowsRoutes(t *testing.T) {
	s := &recordingSearcher{}
	page, ctrl := newTestPage(t, s)
	require.NoError(t, ctrl.FetchAndRender(context.Background(), "bolt", 0))

	var model tea.Model = NewModel(page)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	view := model.View()
	assert.Contains(t, view, "/products/details/1")
	assert.Contains(t, view, "/products/edit/1")
	assert.Contains(t, view, "/products/delete/1")
}

func TestModel_QuitKeys(t *testing.T) {
	page := NewPage("1", "1")
	m := NewModel(page)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowResize(t *testing.T) {
	page := NewPage("1", "1")
	var model tea.Model = NewModel(page)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := model.(Model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
