package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 100
	defaultHeight = 24

	// chromeHeight is the space taken by title, input, pagination and help.
	chromeHeight = 8

	searchCharLimit = 120
)

// Styles for the listing page.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true)
	tableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)

// RefreshMsg tells the model the page changed.
type RefreshMsg struct{}

// Model is the Bubble Tea model for the listing page.
type Model struct {
	page   *Page
	input  textinput.Model
	table  table.Model
	status string
	width  int
	height int
}

// NewModel creates the model for page. The search box starts with the
// page's current query.
func NewModel(page *Page) Model {
	ti := textinput.New()
	ti.Placeholder = "Search products..."
	ti.CharLimit = searchCharLimit
	ti.Prompt = "Search: "
	ti.SetValue(page.Snapshot().Query)
	ti.Focus()

	m := Model{
		page:   page,
		input:  ti,
		table:  newProductTable(defaultHeight - chromeHeight),
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.syncRows()
	return m
}

func newProductTable(height int) table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 30},
		{Title: "Qty", Width: 8},
		{Title: "Unit Price", Width: 12},
		{Title: "Total", Width: 12},
		{Title: "Created", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = tableSelectedStyle
	t.SetStyles(s)

	return t
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, page refreshes and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := m.height - chromeHeight; h > 1 {
			m.table.SetHeight(h)
		}
		return m, nil

	case RefreshMsg:
		m.syncRows()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "ctrl+p":
			m.page.ClickPrev()
			return m, nil
		case "right", "ctrl+n":
			m.page.ClickNext()
			return m, nil
		case "up", "down", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case "enter":
			m.status = m.selectedDetails()
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.status = ""
			m.page.SetQuery(after)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// syncRows copies the page rows into the table.
func (m *Model) syncRows() {
	snap := m.page.Snapshot()
	rows := make([]table.Row, len(snap.Rows))
	for i, r := range snap.Rows {
		rows[i] = table.Row(r.Cells())
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

// selectedDetails returns the action routes of the highlighted row.
func (m Model) selectedDetails() string {
	snap := m.page.Snapshot()
	i := m.table.Cursor()
	if i < 0 || i >= len(snap.Rows) {
		return ""
	}
	r := snap.Rows[i]
	return fmt.Sprintf("details %s  edit %s  delete %s", r.DetailsHref, r.EditHref, r.DeleteHref)
}

// View renders the page.
func (m Model) View() string {
	snap := m.page.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Products"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")
	b.WriteString(renderPagination(snap))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("type to search • ←/→ page • ↑/↓ select • enter routes • esc quit"))
	return b.String()
}

func renderPagination(snap Snapshot) string {
	prev := enabledStyle.Render("‹ Prev")
	if snap.PrevDisabled {
		prev = disabledStyle.Render("‹ Prev")
	}
	next := enabledStyle.Render("Next ›")
	if snap.NextDisabled {
		next = disabledStyle.Render("Next ›")
	}
	return fmt.Sprintf("%s   Page %s / %s   %s", prev, snap.CurrentText, snap.TotalText, next)
}
