package render

import (
	"strings"
	"sync"
)

// HTMLTableBody collects rendered rows as markup. It satisfies the
// controller's table body element and is safe for concurrent use.
type HTMLTableBody struct {
	mu   sync.Mutex
	rows []Row
}

// NewHTMLTableBody returns an empty table body.
func NewHTMLTableBody() *HTMLTableBody {
	return &HTMLTableBody{}
}

// Clear removes all rows.
func (t *HTMLTableBody) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = nil
}

// AppendRow adds a row at the end.
func (t *HTMLTableBody) AppendRow(r Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, r)
}

// Rows returns a copy of the current rows.
func (t *HTMLTableBody) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *HTMLTableBody) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// HTML returns the markup of all rows, one per line.
func (t *HTMLTableBody) HTML() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for _, r := range t.rows {
		b.WriteString(r.HTML())
		b.WriteByte('\n')
	}
	return b.String()
}
