// Package render turns search results into table rows for the product listing.
//
// Rows are produced in two shapes: a display Row holding formatted cell text,
// and the <tr> markup the listing page's table body expects. All product names
// pass through EscapeHTML before they reach markup.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/product-search/pkg/product"
)

// DisplayLayout is the timestamp format shown in the created-at column.
const DisplayLayout = "2006-01-02 15:04"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// localLayouts are timestamp layouts without a zone; they are read in local time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// FormatDate renders an ISO-8601 timestamp as YYYY-MM-DD HH:MM in local time.
// Empty input yields "". Input that cannot be parsed is returned unchanged.
func FormatDate(iso string) string {
	if iso == "" {
		return ""
	}

	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.Local().Format(DisplayLayout)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.Local); err == nil {
			return t.Format(DisplayLayout)
		}
	}
	// Date-only forms are UTC midnight.
	if t, err := time.Parse("2006-01-02", iso); err == nil {
		return t.Local().Format(DisplayLayout)
	}

	return iso
}

// FormatNumber prints a number in its shortest form (6, 2.5, 1234.56).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Row is the display form of one product.
type Row struct {
	ID        string
	Name      string
	Quantity  string
	UnitPrice string
	LineTotal string
	CreatedAt string

	EditHref    string
	DetailsHref string
	DeleteHref  string
}

// NewRow formats a product for display.
func NewRow(p product.Product) Row {
	return Row{
		ID:          strconv.FormatInt(p.ID, 10),
		Name:        p.Name,
		Quantity:    FormatNumber(p.Quantity),
		UnitPrice:   FormatNumber(p.UnitPrice),
		LineTotal:   FormatNumber(p.LineTotal()),
		CreatedAt:   FormatDate(p.CreatedAt),
		EditHref:    p.EditPath(),
		DetailsHref: p.DetailsPath(),
		DeleteHref:  p.DeletePath(),
	}
}

// Cells returns the six data cells in column order.
func (r Row) Cells() []string {
	return []string{r.ID, r.Name, r.Quantity, r.UnitPrice, r.LineTotal, r.CreatedAt}
}

// HTML returns the <tr> markup for the row.
func (r Row) HTML() string {
	var b strings.Builder
	b.WriteString("<tr>")
	fmt.Fprintf(&b, "<td>%s</td>", r.ID)
	fmt.Fprintf(&b, "<td>%s</td>", EscapeHTML(r.Name))
	fmt.Fprintf(&b, `<td class="text-end">%s</td>`, r.Quantity)
	fmt.Fprintf(&b, `<td class="text-end">%s</td>`, r.UnitPrice)
	fmt.Fprintf(&b, `<td class="text-end">%s</td>`, r.LineTotal)
	fmt.Fprintf(&b, "<td>%s</td>", EscapeHTML(r.CreatedAt))
	b.WriteString("<td>")
	fmt.Fprintf(&b, `<a href="%s" class="btn btn-sm btn-outline-primary">Edit</a>`, r.EditHref)
	fmt.Fprintf(&b, `<a href="%s" class="btn btn-sm btn-outline-info">Details</a>`, r.DetailsHref)
	fmt.Fprintf(&b, `<a href="%s" class="btn btn-sm btn-outline-danger">Delete</a>`, r.DeleteHref)
	b.WriteString("</td></tr>")
	return b.String()
}
