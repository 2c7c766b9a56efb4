// Package product defines the wire types returned by the product search endpoint.
package product

import (
	"fmt"
)

// Route prefixes for the server-rendered product pages.
const (
	EditPathPrefix    = "/products/edit/"
	DetailsPathPrefix = "/products/details/"
	DeletePathPrefix  = "/products/delete/"
)

// Product is a single row of a search result page.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`

	// CreatedAt is an ISO-8601 timestamp. Empty when the server sent null.
	CreatedAt string `json:"createdAt"`
}

// LineTotal returns quantity * unit price. Absent values decode as 0.
func (p Product) LineTotal() float64 {
	return p.Quantity * p.UnitPrice
}

// EditPath returns the edit route for the product.
func (p Product) EditPath() string {
	return fmt.Sprintf("%s%d", EditPathPrefix, p.ID)
}

// DetailsPath returns the details route for the product.
func (p Product) DetailsPath() string {
	return fmt.Sprintf("%s%d", DetailsPathPrefix, p.ID)
}

// DeletePath returns the delete route for the product.
func (p Product) DeletePath() string {
	return fmt.Sprintf("%s%d", DeletePathPrefix, p.ID)
}

// Page is one page of search results.
type Page struct {
	// Content holds the products in server order.
	Content []Product `json:"content"`

	// Number is the zero-based index of this page.
	Number int `json:"number"`

	// TotalPages is the number of pages for the query (at least 1).
	TotalPages int `json:"totalPages"`
}

// Normalize applies the defaults for absent fields: empty content,
// page 0 and a single page.
func (p *Page) Normalize() {
	if p.Content == nil {
		p.Content = []Product{}
	}
	if p.Number < 0 {
		p.Number = 0
	}
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
}

// IsLast reports whether this page is the last one.
func (p *Page) IsLast() bool {
	return p.Number >= p.TotalPages-1
}
