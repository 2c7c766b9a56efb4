// Package testutil provides testing utilities for the product search client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/Sternrassler/product-search/pkg/product"
)

// SearchPath is the endpoint served by the mock.
const SearchPath = "/products/search"

// SearchRequest records one request received by the mock.
type SearchRequest struct {
	Query string
	Page  int
	RawQ  string
	Agent string
}

// MockSearchResponse overrides the behavior for one page index.
type MockSearchResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSearchServer is a configurable /products/search server for tests.
type MockSearchServer struct {
	server *httptest.Server

	mu        sync.RWMutex
	pages     map[int]product.Page
	overrides map[int]MockSearchResponse
	fallback  *MockSearchResponse
	requests  []SearchRequest
}

// NewMockSearchServer starts a mock server with no pages configured.
// Unconfigured pages answer with an empty single-page result.
func NewMockSearchServer() *MockSearchServer {
	m := &MockSearchServer{
		pages:     make(map[int]product.Page),
		overrides: make(map[int]MockSearchResponse),
	}

	r := chi.NewRouter()
	r.Get(SearchPath, m.handleSearch)
	m.server = httptest.NewServer(r)

	return m
}

// URL returns the mock server base URL.
func (m *MockSearchServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearchServer) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockSearchServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetPage configures the JSON page returned for a page index.
func (m *MockSearchServer) SetPage(index int, page product.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[index] = page
}

// SetPages splits products into pages of size and configures all of them.
func (m *MockSearchServer) SetPages(items []product.Product, size int) int {
	if size <= 0 {
		size = 10
	}
	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}

	for i := 0; i < total; i++ {
		start := i * size
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		m.SetPage(i, product.Page{
			Content:    append([]product.Product(nil), items[start:end]...),
			Number:     i,
			TotalPages: total,
		})
	}
	return total
}

// SetResponse overrides the response for a page index.
func (m *MockSearchServer) SetResponse(index int, resp MockSearchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[index] = resp
}

// SetDelay delays the response for a page index while keeping its content.
func (m *MockSearchServer) SetDelay(index int, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.overrides[index]
	o.Delay = delay
	m.overrides[index] = o
}

// SetFallback sets the response for every page without an override.
func (m *MockSearchServer) SetFallback(resp MockSearchResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &resp
}

// GetRequestCount returns the number of search requests received.
func (m *MockSearchServer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests.
func (m *MockSearchServer) Requests() []SearchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SearchRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request and whether one exists.
func (m *MockSearchServer) LastRequest() (SearchRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return SearchRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func (m *MockSearchServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	m.mu.Lock()
	m.requests = append(m.requests, SearchRequest{
		Query: r.URL.Query().Get("q"),
		Page:  page,
		RawQ:  r.URL.RawQuery,
		Agent: r.Header.Get("User-Agent"),
	})
	override, hasOverride := m.overrides[page]
	fallback := m.fallback
	body, hasPage := m.pages[page]
	m.mu.Unlock()

	if !hasOverride && fallback != nil {
		override, hasOverride = *fallback, true
	}

	if hasOverride && override.Delay > 0 {
		select {
		case <-time.After(override.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if hasOverride && override.StatusCode != 0 {
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}
	if hasOverride && override.Body != "" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(override.Body))
		return
	}

	if !hasPage {
		body = product.Page{Content: []product.Product{}, Number: page, TotalPages: 1}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, body)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockSearchResponse {
	return MockSearchResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockSearchResponse {
	return MockSearchResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
	}
}

// NewMalformedResponse creates a 200 OK response with a body that is not JSON.
func NewMalformedResponse() MockSearchResponse {
	return MockSearchResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>login</html>`,
	}
}

// SampleProducts returns n products with ascending ids.
func SampleProducts(n int) []product.Product {
	items := make([]product.Product, n)
	for i := range items {
		items[i] = product.Product{
			ID:        int64(i + 1),
			Name:      "Product " + strconv.Itoa(i+1),
			Quantity:  float64(i + 1),
			UnitPrice: 10,
			CreatedAt: "2024-03-05T08:30:00Z",
		}
	}
	return items
}
