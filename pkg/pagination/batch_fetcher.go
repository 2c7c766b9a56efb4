package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/product-search/pkg/product"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int
	// Timeout per page fetch.
	Timeout time.Duration
	// MaxPages caps the walk; 0 means no cap.
	MaxPages int
}

// DefaultConfig returns conservative defaults for a single application server.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        10 * time.Second,
	}
}

// PageFetcher fetches a single zero-based page of results for a query.
type PageFetcher interface {
	FetchPage(ctx context.Context, q string, page int) (*product.Page, error)
}

// PageResult is the outcome of fetching one page.
type PageResult struct {
	PageNumber int
	Page       *product.Page
	Error      error
}

// Result is everything collected by a walk.
type Result struct {
	// Products in page order, then server order within each page.
	Products []product.Product
	// TotalPages reported by the first page.
	TotalPages int
	// Fetched is the number of pages collected.
	Fetched int
	// Failed lists page indexes that could not be fetched.
	Failed []int
}

// BatchFetcher walks every page of a query in parallel.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches page 0 to learn the page count, then the remaining pages
// in parallel. When some pages fail the collected products are still
// returned together with an error naming how many pages are missing.
func (bf *BatchFetcher) FetchAll(ctx context.Context, q string) (*Result, error) {
	start := time.Now()

	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	first, err := bf.fetcher.FetchPage(firstCtx, q, 0)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	first.Normalize()

	totalPages := first.TotalPages
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		totalPages = bf.config.MaxPages
	}

	log.Info().
		Str("query", q).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pages := map[int]*product.Page{0: first}
	var (
		mu     sync.Mutex
		failed []int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for n := 1; n < totalPages; n++ {
		n := n
		g.Go(func() error {
			r := bf.fetchOne(gctx, q, n)

			mu.Lock()
			defer mu.Unlock()
			if r.Error != nil {
				log.Warn().
					Err(r.Error).
					Str("query", q).
					Int("page", n).
					Msg("Page fetch failed")
				failed = append(failed, n)
				return nil
			}
			pages[n] = r.Page
			return nil
		})
	}
	// Workers report failures through the failed list, so Wait only
	// returns nil.
	_ = g.Wait()

	result := &Result{
		TotalPages: first.TotalPages,
		Fetched:    len(pages),
	}

	indexes := make([]int, 0, len(pages))
	for n := range pages {
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)
	for _, n := range indexes {
		result.Products = append(result.Products, pages[n].Content...)
	}

	sort.Ints(failed)
	result.Failed = failed

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("fetch cancelled (partial data: %d/%d pages): %w", result.Fetched, totalPages, err)
	}
	if len(failed) > 0 {
		return result, fmt.Errorf("%d of %d pages failed (partial data: %d/%d pages)", len(failed), totalPages, result.Fetched, totalPages)
	}

	log.Info().
		Str("query", q).
		Int("pages", result.Fetched).
		Int("products", len(result.Products)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return result, nil
}

// fetchOne fetches one page with the per-page timeout.
func (bf *BatchFetcher) fetchOne(ctx context.Context, q string, n int) PageResult {
	if err := ctx.Err(); err != nil {
		return PageResult{PageNumber: n, Error: err}
	}

	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	page, err := bf.fetcher.FetchPage(pageCtx, q, n)
	if err != nil {
		return PageResult{PageNumber: n, Error: err}
	}
	page.Normalize()
	return PageResult{PageNumber: n, Page: page}
}
