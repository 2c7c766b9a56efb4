package pagination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/product-search/internal/testutil"
	"github.com/Sternrassler/product-search/pkg/client"
	"github.com/Sternrassler/product-search/pkg/product"
)

// mapFetcher serves pages from a fixed slice of products.
type mapFetcher struct {
	items    []product.Product
	size     int
	failOn   map[int]bool
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	mu       sync.Mutex
	queries  []string
}

func (f *mapFetcher) FetchPage(ctx context.Context, q string, page int) (*product.Page, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}

	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failOn[page] {
		return nil, errors.New("boom")
	}

	total := (len(f.items) + f.size - 1) / f.size
	start := page * f.size
	end := start + f.size
	if end > len(f.items) {
		end = len(f.items)
	}
	return &product.Page{Content: f.items[start:end], Number: page, TotalPages: total}, nil
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher(&mapFetcher{}, Config{})
	assert.Equal(t, 4, bf.config.MaxConcurrency)
	assert.Equal(t, 10*time.Second, bf.config.Timeout)
}

func TestFetchAll_SinglePage(t *testing.T) {
	f := &mapFetcher{items: testutil.SampleProducts(3), size: 10}
	bf := NewBatchFetcher(f, DefaultConfig())

	result, err := bf.FetchAll(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 1, result.TotalPages)
	assert.Equal(t, 1, result.Fetched)
	assert.Len(t, result.Products, 3)
}

func TestFetchAll_OrderAndConcurrency(t *testing.T) {
	f := &mapFetcher{items: testutil.SampleProducts(95), size: 10, delay: 10 * time.Millisecond}
	bf := NewBatchFetcher(f, Config{MaxConcurrency: 3, Timeout: time.Second})

	result, err := bf.FetchAll(context.Background(), "nut")
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalPages)
	assert.Equal(t, 10, result.Fetched)
	require.Len(t, result.Products, 95)
	for i, p := range result.Products {
		assert.Equal(t, int64(i+1), p.ID)
	}
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(3))
	for _, q := range f.queries {
		assert.Equal(t, "nut", q)
	}
}

func TestFetchAll_PartialFailure(t *testing.T) {
	f := &mapFetcher{items: testutil.SampleProducts(40), size: 10, failOn: map[int]bool{2: true}}
	bf := NewBatchFetcher(f, DefaultConfig())

	result, err := bf.FetchAll(context.Background(), "")
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []int{2}, result.Failed)
	assert.Equal(t, 3, result.Fetched)
	assert.Len(t, result.Products, 30)
}

func TestFetchAll_FirstPageFails(t *testing.T) {
	f := &mapFetcher{items: testutil.SampleProducts(40), size: 10, failOn: map[int]bool{0: true}}
	bf := NewBatchFetcher(f, DefaultConfig())

	result, err := bf.FetchAll(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestFetchAll_MaxPages(t *testing.T) {
	f := &mapFetcher{items: testutil.SampleProducts(50), size: 10}
	bf := NewBatchFetcher(f, Config{MaxPages: 2})

	result, err := bf.FetchAll(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalPages)
	assert.Equal(t, 2, result.Fetched)
	assert.Len(t, result.Products, 20)
}

func TestFetchAll_AgainstServer(t *testing.T) {
	mock := testutil.NewMockSearchServer()
	defer mock.Close()
	total := mock.SetPages(testutil.SampleProducts(23), 10)

	c, err := client.New(client.DefaultConfig(mock.URL()))
	require.NoError(t, err)

	result, err := NewBatchFetcher(c, DefaultConfig()).FetchAll(context.Background(), "product")
	require.NoError(t, err)

	assert.Equal(t, total, result.TotalPages)
	assert.Len(t, result.Products, 23)
	assert.Equal(t, total, mock.GetRequestCount())
}
