// Package pagination walks every page of a product search.
//
// The listing page shows one page at a time; exports need the whole result
// set. The search endpoint reports totalPages on every response, so the walk
// fetches page 0 first and then requests the remaining pages with bounded
// concurrency.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(searchClient, pagination.DefaultConfig())
//	result, err := fetcher.FetchAll(ctx, "bolt")
//
// The batch fetcher:
//   - Fetches the first page to determine total pages
//   - Fetches remaining pages with at most MaxConcurrency in flight
//   - Returns products in page order
//   - Returns partial data plus an error when pages fail
package pagination
