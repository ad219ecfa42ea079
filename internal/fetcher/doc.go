// Package fetcher walks the upstream airing schedule page by page.
//
// Fetch requests pages newest-first through a PageSource, retrying each page
// a bounded number of times with linear backoff (avast/retry-go), floored by
// any server Retry-After hint, and pausing a fixed delay after each page that
// continues pagination. Pagination stops at
// the first of: no further pages, a page whose oldest entry precedes the
// recency cutoff, the page safety bound, or a page that exhausted its
// retries. A failed page never aborts the run; the entries gathered so far
// are returned with the failure recorded in the Result.
package fetcher
