// Package httputil fetches remote graph documents.
//
// A [Fetcher] downloads a URL with automatic retry for transient failures
// (network errors, 5xx and 429 responses) and keeps response bodies in a
// [cache.Cache] under the "fetch" key namespace:
//
//	f := httputil.NewFetcher(c)
//	data, err := f.Fetch(ctx, "https://example.com/graph.json")
//
// Cached entries live for [Fetcher.TTL]. Once an entry is stale the fetcher
// revalidates it with If-None-Match when the server sent an ETag, and keeps
// the cached body on 304 Not Modified.
//
// A 404 response is reported with code NOT_FOUND; other non-2xx responses
// are reported with code INVALID_INPUT.
package httputil
