package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Defaults of a [Fetcher].
const (
	DefaultTTL      = 24 * time.Hour
	DefaultAttempts = 3
	DefaultDelay    = time.Second
	DefaultTimeout  = 30 * time.Second

	// maxBody caps downloaded documents.
	maxBody = 64 << 20
	// keepFor bounds how long stale entries stay around for revalidation.
	keepFor = 30 * 24 * time.Hour
)

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetcher downloads and caches remote documents.
type Fetcher struct {
	Client *http.Client
	Cache  cache.Cache
	Logger *log.Logger

	TTL      time.Duration
	Attempts int
	Delay    time.Duration
}

// NewFetcher returns a fetcher with the package defaults. A nil cache
// disables caching.
func NewFetcher(c cache.Cache) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    c,
		Logger:   log.Default(),
		TTL:      DefaultTTL,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
	}
}

// entry is a cached response.
type entry struct {
	Body    []byte    `json:"body"`
	ETag    string    `json:"etag,omitempty"`
	Fetched time.Time `json:"fetched"`
}

func fetchKey(url string) string { return "fetch:" + cache.Hash([]byte(url)) }

// Fetch returns the body of url, from the cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := fetchKey(url)
	cached, ok := f.lookup(ctx, key)
	if ok && (f.TTL <= 0 || time.Since(cached.Fetched) < f.TTL) {
		f.Logger.Debug("fetch cache hit", "url", url)
		return cached.Body, nil
	}

	var etag string
	if ok {
		etag = cached.ETag
	}
	var (
		body        []byte
		newTag      string
		notModified bool
	)
	err := cache.Retry(ctx, f.Attempts, f.Delay, func() error {
		var err error
		body, newTag, notModified, err = f.get(ctx, url, etag)
		return err
	})
	if err != nil {
		return nil, err
	}

	if notModified {
		f.Logger.Debug("fetch not modified", "url", url)
		body, newTag = cached.Body, cached.ETag
	}
	f.store(ctx, key, entry{Body: body, ETag: newTag, Fetched: time.Now()})
	return body, nil
}

func (f *Fetcher) lookup(ctx context.Context, key string) (entry, bool) {
	data, hit, err := f.Cache.Get(ctx, key)
	if err != nil || !hit {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, false
	}
	return e, true
}

func (f *Fetcher) store(ctx context.Context, key string, e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := f.Cache.Set(ctx, key, data, keepFor); err != nil {
		f.Logger.Warn("fetch cache write failed", "error", err)
	}
}

// get performs one request.
func (f *Fetcher) get(ctx context.Context, url, etag string) (body []byte, tag string, notModified bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", false, ctx.Err()
		}
		return nil, "", false, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && etag != "":
		return nil, etag, true, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", false, errors.New(errors.ErrCodeNotFound, "%s not found", url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, "", false, cache.Retryable(fmt.Errorf("%w: %s returned %s", cache.ErrNetwork, url, resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", false, errors.New(errors.ErrCodeInvalidInput, "%s returned %s", url, resp.Status)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, "", false, cache.Retryable(fmt.Errorf("%w: read body: %v", cache.ErrNetwork, err))
	}
	return body, resp.Header.Get("ETag"), false, nil
}
