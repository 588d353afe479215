// Package fetcher implements the cached, retrying HTML fetcher of
// spec.md §4.1.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dbcls/humandbs-sub002/internal/config"
	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

// PageKind distinguishes a Research detail page from a release-history page.
type PageKind string

const (
	PageDetail  PageKind = "detail"
	PageRelease PageKind = "release"
)

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// Fetcher retrieves detail/release HTML for (humVersionId, language,
// pageKind), consulting the skip list and release-URL override table before
// every fetch and persisting responses to a content-addressed Cache.
type Fetcher struct {
	cfg     config.FetchConfig
	baseURL string
	hotfix  mapping.CrawlHotfix
	cache   *Cache
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// New constructs a Fetcher.
func New(cfg config.FetchConfig, baseURL string, hotfix mapping.CrawlHotfix, cache *Cache, log *logrus.Logger) *Fetcher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "portal-fetch",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Fetcher{
		cfg:     cfg,
		baseURL: baseURL,
		hotfix:  hotfix,
		cache:   cache,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: breaker,
		log:     log,
	}
}

// Skip reports whether humID is on the configured skip list.
func (f *Fetcher) Skip(humID string) bool {
	for _, id := range f.hotfix.SkipHumIDs {
		if id == humID {
			return true
		}
	}
	return false
}

// URLFor resolves the page URL for (humVersionId, lang, kind), consulting
// the release-URL override table first.
func (f *Fetcher) URLFor(humVersionID string, lang domain.Lang, kind PageKind) string {
	key := fmt.Sprintf("%s/%s", humVersionID, lang)
	if override, ok := f.hotfix.ReleaseURLOverrides[key]; ok {
		return f.baseURL + override
	}
	humID, version, _ := domain.ParseHumVersionID(humVersionID)
	suffix := "detail"
	if kind == PageRelease {
		suffix = "release"
	}
	return fmt.Sprintf("%s/%s/%s/v%d/%s", f.baseURL, lang, humID, version, suffix)
}

// Fetch retrieves the page body, honoring useCache and retrying transient
// failures with exponential backoff (initial 100ms, x2, capped at 5s, ±25%
// jitter, max 3 retries by default — overridable via FetchConfig).
func (f *Fetcher) Fetch(ctx context.Context, humVersionID string, lang domain.Lang, kind PageKind, useCache bool) ([]byte, error) {
	url := f.URLFor(humVersionID, lang, kind)

	if useCache {
		if body, ok, err := f.cache.Get(url); err != nil {
			return nil, domain.NewPipelineError(domain.ErrFetch, "reading cache", err)
		} else if ok {
			return body, nil
		}
	}

	body, err := f.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Put(url, body); err != nil {
		f.log.WithError(err).WithField("url", url).Warn("failed to persist fetch cache entry")
	}
	return body, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	backoff := f.cfg.InitialBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	cap := f.cfg.BackoffCap
	if cap <= 0 {
		cap = 5 * time.Second
	}
	multiplier := f.cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}
	jitter := f.cfg.JitterFraction
	if jitter <= 0 {
		jitter = 0.25
	}
	maxRetries := f.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := jitteredDelay(backoff, jitter)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff = time.Duration(float64(backoff) * multiplier)
			if backoff > cap {
				backoff = cap
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := f.breaker.Execute(func() (interface{}, error) {
			return f.doRequest(ctx, url)
		})
		if err == nil {
			return result.([]byte), nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, domain.NewPipelineError(domain.ErrFetch, fmt.Sprintf("non-retryable failure for %s", url), err)
		}
	}

	return nil, domain.NewPipelineError(domain.ErrFetch, fmt.Sprintf("exhausted retries for %s", url), lastErr)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

func (f *Fetcher) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &retryableError{err: err}
		}
		return body, nil
	}

	if retryableStatus[resp.StatusCode] {
		return nil, &retryableError{err: fmt.Errorf("retryable status %d for %s", resp.StatusCode, url)}
	}
	return nil, fmt.Errorf("non-retryable status %d for %s", resp.StatusCode, url)
}

func jitteredDelay(base time.Duration, jitterFraction float64) time.Duration {
	delta := float64(base) * jitterFraction
	offset := (rand.Float64()*2 - 1) * delta
	d := time.Duration(float64(base) + offset)
	if d < 0 {
		d = 0
	}
	return d
}
