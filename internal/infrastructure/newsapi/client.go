package newsapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MaterialityScanner/internal/config"
	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/ports"
	"MaterialityScanner/internal/pubdate"
)

const (
	maxDisplay = 100
	userAgent  = "MaterialityScanner/1.0"
	cacheScope = "newsapi:"
)

// ErrMissingCredentials is returned by NewClient when the endpoint or API keys are absent.
var ErrMissingCredentials = errors.New("news api credentials are not configured")

var errMalformed = errors.New("malformed response")

type statusError struct {
	code       int
	status     string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("news api returned %s", e.status)
}

// Client is the single gateway to the rate-limited news search API.
type Client struct {
	endpoint     string
	clientID     string
	clientSecret string
	sort         string

	pageSize      int
	maxStart      int
	maxRetries    int
	minInterval   time.Duration
	maxRetryAfter time.Duration

	http     *http.Client
	throttle *throttle
	jitter   func() time.Duration
	cache    ports.SearchCache
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.NewsSearcher = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache enables the raw page cache.
func WithCache(cache ports.SearchCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("component", "newsapi")
		}
	}
}

// WithLocation sets the zone for publish dates that carry none.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewClient validates credentials and builds a throttled client.
func NewClient(cfg config.NewsAPIConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxDisplay {
		pageSize = maxDisplay
	}
	maxStart := cfg.MaxStart
	if maxStart <= 0 {
		maxStart = 1000
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sort := cfg.Sort
	if sort == "" {
		sort = "date"
	}

	c := &Client{
		endpoint:      cfg.Endpoint,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		sort:          sort,
		pageSize:      pageSize,
		maxStart:      maxStart,
		maxRetries:    maxRetries,
		minInterval:   cfg.MinInterval,
		maxRetryAfter: cfg.MaxRetryAfter,
		http:          &http.Client{Timeout: timeout},
		throttle:      newThrottle(cfg.MinInterval, cfg.JitterMin, cfg.JitterMax),
		jitter:        uniformJitter(cfg.JitterMin, cfg.JitterMax),
		location:      time.UTC,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchResponse struct {
	Total   int               `json:"total"`
	Start   int               `json:"start"`
	Display int               `json:"display"`
	Items   []domain.NewsItem `json:"items"`
}

// Search fetches one page of results.
func (c *Client) Search(ctx context.Context, keyword string, display int, sort string, start int) (ports.SearchPage, error) {
	if display <= 0 || display > maxDisplay {
		display = maxDisplay
	}
	if sort == "" {
		sort = c.sort
	}
	if start < 1 {
		start = 1
	}

	query := url.Values{}
	query.Set("query", keyword)
	query.Set("display", strconv.Itoa(display))
	query.Set("sort", sort)
	query.Set("start", strconv.Itoa(start))
	encoded := query.Encode()

	cacheKey := cacheScope + hashKey(encoded)
	if resp, ok := c.cached(ctx, cacheKey); ok {
		return ports.SearchPage{Items: resp.Items, Total: resp.Total}, nil
	}

	body, resp, err := c.fetchWithRetry(ctx, c.endpoint+"?"+encoded)
	if err != nil {
		return ports.SearchPage{}, fmt.Errorf("search %q start=%d: %w", keyword, start, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body); err != nil {
			c.warn("cache store failed", "error", err)
		}
	}

	return ports.SearchPage{Items: resp.Items, Total: resp.Total}, nil
}

// SearchByDateRange pages through results and keeps items published within
// [from, start of the day after to). maxResults <= 0 collects everything reachable.
func (c *Client) SearchByDateRange(ctx context.Context, keyword string, from, to time.Time, maxResults int) (ports.SearchPage, error) {
	until := pubdate.StartOfDayAfter(to)
	matched := make([]domain.NewsItem, 0)

	for start := 1; start <= c.maxStart; start += c.pageSize {
		page, err := c.Search(ctx, keyword, c.pageSize, c.sort, start)
		if err != nil {
			return ports.SearchPage{}, err
		}
		if len(page.Items) == 0 {
			break
		}

		older := 0
		for _, item := range page.Items {
			published, err := pubdate.Parse(item.PubDate, c.location)
			if err != nil {
				c.debug("skip item with unparseable date", "pubDate", item.PubDate, "error", err)
				continue
			}
			if published.Before(from) {
				older++
				continue
			}
			if !published.Before(until) {
				continue
			}
			matched = append(matched, item)
			if maxResults > 0 && len(matched) >= maxResults {
				return ports.SearchPage{Items: matched[:maxResults], Total: maxResults}, nil
			}
		}

		if page.Total > 0 && start+len(page.Items) > page.Total {
			break
		}
		// Date-sorted pages are newest first; a page entirely before the range ends the scan.
		if c.sort == "date" && older == len(page.Items) {
			break
		}
	}

	return ports.SearchPage{Items: matched, Total: len(matched)}, nil
}

func (c *Client) cached(ctx context.Context, key string) (searchResponse, bool) {
	if c.cache == nil {
		return searchResponse{}, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.warn("cache lookup failed", "error", err)
		return searchResponse{}, false
	}
	if !ok {
		return searchResponse{}, false
	}
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.warn("cached page is corrupt", "error", err)
		return searchResponse{}, false
	}
	return resp, true
}

func (c *Client) fetchWithRetry(ctx context.Context, target string) ([]byte, searchResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt, lastErr)
			c.debug("retrying news search", "attempt", attempt, "wait", wait, "error", lastErr)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, searchResponse{}, err
			}
		}

		if err := c.throttle.wait(ctx); err != nil {
			return nil, searchResponse{}, err
		}

		body, resp, err := c.fetch(ctx, target)
		if err == nil {
			return body, resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, searchResponse{}, ctxErr
		}
		if !retryable(err) {
			return nil, searchResponse{}, err
		}
		lastErr = err
	}
	return nil, searchResponse{}, fmt.Errorf("retries exhausted after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, searchResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, searchResponse{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, searchResponse{}, &statusError{
			code:       resp.StatusCode,
			status:     resp.Status,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, searchResponse{}, fmt.Errorf("read body: %w", err)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, searchResponse{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return body, decoded, nil
}

// backoff returns the wait before retry number attempt (1-based).
func (c *Client) backoff(attempt int, cause error) time.Duration {
	var se *statusError
	if errors.As(cause, &se) && se.code == http.StatusTooManyRequests && se.retryAfter > 0 {
		if c.maxRetryAfter > 0 && se.retryAfter > c.maxRetryAfter {
			return c.maxRetryAfter
		}
		return se.retryAfter
	}
	wait := c.minInterval << (attempt - 1)
	if c.jitter != nil {
		wait += c.jitter()
	}
	return wait
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests || se.code == http.StatusRequestTimeout
	}
	return true
}

func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
