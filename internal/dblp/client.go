// Package dblp is a client for the dblp computer science bibliography:
// free-text publication search and BibTeX record retrieval by key.
package dblp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/joachimneu/regenbib/internal/cache"
)

const (
	// BaseURL is the dblp site root.
	BaseURL = "https://dblp.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps publication search results.
	DefaultSearchLimit = 10
)

// Client is a rate-limited client for the dblp API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	cache      *cache.Cache
	cacheTTL   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCache short-circuits repeat lookups through a response cache.
func WithCache(store *cache.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a new dblp client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BibtexByKey fetches the condensed BibTeX record for a dblp key.
func (c *Client) BibtexByKey(ctx context.Context, key string) (string, error) {
	requestURL := fmt.Sprintf("%s/rec/%s.bib?param=0", c.baseURL, key)
	return c.get(ctx, requestURL)
}

// Search runs a free-text publication search. An empty result list is
// not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("h", strconv.Itoa(limit))

	body, err := c.get(ctx, c.baseURL+"/search/publ/api?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseSearch(body)
}

func (c *Client) get(ctx context.Context, requestURL string) (string, error) {
	return cache.Memoize(c.cache, "dblp", c.cacheTTL, c.fetch)(ctx, requestURL)
}

func (c *Client) fetch(ctx context.Context, requestURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, requestURL)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return string(data), nil
}

func parseSearch(body string) ([]Publication, error) {
	var resp searchResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	pubs := make([]Publication, 0, len(resp.Result.Hits.Hit))
	for _, hit := range resp.Result.Hits.Hit {
		pubs = append(pubs, hit.Info.publication())
	}
	return pubs, nil
}
