// Package eprint is a client for the Cryptology ePrint Archive: paper
// search and retrieval of the BibTeX block published on a paper's page.
package eprint

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joachimneu/regenbib/internal/cache"
)

const (
	// BaseURL is the archive site root.
	BaseURL = "https://eprint.iacr.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps search results.
	DefaultSearchLimit = 10
)

// Paper is one search hit from the archive.
type Paper struct {
	// ID is the archive id, e.g. 2023/123.
	ID    string
	Title string
}

// String renders the hit the way a selection menu displays it.
func (p Paper) String() string {
	if p.Title == "" {
		return p.ID
	}
	return fmt.Sprintf("%s: %s", p.ID, p.Title)
}

// Client is a rate-limited client for the archive.
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

// NewClient creates a new ePrint client.
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

// BibtexByID fetches the paper page for an archive id and extracts the
// BibTeX block embedded in it.
func (c *Client) BibtexByID(ctx context.Context, id string) (string, error) {
	page, err := c.get(ctx, c.baseURL+"/"+id)
	if err != nil {
		return "", err
	}
	return extractBibtex(page)
}

// Search runs a free-text search over the archive. An empty result
// list is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := url.Values{}
	q.Set("q", query)

	page, err := c.get(ctx, c.baseURL+"/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	papers := parseSearch(page)
	if len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

func (c *Client) get(ctx context.Context, requestURL string) (string, error) {
	return cache.Memoize(c.cache, "eprint", c.cacheTTL, c.fetch)(ctx, requestURL)
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

var (
	bibtexBlockRe = regexp.MustCompile(`(?s)<pre[^>]*\bid="bibtex"[^>]*>(.*?)</pre>`)
	titleLinkRe   = regexp.MustCompile(`(?s)<a\b([^>]*\bpapertitle\b[^>]*)>(.*?)</a>`)
	hrefIDRe      = regexp.MustCompile(`href="/(\d{4}/\d+)"`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// extractBibtex pulls the BibTeX block out of a paper page.
func extractBibtex(page string) (string, error) {
	m := bibtexBlockRe.FindStringSubmatch(page)
	if m == nil {
		return "", fmt.Errorf("%w: no bibtex block on page", ErrInvalidResponse)
	}
	return strings.TrimSpace(html.UnescapeString(m[1])), nil
}

// parseSearch pulls paper ids and titles out of a search results page.
func parseSearch(page string) []Paper {
	var papers []Paper
	seen := make(map[string]bool)
	for _, m := range titleLinkRe.FindAllStringSubmatch(page, -1) {
		href := hrefIDRe.FindStringSubmatch(m[1])
		if href == nil || seen[href[1]] {
			continue
		}
		seen[href[1]] = true
		title := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(m[2], "")))
		papers = append(papers, Paper{ID: href[1], Title: title})
	}
	return papers
}
