package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joachimneu/regenbib/internal/cache"
)

const (
	// BaseURL is the arXiv Atom query API endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps free-text search results.
	DefaultSearchLimit = 10
)

// Client is a rate-limited client for the arXiv Atom query API. The
// archive asks for no more than one request every three seconds.
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

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(3*time.Second), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PaperByID fetches the paper behind one id. The id may carry a version
// suffix; without one the archive reports its current version.
func (c *Client) PaperByID(ctx context.Context, id string) (*Paper, error) {
	q := url.Values{}
	q.Set("id_list", id)
	q.Set("max_results", "1")

	body, err := c.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	papers, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if len(papers) > 1 {
		return nil, fmt.Errorf("%w: %d feed entries for id %s", ErrInvalidResponse, len(papers), id)
	}
	return &papers[0], nil
}

// Search runs a free-text search over all metadata fields. An empty
// result list is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("max_results", strconv.Itoa(limit))

	body, err := c.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseFeed(body)
}

func (c *Client) get(ctx context.Context, requestURL string) (string, error) {
	return cache.Memoize(c.cache, "arxiv", c.cacheTTL, c.fetch)(ctx, requestURL)
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

// parseFeed extracts papers from an Atom feed. Error placeholders the
// API emits for malformed ids are dropped.
func parseFeed(data string) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal([]byte(data), &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var papers []Paper
	for _, e := range feed.Entries {
		id := strings.TrimSpace(e.ID)
		if id == "" || strings.Contains(id, "/api/errors") {
			continue
		}
		papers = append(papers, paperFromEntry(e))
	}
	return papers, nil
}

func paperFromEntry(e atomEntry) Paper {
	p := Paper{
		ID:              strings.TrimSpace(e.ID),
		Title:           collapseSpace(e.Title),
		Summary:         collapseSpace(e.Summary),
		PrimaryCategory: e.Primary.Term,
	}
	p.ShortID = shortID(p.ID)
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	return p
}

// shortID extracts the versioned short id from an abstract page URL.
func shortID(absURL string) string {
	if i := strings.Index(absURL, "/abs/"); i >= 0 {
		return absURL[i+len("/abs/"):]
	}
	return absURL
}

// collapseSpace folds the line wrapping the feed applies to titles and
// abstracts back into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
