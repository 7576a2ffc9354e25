package arxiv

import "errors"

// Common errors returned by the arXiv client.
var (
	// ErrNotFound indicates the archive has no paper for the id.
	ErrNotFound = errors.New("not found on arXiv")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("arXiv rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("arXiv API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with arXiv")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from arXiv")
)

// IsNotFound returns true if the error indicates a missing paper.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
