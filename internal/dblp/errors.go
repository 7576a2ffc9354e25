package dblp

import "errors"

// Common errors returned by the dblp client.
var (
	// ErrNotFound indicates the index has no record for the key.
	ErrNotFound = errors.New("not found on dblp")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("dblp rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("dblp API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with dblp")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from dblp")
)

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
