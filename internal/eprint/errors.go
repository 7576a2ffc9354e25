package eprint

import "errors"

// Common errors returned by the ePrint client.
var (
	// ErrNotFound indicates the archive has no paper for the id.
	ErrNotFound = errors.New("not found on ePrint")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("ePrint rate limit exceeded")

	// ErrAPIError indicates a general service error.
	ErrAPIError = errors.New("ePrint service error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with ePrint")

	// ErrInvalidResponse indicates a page without the expected content.
	ErrInvalidResponse = errors.New("invalid response from ePrint")
)

// IsNotFound returns true if the error indicates a missing paper.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
