package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGameNotFound is returned when the catalog has no item for an id
	ErrGameNotFound = errors.New("game not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidImage is returned when an image payload is empty or not base64
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrUpstreamFailure is matched by every *UpstreamError
	ErrUpstreamFailure = errors.New("upstream request failed")

	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller may not act on a resource
	ErrForbidden = errors.New("forbidden")

	// ErrGroupNotFound is returned when a group does not exist or the caller is not in it
	ErrGroupNotFound = errors.New("group not found")

	// ErrInviteNotFound is returned for unknown invite codes
	ErrInviteNotFound = errors.New("invite not found")

	// ErrAlreadyMember is returned when joining a group twice
	ErrAlreadyMember = errors.New("already a member of this group")

	// ErrLastAdmin is returned when the only admin tries to leave a populated group
	ErrLastAdmin = errors.New("the last admin cannot leave while other members remain")

	// ErrCopyNotFound is returned when a library copy does not exist
	ErrCopyNotFound = errors.New("game copy not found")

	// ErrCopyUnavailable is returned when a copy is already requested or lent out
	ErrCopyUnavailable = errors.New("game copy is not available")

	// ErrLoanNotFound is returned when a loan does not exist
	ErrLoanNotFound = errors.New("loan not found")

	// ErrInvalidLoanState is returned for transitions not allowed from the current status
	ErrInvalidLoanState = errors.New("loan is not in a state that allows this action")
)

// UpstreamError describes a failed call to a third-party provider.
// Transient errors are worth retrying; everything else is final.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed: status %d", e.Provider, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return e.Provider + " request failed"
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstreamFailure) match any upstream error
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamFailure
}

// IsTransient reports whether err carries a retryable upstream failure
func IsTransient(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Transient
	}
	return false
}

// TransientStatus reports whether an HTTP status from a provider is worth retrying.
// BoardGameGeek answers 202 while it queues a request.
func TransientStatus(status int) bool {
	return status == 202 || status == 429 || status >= 500
}
