package collector

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/loganintech/go-reddit/v2/reddit"
)

// NotFoundError means the partition does not exist upstream. Not retried.
type NotFoundError struct {
	Partition string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("partition %q not found", e.Partition)
}

// ForbiddenError means access to the partition was denied. Not retried.
type ForbiddenError struct {
	Partition string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("access to partition %q forbidden", e.Partition)
}

// TransientError wraps timeouts, connection resets and upstream rate
// rejections. Callers may retry with backoff; the client itself never does.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthError means the upstream rejected our credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsTransient reports whether err may be retried by the caller.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyErr maps a go-reddit error onto the client's error taxonomy.
func classifyErr(partition string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *reddit.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case 401:
			return &AuthError{Err: err}
		case 403:
			return &ForbiddenError{Partition: partition}
		case 404:
			return &NotFoundError{Partition: partition}
		}
	}

	var rateErr *reddit.RateLimitError
	if errors.As(err, &rateErr) {
		return &TransientError{Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{Err: err}
	}

	return fmt.Errorf("api error: %w", err)
}
