package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error categories used in logs, run stats, and metrics labels.
const (
	LabelTimeout     = "timeout"
	LabelConnection  = "connection"
	LabelForbidden   = "forbidden"
	LabelNotFound    = "not_found"
	LabelRateLimited = "rate_limited"
	LabelCanceled    = "canceled"
	LabelHTTPError   = "http_error"
	LabelOther       = "other"
)

// TransportError reports a failed page fetch: either a network-level fault
// or a non-2xx response. It is the only error type Fetch returns.
type TransportError struct {
	Page   int
	Status int // 0 for network-level faults
	Label  string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch page %d: %s (status %d): %v", e.Page, e.Label, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch page %d: %s: %v", e.Page, e.Label, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorLabel extracts the category from a fetch error for stats and metrics.
func ErrorLabel(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Label
	}
	return LabelOther
}

func classify(err error, statusCode int) *TransportError {
	label := LabelOther

	switch {
	case errors.Is(err, context.Canceled):
		label = LabelCanceled
	case errors.Is(err, context.DeadlineExceeded):
		label = LabelTimeout
	default:
		var netErr net.Error
		var opErr *net.OpError
		if errors.As(err, &netErr) && netErr.Timeout() {
			label = LabelTimeout
		} else if errors.As(err, &opErr) {
			label = LabelConnection
		}
	}

	if label == LabelOther && statusCode != 0 {
		switch statusCode {
		case http.StatusForbidden:
			label = LabelForbidden
		case http.StatusNotFound:
			label = LabelNotFound
		case http.StatusTooManyRequests:
			label = LabelRateLimited
		default:
			label = LabelHTTPError
		}
	}

	if err == nil && statusCode != 0 {
		err = fmt.Errorf("http status %d", statusCode)
	}

	return &TransportError{
		Status: statusCode,
		Label:  label,
		Err:    err,
	}
}
