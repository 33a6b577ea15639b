// Package logoerr defines the error taxonomy shared by the logo pipeline.
package logoerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a required credential or setting is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream is returned when the background-removal service call fails.
	ErrUpstream = errors.New("upstream service error")
	// ErrInvalidImage is returned when input cannot be decoded, trimmed or is too large.
	ErrInvalidImage = errors.New("invalid image")
	// ErrProcessing is returned when analysis, outline, lightening or compositing fails.
	ErrProcessing = errors.New("processing error")
)

// UpstreamError carries the diagnostic details of a failed background-removal call.
// StatusCode is zero when the request never produced a response.
type UpstreamError struct {
	Err        error
	Body       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status %d: %s", ErrUpstream, e.StatusCode, e.Body)
	}

	return fmt.Sprintf("%v: %v", ErrUpstream, e.Err)
}

// Unwrap lets errors.Is match both ErrUpstream and the transport cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}

	return []error{ErrUpstream, e.Err}
}

// InvalidImage wraps cause as an ErrInvalidImage with context.
func InvalidImage(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrInvalidImage, msg)
	}

	return fmt.Errorf("%w: %s: %w", ErrInvalidImage, msg, cause)
}

// Processing wraps cause as an ErrProcessing with context.
func Processing(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrProcessing, msg)
	}

	return fmt.Errorf("%w: %s: %w", ErrProcessing, msg, cause)
}
