// Package sources provides the upstream price source registry, the
// bounded-retry fetcher, and the per-source payload normalizers.
package sources

import "fmt"

// ErrorKind classifies a per-source failure.
type ErrorKind string

const (
	// KindConfiguration indicates a missing required credential. Fatal for
	// that source only; no network call is attempted.
	KindConfiguration ErrorKind = "configuration_error"
	// KindNetwork indicates a transport-level failure.
	KindNetwork ErrorKind = "network_error"
	// KindTimeout indicates that an attempt exceeded its configured duration.
	KindTimeout ErrorKind = "timeout"
	// KindHTTP indicates a non-2xx response; the status is preserved.
	KindHTTP ErrorKind = "http_error"
	// KindParse indicates that the upstream payload did not match the
	// expected shape.
	KindParse ErrorKind = "parse_error"
	// KindInvalidSource indicates an unknown source identifier.
	KindInvalidSource ErrorKind = "invalid_source"
)

// FetchError is a structured per-source failure. It travels as data inside
// reports and outcomes rather than unwinding past the aggregator.
type FetchError struct {
	Source  string    `json:"source,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Source, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
}

// Transient reports whether the failure is worth a retry.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindHTTP:
		return true
	default:
		return false
	}
}

func newParseError(source, format string, args ...interface{}) *FetchError {
	return &FetchError{
		Source:  source,
		Kind:    KindParse,
		Message: fmt.Sprintf(format, args...),
	}
}

func newTimeoutError(source string) *FetchError {
	return &FetchError{
		Source:  source,
		Kind:    KindTimeout,
		Message: "request timed out",
	}
}
