package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput      = errors.New("input is incomplete")
	ErrLocked            = errors.New("active record is locked")
	ErrNoActiveRecord    = errors.New("no active record")
	ErrParseFailed       = errors.New("generation produced unusable output")
	ErrTransport         = errors.New("generation service unreachable")
	ErrMalformedResponse = errors.New("response is not a JSON object")
)

// InputError lists the request fields that blocked a generation attempt.
type InputError struct {
	Missing []string
	Invalid []string
}

func (e *InputError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrMissingInput, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error { return ErrMissingInput }

// ParseFailedError 携带第二次（修复）调用的原始文本，便于人工排查。
type ParseFailedError struct {
	Raw string
}

func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("%s (%d bytes of raw text)", ErrParseFailed, len(e.Raw))
}

func (e *ParseFailedError) Unwrap() error { return ErrParseFailed }

// TransportError wraps provider-level failures: network, auth, rate limit, timeout.
type TransportError struct {
	Attempt string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%s attempt): %v", ErrTransport, e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }
