package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated reports a credential without a usable application
// identity claim, or no credential at all.
var ErrUnauthenticated = errors.New("no application identity on credential")

// ForbiddenError reports a submission whose declared application does not
// match the application claim on the presenting credential. The application
// name is the caller's own input and safe to echo back.
type ForbiddenError struct {
	Application string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("application %q does not match the credential's application claim", e.Application)
}

// ValidationError carries the complete, ordered list of field-level and
// cross-field failures for one submission. It is never truncated to the first
// failure, so a client can fix every issue in one round trip.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid log entry: " + strings.Join(e.Errors, "; ")
}

// StoreError reports a rejected or failed store operation. The wrapped cause
// is logged server-side and never echoed verbatim to clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
