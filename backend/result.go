package backend

import (
	"fmt"
	"strings"
)

// Status is the outcome class of a backend operation.
type Status int

const (
	// StatusFail means the operation did not take effect.
	StatusFail Status = iota
	// StatusWeakSuccess means the operation succeeded with a caveat,
	// typically a fallback to a default.
	StatusWeakSuccess
	// StatusStrongSuccess means the operation succeeded as requested.
	StatusStrongSuccess
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusFail:
		return "fail"
	case StatusWeakSuccess:
		return "weak-success"
	case StatusStrongSuccess:
		return "strong-success"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the tri-state outcome of a backend operation with a
// human-readable diagnostic. Callers branch on OK and log Message.
type Result struct {
	Status  Status
	Message string

	// Err is the cause of a failure, wrapping one of the package errors.
	// It is nil on success.
	Err error
}

// Success returns a strong success.
func Success(msg string) Result {
	return Result{Status: StatusStrongSuccess, Message: msg}
}

// Weak returns a weak success.
func Weak(msg string) Result {
	return Result{Status: StatusWeakSuccess, Message: msg}
}

// Fail returns a failure of class kind. When cause is not nil its text is
// appended to msg and it is wrapped together with kind.
func Fail(kind error, msg string, cause error) Result {
	r := Result{Status: StatusFail, Message: msg}
	switch {
	case cause != nil:
		r.Message = msg + "\n" + cause.Error()
		r.Err = fmt.Errorf("%w: %s: %w", kind, strings.TrimSuffix(msg, "."), cause)
	case kind != nil:
		r.Err = fmt.Errorf("%w: %s", kind, strings.TrimSuffix(msg, "."))
	}
	return r
}

// OK reports whether the operation succeeded, weakly or strongly.
func (r Result) OK() bool { return r.Status != StatusFail }

// Cause returns the failure as an error, or nil on success.
func (r Result) Cause() error {
	if r.OK() {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("%s", r.Message)
}

// String formats the result for logs.
func (r Result) String() string {
	return r.Status.String() + ": " + r.Message
}
