package gateway

import "expopush/internal/types"

// resultKind discriminates the three mutually exclusive result variants.
type resultKind int

const (
	kindUnknown resultKind = iota
	kindOK
	kindFailed
	kindFatal
)

// Result is the outcome of one relay call: ok, partial failure, or fatal.
// Exactly one variant is ever active. Accessors for the inactive variants
// return empty values rather than panicking, so callers can probe freely.
//
// The zero Result reports none of the variants; only the constructors
// produce a meaningful value.
type Result struct {
	kind    resultKind
	errors  []types.DeliveryError
	message string
}

// OK returns the result of a batch the relay accepted in full.
func OK() Result {
	return Result{kind: kindOK}
}

// Failed returns the result of a batch with per-recipient rejections.
// The error order matches ticket order, which matches recipient order.
func Failed(errors []types.DeliveryError) Result {
	errs := make([]types.DeliveryError, len(errors))
	copy(errs, errors)
	return Result{kind: kindFailed, errors: errs}
}

// Fatal returns the result of a batch the relay could not process at all.
func Fatal(message string) Result {
	return Result{kind: kindFatal, message: message}
}

// IsOK reports whether the whole batch was accepted.
func (r Result) IsOK() bool {
	return r.kind == kindOK
}

// IsFailure reports whether some recipients were rejected.
func (r Result) IsFailure() bool {
	return r.kind == kindFailed
}

// IsFatal reports whether the whole batch failed.
func (r Result) IsFatal() bool {
	return r.kind == kindFatal
}

// Errors returns the per-recipient failures, or an empty slice when the
// result is not a partial failure.
func (r Result) Errors() []types.DeliveryError {
	if r.kind != kindFailed {
		return nil
	}
	out := make([]types.DeliveryError, len(r.errors))
	copy(out, r.errors)
	return out
}

// Message returns the fatal message, or "" when the result is not fatal.
func (r Result) Message() string {
	if r.kind != kindFatal {
		return ""
	}
	return r.message
}
