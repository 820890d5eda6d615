package contracts

import (
	"encoding/json"
	"fmt"
)

// Reason explains why a derived value is absent
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInsufficientData Reason = "insufficient_data" // lookback window too short
	ReasonInvalidInput     Reason = "invalid_input"     // zero denominator etc.
	ReasonUnknownTicker    Reason = "unknown_ticker"    // ticker missing from a lookup
	ReasonMissingProfile   Reason = "missing_profile"   // no company profile / industry
	ReasonMissingField     Reason = "missing_field"     // upstream row present, field null
)

// Maybe is a derived value that is either Present or Absent with a reason.
// Absent never means zero: callers must treat it as a failed condition.
type Maybe[T any] struct {
	value  T
	ok     bool
	reason Reason
}

// Present wraps a computed value
func Present[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

// Absent records why a value could not be computed
func Absent[T any](reason Reason) Maybe[T] {
	return Maybe[T]{reason: reason}
}

// FromPtr converts a nullable upstream field
func FromPtr[T any](p *T) Maybe[T] {
	if p == nil {
		return Absent[T](ReasonMissingField)
	}
	return Present(*p)
}

// Get returns the value and whether it is present
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// IsPresent reports whether a value was computed
func (m Maybe[T]) IsPresent() bool {
	return m.ok
}

// Reason returns ReasonNone for present values
func (m Maybe[T]) Reason() Reason {
	if m.ok {
		return ReasonNone
	}
	return m.reason
}

// OrElse returns the value or def. Only for display; never for predicates.
func (m Maybe[T]) OrElse(def T) T {
	if m.ok {
		return m.value
	}
	return def
}

func (m Maybe[T]) String() string {
	if m.ok {
		return fmt.Sprint(m.value)
	}
	return "absent(" + string(m.reason) + ")"
}

// MarshalJSON renders present values as-is and absent ones as null
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if !m.ok {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}
