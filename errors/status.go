package errors

import "errors"

// Status is the numeric outcome reported to guests in place of an error value.
type Status uint32

const (
	StatusOk Status = iota
	StatusNotFound
	StatusFailure
	StatusOutOfMemory
	StatusHandleClosed
	StatusInvalidCursor
	StatusInvalidInput
)

var statusNames = [...]string{
	StatusOk:            "ok",
	StatusNotFound:      "not-found",
	StatusFailure:       "failure",
	StatusOutOfMemory:   "out-of-memory",
	StatusHandleClosed:  "handle-closed",
	StatusInvalidCursor: "invalid-cursor",
	StatusInvalidInput:  "invalid-input",
}

// StatusNames lists status names in code order.
func StatusNames() []string {
	out := make([]string, len(statusNames))
	copy(out, statusNames[:])
	return out
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// StatusOf maps err onto the boundary taxonomy. Errors not produced by this
// package are failures; out-of-bounds guest pointers are reported as invalid
// input.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOk
	}
	var e *Error
	if !errors.As(err, &e) {
		return StatusFailure
	}
	switch e.Kind {
	case KindNotFound:
		return StatusNotFound
	case KindOutOfMemory:
		return StatusOutOfMemory
	case KindHandleClosed:
		return StatusHandleClosed
	case KindInvalidCursor:
		return StatusInvalidCursor
	case KindInvalidInput, KindOutOfBounds:
		return StatusInvalidInput
	default:
		return StatusFailure
	}
}

// MessageOf returns the boundary message for err
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}
