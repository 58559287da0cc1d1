package errors

import stdErrors "errors"

// EngineError is a specialized error type for failures surfaced by the
// store's public set/get/remove operations — the error kinds the wire
// protocol and CLI need to tell apart from lower-level storage or index
// failures.
type EngineError struct {
	*baseError
	key       string
	segmentID uint64
	operation string
}

// NewEngineError creates a new engine-specific error with the provided context.
func NewEngineError(err error, code ErrorCode, msg string) *EngineError {
	return &EngineError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the EngineError type.
func (ee *EngineError) WithMessage(msg string) *EngineError {
	ee.baseError.WithMessage(msg)
	return ee
}

// WithCode sets the error code while preserving the EngineError type.
func (ee *EngineError) WithCode(code ErrorCode) *EngineError {
	ee.baseError.WithCode(code)
	return ee
}

// WithDetail adds contextual information while maintaining the EngineError type.
func (ee *EngineError) WithDetail(key string, value any) *EngineError {
	ee.baseError.WithDetail(key, value)
	return ee
}

// WithKey records which key the failing operation was acting on.
func (ee *EngineError) WithKey(key string) *EngineError {
	ee.key = key
	return ee
}

// WithSegmentID records which segment the failing operation touched.
func (ee *EngineError) WithSegmentID(id uint64) *EngineError {
	ee.segmentID = id
	return ee
}

// WithOperation records which engine operation was in progress.
func (ee *EngineError) WithOperation(op string) *EngineError {
	ee.operation = op
	return ee
}

// Key returns the key the failing operation was acting on.
func (ee *EngineError) Key() string { return ee.key }

// SegmentID returns the segment the failing operation touched.
func (ee *EngineError) SegmentID() uint64 { return ee.segmentID }

// Operation returns the name of the engine operation that failed.
func (ee *EngineError) Operation() string { return ee.operation }

// NewKeyNotFoundEngineError creates the error a remove of an absent key fails with.
func NewKeyNotFoundEngineError(key string) *EngineError {
	return NewEngineError(nil, ErrorCodeKeyNotFound, "Key not found").
		WithKey(key).
		WithOperation("Remove")
}

// NewUnexpectedCommandError creates the error a read fails with when the
// index points at bytes that did not decode as a Set command.
func NewUnexpectedCommandError(key string, segmentID uint64) *EngineError {
	return NewEngineError(nil, ErrorCodeUnexpectedCommand, "unexpected command variant decoded at indexed offset").
		WithKey(key).
		WithSegmentID(segmentID).
		WithOperation("Get")
}

// IsEngineError reports whether err is (or wraps) an *EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return stdErrors.As(err, &ee)
}

// AsEngineError extracts an *EngineError from err, if present anywhere in its chain.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if stdErrors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
