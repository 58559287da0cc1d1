package errors

// IndexError provides specialized error handling for index-related operations.
// This structure extends the base error system with index-specific context
// while properly supporting method chaining through all base error methods.
type IndexError struct {
	// Embed the base error to inherit all standard error functionality
	// including error chaining, structured details, and error codes.
	*baseError

	// Identifies which key was being processed when the error occurred.
	// This is particularly valuable for debugging because it tells you exactly
	// which piece of data was involved in the failed operation.
	key string

	// Describes what index operation was being performed when the
	// error occurred (e.g., "Get", "Put", "Delete", "Replay"). This context
	// helps understand the system state and user actions that led to the error.
	operation string

	// Captures the size of the index at the time of the error.
	// This information helps diagnose capacity-related issues and provides
	// context about the scale of the system when problems occur.
	indexSize int
}

// NewIndexError creates a new index-specific error with the provided context.
// This constructor follows the same pattern as other error types in the system,
// taking a causing error, error code, and descriptive message.
func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{
		baseError: NewBaseError(err, code, msg),
	}
}

// Override base error methods to return *IndexError instead of *baseError.

// WithMessage updates the error message while maintaining the IndexError type.
func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IndexError type.
func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IndexError type.
func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// Index-specific methods that add domain-specific context to the error.
// These methods enable comprehensive error reporting for index operations
// while maintaining the fluent interface pattern for readable error construction.

// WithKey records which key was being processed when the error occurred.
// This information proves invaluable for debugging because it enables
// reproduction of the error by attempting the same operation on the same key.
func (ie *IndexError) WithKey(key string) *IndexError {
	ie.key = key
	return ie
}

// WithOperation records what index operation was being performed.
// This context helps understand the system state and operation sequence
// that led to the error condition, enabling more effective debugging.
func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

// WithIndexSize captures the size of the index when the error occurred.
// This information helps diagnose capacity-related issues and provides
// context about system scale when problems arise.
func (ie *IndexError) WithIndexSize(size int) *IndexError {
	ie.indexSize = size
	return ie
}

// Getter methods provide access to the IndexError-specific context.
// These methods enable error handling code to make informed decisions
// based on the specific context captured during error creation.

// Key returns the key that was being processed when the error occurred.
func (ie *IndexError) Key() string {
	return ie.key
}

// Operation returns the name of the operation that was being performed.
func (ie *IndexError) Operation() string {
	return ie.operation
}

// IndexSize returns the size of the index when the error occurred.
func (ie *IndexError) IndexSize() int {
	return ie.indexSize
}

// NewIndexCorruptionError creates an error for index corruption scenarios,
// used when replaying the segment log turns up a record that fails to
// decode (internal/store.Open) — the sole source of index errors this store
// produces.
func NewIndexCorruptionError(operation string, indexSize int, cause error) *IndexError {
	return NewIndexError(cause, ErrorCodeIndexCorrupted, "index data structure corrupted").
		WithOperation(operation).
		WithIndexSize(indexSize).
		WithDetail("corruption_detected", true).
		WithDetail("recovery_required", true).
		WithDetail("backup_recommended", true)
}
