package apperrors

import "errors"

// Input errors
var (
	ErrInvalidMetric = errors.New("invalid metric value")
	ErrMissingMetric = errors.New("metric value is missing")
	ErrNoPeriods     = errors.New("at least one period is required")
	ErrUnknownMetric = errors.New("unknown metric")
)

// Persistence errors
var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrConstraintFailed  = errors.New("record violates a table constraint")
	ErrPersistenceFailed = errors.New("persistence failed")
)

// Fatal errors abort the whole run
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMigrationsDir      = errors.New("migrations directory unreadable")
)

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	return Is(err, ErrStorageUnavailable, ErrMigrationsDir)
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
