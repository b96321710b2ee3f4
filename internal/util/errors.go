package util

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrCourseNotFound        = errors.New("course not found")
	ErrRecordNotFound        = errors.New("training record not found")
	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrEnrollmentCompleted   = errors.New("enrollment already completed")
	ErrRecordAlreadyApproved = errors.New("training record already approved")
	ErrQuizNotPassed         = errors.New("quiz score below pass percentage")
	ErrUnansweredQuestions   = errors.New("answer all questions before submitting")
	ErrSignatureRequired     = errors.New("signature is required")
	ErrInvalidViewToken      = errors.New("content viewing token is invalid or expired")
	ErrViewingIncomplete     = errors.New("content has not been viewed long enough")
	ErrViewingNotStarted     = errors.New("content viewing was not started")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrNoMediaURL            = errors.New("course has no media to probe")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
