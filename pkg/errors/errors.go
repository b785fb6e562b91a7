package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents transport-level or non-2xx response errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParse represents malformed upstream payload errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeValidation represents normalized-record invariant violations
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStore represents persistence gateway errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a pipeline-specific error
type ScrapeError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch:
		return true
	case ErrorTypeStore:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, source, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(source, message string, err error) *ScrapeError {
	return New(ErrorTypeFetch, source, message, err)
}

// NewParse creates a new parse error
func NewParse(source, message string, err error) *ScrapeError {
	return New(ErrorTypeParse, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *ScrapeError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewStore creates a new store error
func NewStore(source, message string, err error) *ScrapeError {
	return New(ErrorTypeStore, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
