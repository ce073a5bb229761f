// Package errs defines the scan error taxonomy. Initialization errors are
// fatal for a whole scan, navigation errors are fatal for one platform only,
// extraction errors are per-item and counted rather than propagated.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies a scan error.
type Type string

const (
	TypeInitialization Type = "initialization"
	TypeNavigation     Type = "navigation"
	TypeExtraction     Type = "extraction"
	TypeValidation     Type = "validation"
	TypePersistence    Type = "persistence"
	TypeConfiguration  Type = "configuration"
	TypeRateBudget     Type = "rate_budget"
)

// ScanError carries platform/area/attempt context alongside the cause.
type ScanError struct {
	Type     Type
	Platform string
	Area     string
	Attempts int
	Message  string
	Err      error
	Time     time.Time
}

func (e *ScanError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Platform != "" {
		prefix += " " + e.Platform
	}
	if e.Area != "" {
		prefix += "/" + e.Area
	}
	msg := e.Message
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the operation behind the error is worth retrying.
func (e *ScanError) Retryable() bool {
	switch e.Type {
	case TypeNavigation, TypePersistence:
		return true
	default:
		return false
	}
}

// New creates a ScanError of the given type.
func New(t Type, platform, area, message string, err error) *ScanError {
	return &ScanError{
		Type:     t,
		Platform: platform,
		Area:     area,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewInitialization marks a browser/session setup failure, fatal for the scan.
func NewInitialization(area, message string, err error) *ScanError {
	return New(TypeInitialization, "", area, message, err)
}

// NewNavigation marks a page load or selector wait that failed after retries.
func NewNavigation(platform, area, message string, attempts int, err error) *ScanError {
	e := New(TypeNavigation, platform, area, message, err)
	e.Attempts = attempts
	return e
}

// NewExtraction marks a single-item extraction failure.
func NewExtraction(platform, message string, err error) *ScanError {
	return New(TypeExtraction, platform, "", message, err)
}

// NewPersistence marks a per-item upsert failure.
func NewPersistence(platform, message string, err error) *ScanError {
	return New(TypePersistence, platform, "", message, err)
}

// NewConfiguration marks invalid or missing configuration.
func NewConfiguration(message string, err error) *ScanError {
	return New(TypeConfiguration, "", "", message, err)
}

// NewRateBudget marks an exhausted daily request budget.
func NewRateBudget(message string) *ScanError {
	return New(TypeRateBudget, "", "", message, nil)
}

// TypeOf returns the taxonomy type of err, or "" if err is not a ScanError.
func TypeOf(err error) Type {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}
