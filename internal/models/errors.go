package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrInvalidConfig ErrorType = iota
	ErrKeyImport
	ErrSigning
	ErrFileOp
	ErrChangelog
	ErrRender
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrKeyImport:
		return "KeyImport"
	case ErrSigning:
		return "Signing"
	case ErrFileOp:
		return "FileOp"
	case ErrChangelog:
		return "Changelog"
	case ErrRender:
		return "Render"
	default:
		return "Unknown"
	}
}

// RelengError represents an error raised by one of the releng commands
type RelengError struct {
	Type ErrorType
	// Subject names the file or artifact the error is about, if any
	Subject string
	Err     error
}

// Error implements the error interface
func (e *RelengError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *RelengError) Unwrap() error {
	return e.Err
}
