package errors

import (
	"fmt"
	"time"
)

// Error types for the CHI32 tooling
type ErrorType string

const (
	// Canonical vector errors
	ErrorTypeMetadata ErrorType = "metadata"
	ErrorTypeData     ErrorType = "data"

	// Argument and configuration errors
	ErrorTypeStrategy ErrorType = "strategy"
	ErrorTypeArgument ErrorType = "argument"
	ErrorTypeConfig   ErrorType = "config"
)

// DataErrorKind classifies reference data failures
type DataErrorKind string

const (
	DataMissing   DataErrorKind = "missing"
	DataTruncated DataErrorKind = "truncated"
	DataRead      DataErrorKind = "read"
)

// MetadataError reports a single unusable row in a canonical metadata table.
// The row is skipped; parsing continues with the next one.
type MetadataError struct {
	Type       ErrorType
	Path       string
	Line       int
	Field      string
	Underlying error
	Timestamp  time.Time
}

// NewMetadataError creates a metadata error for the given line
func NewMetadataError(path string, line int, field string, err error) *MetadataError {
	return &MetadataError{
		Type:       ErrorTypeMetadata,
		Path:       path,
		Line:       line,
		Field:      field,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *MetadataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("metadata %s:%d field %s: %v", e.Path, e.Line, e.Field, e.Underlying)
	}
	return fmt.Sprintf("metadata %s:%d: %v", e.Path, e.Line, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *MetadataError) Unwrap() error {
	return e.Underlying
}

// DataError represents a reference data file that cannot be used
type DataError struct {
	Type       ErrorType
	Kind       DataErrorKind
	Case       string
	Path       string
	Expected   int
	Read       int
	Underlying error
	Timestamp  time.Time
}

// NewDataError creates a new data error
func NewDataError(kind DataErrorKind, caseName, path string, err error) *DataError {
	return &DataError{
		Type:       ErrorTypeData,
		Kind:       kind,
		Case:       caseName,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithCounts records how many values were expected and how many were read
func (e *DataError) WithCounts(expected, read int) *DataError {
	e.Expected = expected
	e.Read = read
	return e
}

// Error implements the error interface
func (e *DataError) Error() string {
	if e.Kind == DataTruncated {
		return fmt.Sprintf("reference data for %s is truncated (%s): expected %d values, read %d",
			e.Case, e.Path, e.Expected, e.Read)
	}
	return fmt.Sprintf("reference data for %s %s (%s): %v", e.Case, e.Kind, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *DataError) Unwrap() error {
	return e.Underlying
}

// StrategyError represents an unknown strategy name or code
type StrategyError struct {
	Type       ErrorType
	Input      string
	Suggestion string
	Timestamp  time.Time
}

// NewStrategyError creates a new strategy error
func NewStrategyError(input, suggestion string) *StrategyError {
	return &StrategyError{
		Type:       ErrorTypeStrategy,
		Input:      input,
		Suggestion: suggestion,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *StrategyError) Error() string {
	msg := fmt.Sprintf("unknown strategy %q (available: sequential, swapped, feedback)", e.Input)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// ArgumentError represents an invalid command-line argument. It is always fatal.
type ArgumentError struct {
	Type       ErrorType
	Argument   string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewArgumentError creates a new argument error
func NewArgumentError(argument, value string, err error) *ArgumentError {
	return &ArgumentError{
		Type:       ErrorTypeArgument,
		Argument:   argument,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s argument %q: %v", e.Argument, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ArgumentError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
