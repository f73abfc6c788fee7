package errors

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

func TestMetadataError(t *testing.T) {
	underlying := errors.New("expected 6 fields, got 4")
	err := NewMetadataError("meta.csv", 7, "", underlying)

	if err.Type != ErrorTypeMetadata {
		t.Errorf("Expected Type to be ErrorTypeMetadata, got %v", err.Type)
	}

	if err.Line != 7 {
		t.Errorf("Expected Line to be 7, got %d", err.Line)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "metadata meta.csv:7: expected 6 fields, got 4"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMetadataErrorWithField(t *testing.T) {
	err := NewMetadataError("meta.csv", 3, "seed", errors.New("invalid syntax"))

	expectedMsg := "metadata meta.csv:3 field seed: invalid syntax"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestDataErrorMissing(t *testing.T) {
	err := NewDataError(DataMissing, "chi32_sequential", "/data/chi32_sequential.bin", os.ErrNotExist)

	if err.Type != ErrorTypeData {
		t.Errorf("Expected Type to be ErrorTypeData, got %v", err.Type)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected error to unwrap to os.ErrNotExist")
	}

	expectedMsg := "reference data for chi32_sequential missing (/data/chi32_sequential.bin): file does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestDataErrorTruncated(t *testing.T) {
	err := NewDataError(DataTruncated, "chi32_feedback", "feedback.bin", io.ErrUnexpectedEOF).
		WithCounts(65535, 100)

	if err.Expected != 65535 || err.Read != 100 {
		t.Errorf("Expected counts 65535/100, got %d/%d", err.Expected, err.Read)
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected error to unwrap to io.ErrUnexpectedEOF")
	}

	expectedMsg := "reference data for chi32_feedback is truncated (feedback.bin): expected 65535 values, read 100"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestStrategyError(t *testing.T) {
	err := NewStrategyError("sequental", "sequential")

	if err.Type != ErrorTypeStrategy {
		t.Errorf("Expected Type to be ErrorTypeStrategy, got %v", err.Type)
	}

	expectedMsg := `unknown strategy "sequental" (available: sequential, swapped, feedback); did you mean "sequential"?`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	noHint := NewStrategyError("zzz", "")
	if noHint.Error() != `unknown strategy "zzz" (available: sequential, swapped, feedback)` {
		t.Errorf("Unexpected message without suggestion: %q", noHint.Error())
	}
}

func TestArgumentError(t *testing.T) {
	underlying := errors.New("invalid syntax")
	err := NewArgumentError("seed", "0xZZ", underlying)

	if err.Type != ErrorTypeArgument {
		t.Errorf("Expected Type to be ErrorTypeArgument, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `invalid seed argument "0xZZ": invalid syntax`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid value")
	err := NewConfigError("field_name", "invalid_value", underlying)

	if err.Field != "field_name" {
		t.Errorf("Expected Field to be 'field_name', got %s", err.Field)
	}

	if err.Value != "invalid_value" {
		t.Errorf("Expected Value to be 'invalid_value', got %s", err.Value)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `config error for field field_name (value invalid_value): invalid value`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})

	if len(multiErr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(multiErr.Errors))
	}

	errMsg := multiErr.Error()
	if len(errMsg) < 10 || errMsg[:10] != "3 errors: " {
		t.Errorf("Expected message to start with '3 errors: ', got %q", errMsg)
	}

	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("Expected 'error 1', got %q", singleErr.Error())
	}

	emptyErr := NewMultiError([]error{})
	if emptyErr.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got %q", emptyErr.Error())
	}
	if emptyErr.ErrorOrNil() != nil {
		t.Errorf("Expected ErrorOrNil to return nil for an empty multi-error")
	}

	nilFiltered := NewMultiError([]error{err1, nil, err2, nil})
	if len(nilFiltered.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(nilFiltered.Errors))
	}

	if !errors.Is(multiErr, err2) {
		t.Errorf("Expected errors.Is to find err2 through Unwrap")
	}
}

func TestTimestamp(t *testing.T) {
	err := NewArgumentError("phase", "x", errors.New("test"))
	if err.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}

	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", err.Timestamp)
	}
}
