package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedLedger, "ledger at %s", "package.metadata")

	if err.Code != ErrCodeMalformedLedger {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedLedger)
	}

	if err.Message != "ledger at package.metadata" {
		t.Errorf("Message = %v, want %v", err.Message, "ledger at package.metadata")
	}

	expected := "MALFORMED_LEDGER: ledger at package.metadata"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(ErrCodeIO, cause, "write Cargo.toml")

	if err.Code != ErrCodeIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIO)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidRule, "test"),
			code:     ErrCodeInvalidRule,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidRule, "test"),
			code:     ErrCodeIO,
			expected: false,
		},
		{
			name:     "outer code",
			err:      Wrap(ErrCodeDecisionFailed, New(ErrCodeInvalidRule, "inner"), "outer"),
			code:     ErrCodeDecisionFailed,
			expected: true,
		},
		{
			name:     "inner code",
			err:      Wrap(ErrCodeDecisionFailed, New(ErrCodeInvalidRule, "inner"), "outer"),
			code:     ErrCodeInvalidRule,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("Cargo.toml: %w", New(ErrCodeMalformedLedger, "inner")),
			code:     ErrCodeMalformedLedger,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeUnsupportedSource, "test"),
			expected: ErrCodeUnsupportedSource,
		},
		{
			name:     "wrapped with context",
			err:      fmt.Errorf("crates/a/Cargo.toml: %w", New(ErrCodeMalformedLedger, "ledger is not a table")),
			expected: "crates/a/Cargo.toml: ledger is not a table",
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeIO, errors.New("no such file"), "read Cargo.toml"),
			expected: "read Cargo.toml: no such file",
		},
		{
			name:     "wrapped with context",
			err:      fmt.Errorf("crates/a/Cargo.toml: %w", New(ErrCodeMalformedLedger, "ledger is not a table")),
			expected: "crates/a/Cargo.toml: ledger is not a table",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
