package converr

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "row %d: got %d columns", 3, 7)

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}

	if err.Message != "row 3: got 7 columns" {
		t.Errorf("Message = %v, want %v", err.Message, "row 3: got 7 columns")
	}

	expected := "INVALID_FORMAT: row 3: got 7 columns"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNotFound, cause, "corpus %s", "perseus-1")

	if err.Code != ErrCodeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNotFound)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
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
			err:      New(ErrCodeAmbiguousPromotion, "test"),
			code:     ErrCodeAmbiguousPromotion,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeAmbiguousPromotion, "test"),
			code:     ErrCodeMissingMembers,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidFormat, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidFormat,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidFormat,
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
			err:      New(ErrCodeUnresolvedEdge, "test"),
			expected: ErrCodeUnresolvedEdge,
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

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "tlg0011.tlg003"},
		{name: "nested", id: "perseus/phi0448"},
		{name: "empty", id: "", wantErr: true},
		{name: "traversal", id: "../etc/passwd", wantErr: true},
		{name: "absolute", id: "/etc/passwd", wantErr: true},
		{name: "double slash", id: "a//b", wantErr: true},
		{name: "backslash", id: "a\\b", wantErr: true},
		{name: "control char", id: "a\x01b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInput {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateDeprel(t *testing.T) {
	tests := []struct {
		rel     string
		wantErr bool
	}{
		{rel: "nsubj"},
		{rel: "acl:relcl"},
		{rel: "", wantErr: true},
		{rel: "NSUBJ", wantErr: true},
		{rel: "nsubj:", wantErr: true},
		{rel: "ns ubj", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			err := ValidateDeprel(tt.rel)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDeprel(%q) = %v, wantErr %v", tt.rel, err, tt.wantErr)
			}
		})
	}
}
