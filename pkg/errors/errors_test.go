package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownMember, "member %q not found", "42")

	if err.Code != ErrCodeUnknownMember {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownMember)
	}

	if err.Message != `member "42" not found` {
		t.Errorf("Message = %v, want %v", err.Message, `member "42" not found`)
	}

	expected := `UNKNOWN_MEMBER: member "42" not found`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidFormat, cause, "decode payload")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
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

	expected := "INVALID_FORMAT: decode payload: unexpected EOF"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
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
			err:      New(ErrCodeSelfReference, "test"),
			code:     ErrCodeSelfReference,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSelfReference, "test"),
			code:     ErrCodeUnknownMember,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInvalidFormat, New(ErrCodeEmptyDataset, "inner"), "outer"),
			code:     ErrCodeInvalidFormat,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidMember,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidMember,
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
		{"Error type", New(ErrCodeDuplicateRelationship, "test"), ErrCodeDuplicateRelationship},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
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
	if got := UserMessage(New(ErrCodeEmptyDataset, "no members found")); got != "no members found" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestIsValidation(t *testing.T) {
	validation := []Code{
		ErrCodeInvalidMember, ErrCodeInvalidRelationship, ErrCodeSelfReference,
		ErrCodeUnknownMember, ErrCodeUnknownRelationship,
		ErrCodeDuplicateMember, ErrCodeDuplicateRelationship,
	}
	for _, c := range validation {
		if !IsValidation(New(c, "x")) {
			t.Errorf("IsValidation(%s) = false, want true", c)
		}
	}
	for _, c := range []Code{ErrCodeUnsupportedFormat, ErrCodeEmptyDataset, ErrCodeInternal} {
		if IsValidation(New(c, "x")) {
			t.Errorf("IsValidation(%s) = true, want false", c)
		}
	}
}

func TestWarningString(t *testing.T) {
	row := RowWarning(WarnMissingName, 3, "", "row has no name field")
	if got := row.String(); got != "MISSING_NAME: row 3: row has no name field" {
		t.Errorf("String() = %q", got)
	}

	w := NewWarning(WarnUnknownMember, "x", "member %q not found", "x")
	if w.Index != -1 {
		t.Errorf("Index = %d, want -1", w.Index)
	}
	if got := w.String(); got != `UNKNOWN_MEMBER: member "x" not found` {
		t.Errorf("String() = %q", got)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidMember,
		ErrCodeInvalidRelationship,
		ErrCodeSelfReference,
		ErrCodeUnknownMember,
		ErrCodeUnknownRelationship,
		ErrCodeDuplicateMember,
		ErrCodeDuplicateRelationship,
		ErrCodeUnsupportedFormat,
		ErrCodeEmptyDataset,
		ErrCodeInvalidFormat,
		ErrCodeInvalidLayout,
		ErrCodeInvalidInput,
		ErrCodeNotFound,
		ErrCodeConflict,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
