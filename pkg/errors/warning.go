package errors

import "fmt"

// WarningCode identifies why a row or reference was skipped.
type WarningCode string

// Warning codes. Warnings never abort an operation; they are collected and
// returned to the caller.
const (
	WarnMissingName         WarningCode = "MISSING_NAME"
	WarnDuplicateID         WarningCode = "DUPLICATE_ID"
	WarnUnresolvedReference WarningCode = "UNRESOLVED_REFERENCE"
	WarnInvalidRow          WarningCode = "INVALID_ROW"
	WarnSkippedRelationship WarningCode = "SKIPPED_RELATIONSHIP"
	WarnUnknownMember       WarningCode = "UNKNOWN_MEMBER"
	WarnUnknownRelationship WarningCode = "UNKNOWN_RELATIONSHIP"
)

// Warning is a non-fatal problem surfaced as data.
type Warning struct {
	Code    WarningCode `json:"code"`
	Index   int         `json:"index"`         // Row index in the input batch, -1 when not applicable
	Ref     string      `json:"ref,omitempty"` // Offending id or reference
	Message string      `json:"message"`
}

// NewWarning creates a warning that is not tied to an input row.
func NewWarning(code WarningCode, ref, format string, args ...any) *Warning {
	return &Warning{Code: code, Index: -1, Ref: ref, Message: fmt.Sprintf(format, args...)}
}

// RowWarning creates a warning for the row at index.
func RowWarning(code WarningCode, index int, ref, format string, args ...any) Warning {
	return Warning{Code: code, Index: index, Ref: ref, Message: fmt.Sprintf(format, args...)}
}

// String formats the warning for logs and terminal output.
func (w Warning) String() string {
	if w.Index >= 0 {
		return fmt.Sprintf("%s: row %d: %s", w.Code, w.Index, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
