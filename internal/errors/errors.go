// Package errors defines the stable error codes the analyzer surfaces to
// callers. Fatal codes abort a run before matching begins; everything else
// is logged and the run continues.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// GraphMalformed indicates the symbol graph document is unreadable or invalid
	GraphMalformed ErrorCode = "GRAPH_MALFORMED"
	// GraphMissing indicates the symbol graph document was not found
	GraphMissing ErrorCode = "GRAPH_MISSING"
	// RulesMalformed indicates a rule document failed to parse
	RulesMalformed ErrorCode = "RULES_MALFORMED"
	// UnknownOperator indicates a rule references an unsupported predicate operator
	UnknownOperator ErrorCode = "UNKNOWN_OPERATOR"
	// UnknownKind indicates a rule binds a variable to an unsupported symbol kind
	UnknownKind ErrorCode = "UNKNOWN_KIND"
	// ExtractFailed indicates source fact extraction failed for the whole project
	ExtractFailed ErrorCode = "EXTRACT_FAILED"
	// ReportWriteFailed indicates a report artifact could not be written
	ReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"
	// StoreUnavailable indicates the run history store could not be opened
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AnalyzerError represents an analyzer error with a stable code and context
// pointing at the offending document or rule.
type AnalyzerError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	RuleID  string      `json:"ruleId,omitempty"`
	Path    string      `json:"path,omitempty"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a new AnalyzerError
func New(code ErrorCode, message string, cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *AnalyzerError) Error() string {
	msg := e.Message
	if e.RuleID != "" {
		msg = fmt.Sprintf("%s (rule %q)", msg, e.RuleID)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *AnalyzerError) Unwrap() error {
	return e.cause
}

// WithRule attaches the offending rule id
func (e *AnalyzerError) WithRule(ruleID string) *AnalyzerError {
	e.RuleID = ruleID
	return e
}

// WithPath attaches the offending document path
func (e *AnalyzerError) WithPath(path string) *AnalyzerError {
	e.Path = path
	return e
}

// WithDetails adds details to the error
func (e *AnalyzerError) WithDetails(details interface{}) *AnalyzerError {
	e.Details = details
	return e
}

// IsFatal reports whether an error code aborts the run. Resolution and
// evaluation gaps never produce these codes.
func IsFatal(code ErrorCode) bool {
	switch code {
	case GraphMalformed, GraphMissing, RulesMalformed, UnknownOperator, UnknownKind:
		return true
	}
	return false
}
