// Error types used across the substitution and deletion pipeline.

package templater

import (
	"fmt"
	"strings"
)

// ParseError represents a failure while scanning or classifying markers.
type ParseError struct {
	Message  string
	Token    string
	Position int
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near '%s': %s", e.Position, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// NewParseError creates a new parse error.
func NewParseError(message, token string, position int) error {
	return &ParseError{Message: message, Token: token, Position: position}
}

// DataMissingError reports a standard or numeric path that did not
// resolve. It is recoverable and only surfaces as an error in strict
// mode; otherwise it is counted in the render stats.
type DataMissingError struct {
	Path string
	Part string
}

func (e *DataMissingError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("data missing for path '%s' in part '%s'", e.Path, e.Part)
	}
	return fmt.Sprintf("data missing for path '%s'", e.Path)
}

// NewDataMissingError creates a new data-missing error.
func NewDataMissingError(path, part string) error {
	return &DataMissingError{Path: path, Part: part}
}

// InvariantError reports a broken internal splice precondition, e.g. a
// marker's recorded span no longer matching the live text. It aborts the
// single part being processed, never the whole render.
type InvariantError struct {
	Part    string
	Offset  int
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in part '%s' at offset %d: %s", e.Part, e.Offset, e.Message)
}

// NewInvariantError creates a new invariant violation error.
func NewInvariantError(part string, offset int, message string) error {
	return &InvariantError{Part: part, Offset: offset, Message: message}
}

// BoundaryError reports a deletion directive whose enclosing element or
// page-break anchor could not be located. Recoverable; recorded per file.
type BoundaryError struct {
	Part      string
	Directive string
	Message   string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("boundary error in part '%s' for %s: %s", e.Part, e.Directive, e.Message)
}

// NewBoundaryError creates a new structural-boundary error.
func NewBoundaryError(part, directive, message string) error {
	return &BoundaryError{Part: part, Directive: directive, Message: message}
}

// CacheError reports misuse of the memoization cache, such as an
// undefined store name. Fatal at the call site.
type CacheError struct {
	Store   string
	Message string
}

func (e *CacheError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("cache error for store '%s': %s", e.Store, e.Message)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

// NewCacheError creates a new cache misuse error.
func NewCacheError(store, message string) error {
	return &CacheError{Store: store, Message: message}
}

// MultiError collects multiple errors.
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector.
func NewMultiError() *MultiError {
	return &MultiError{errors: make([]error, 0)}
}

// Add adds an error to the collection (ignores nil errors).
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors.
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors.
func (m *MultiError) Errors() []error {
	return m.errors
}

// Err returns the multi-error or nil if empty.
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}
	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// ContextError adds context to an existing error.
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	var contextParts []string
	for k, v := range e.Context {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
	}
	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context.
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{Operation: operation, Context: context, Cause: err}
}

// IsDataMissingError checks if an error is a data-missing error.
func IsDataMissingError(err error) bool {
	_, ok := err.(*DataMissingError)
	return ok
}

// IsInvariantError checks if an error is an invariant violation.
func IsInvariantError(err error) bool {
	_, ok := err.(*InvariantError)
	return ok
}

// IsBoundaryError checks if an error is a structural-boundary error.
func IsBoundaryError(err error) bool {
	_, ok := err.(*BoundaryError)
	return ok
}

// IsCacheError checks if an error is a cache misuse error.
func IsCacheError(err error) bool {
	_, ok := err.(*CacheError)
	return ok
}
