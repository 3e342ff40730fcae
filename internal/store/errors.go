package store

import "fmt"

// ValidationError reports input rejected at the logging boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// FormatError reports an import document that cannot be accepted.
// The store is left unchanged when it is returned.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data format: %s: %v", e.Reason, e.Err)
	}
	return "invalid data format: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// ExportError reports a failure to serialise or write an export.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed: %v", e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
