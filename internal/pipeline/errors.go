package pipeline

import "fmt"

// InputFormatError means a supplied byte stream is not a readable spreadsheet.
type InputFormatError struct {
	Name string
	Err  error
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("%s is not a readable spreadsheet: %v", e.Name, e.Err)
}

func (e *InputFormatError) Unwrap() error { return e.Err }

// SchemaError means a required column is absent after header normalization.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s is missing required column %q", e.Table, e.Column)
}

type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed during %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
