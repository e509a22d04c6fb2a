package temperature

import "fmt"

// FormatError reports a CSV attachment whose header row is too narrow to
// be a sensor export. It aborts extraction of the whole attachment.
type FormatError struct {
	Filename string
	Columns  int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid CSV %q: found %d columns, expected at least 3", e.Filename, e.Columns)
}

// RowError reports a value in a data row that failed to parse. Type-parse
// failures abort extraction of the whole attachment, carrying the line
// number and offending value for the caller's log.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("unable to parse %s %q on line %d: %v", e.Field, e.Value, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
