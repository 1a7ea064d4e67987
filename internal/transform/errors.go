package transform

import "fmt"

// RowCountError indicates the standings list did not contain the expected
// number of teams for the competition
type RowCountError struct {
	Expected int
	Actual   int
}

func (e *RowCountError) Error() string {
	return fmt.Sprintf("expected %d teams in standings, got %d", e.Expected, e.Actual)
}

// MissingFieldError indicates a required field was absent or null
type MissingFieldError struct {
	Field string
	Team  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q for team %q", e.Field, e.Team)
}

// FieldTypeError indicates a field value could not be cast to its
// declared type (e.g. a non-integer rank)
type FieldTypeError struct {
	Field string
	Team  string
	Value string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q for team %q is not a valid integer: %q", e.Field, e.Team, e.Value)
}

// ConsistencyError indicates a derived field disagreed with its source
// fields. The value is never silently corrected.
type ConsistencyError struct {
	Field string
	Team  string
	Want  int
	Got   int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent field %q for team %q: want %d, got %d", e.Field, e.Team, e.Want, e.Got)
}
