package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required attribute is absent from a raw record
	ErrMissingField = errors.New("missing field")

	// ErrMalformedTimestamp is returned when a timestamp is not a numeric epoch
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrMalformedRecord is returned when a document is not a JSON object
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptyInput marks an input collection with zero records
	ErrEmptyInput = errors.New("empty input")
)

// RecordError describes why a single raw record was excluded
type RecordError struct {
	Source string
	Index  int
	Field  string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s record %d: %v", e.Source, e.Index, e.Err)
	}
	return fmt.Sprintf("%s record %d: %v: %s", e.Source, e.Index, e.Err, e.Field)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
