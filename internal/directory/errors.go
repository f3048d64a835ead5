package directory

import "errors"

// Domain-specific errors for directory operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingRecordID is returned when a directory event carries a
	// record without a usable "_id" field.
	ErrMissingRecordID = errors.New("directory: record has no _id field")

	// ErrMalformedRecord is returned when a directory event payload
	// cannot be parsed.
	ErrMalformedRecord = errors.New("directory: malformed record payload")
)
