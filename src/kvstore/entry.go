package kvstore

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Entry is one write operation at a point in time: an ordered (key, value)
// pair. Entries are what the log persists and what the index holds.
type Entry struct {
	Key   string
	Value string
}

var ErrInvalidEntry = errors.New("invalid entry")

// ValidateEntry rejects keys and values that cannot survive the
// line-oriented log format. Tokens must be non-empty, free of any
// whitespace, and small enough that the serialized record fits
// maxRecordBytes; enforcing this at the write boundary keeps every
// appended record replayable.
func ValidateEntry(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	}
	if value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidEntry)
	}
	if containsSpace(key) {
		return fmt.Errorf("%w: key %q contains whitespace", ErrInvalidEntry, key)
	}
	if containsSpace(value) {
		return fmt.Errorf("%w: value %q contains whitespace", ErrInvalidEntry, value)
	}
	// command + two separators + newline
	if len(recordCommand)+len(key)+len(value)+3 > maxRecordBytes {
		return fmt.Errorf("%w: record would exceed %d bytes", ErrInvalidEntry, maxRecordBytes)
	}
	return nil
}

func containsSpace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}
