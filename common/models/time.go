package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// timestampStorageFormat is fixed width so that stored timestamps compare correctly as text,
// which is how sqlite evaluates range predicates over them.
const timestampStorageFormat = "2006-01-02 15:04:05.000000-07:00"

type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	// Postgres only handles microsecond precision, so round before storing to ensure a value
	// read back compares equal to the value written.
	return Time{Time: t.UTC().Round(time.Microsecond)}
}

// ParseTime parses an RFC3339 timestamp, as accepted in search queries.
func ParseTime(str string) (Time, error) {
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return Time{}, errors.Wrapf(err, "error parsing time %q", str)
	}
	return NewTime(t), nil
}

func (s *Time) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	// Postgres (and sqlite for timestamp columns) returns time.Time, older sqlite rows may be strings
	switch t := src.(type) {
	case time.Time:
		*s = NewTime(t)
	case string:
		parsedTime, err := time.Parse(timestampStorageFormat, t)
		if err != nil {
			return errors.Wrap(err, "error parsing time")
		}
		*s = NewTime(parsedTime)
	case []byte:
		return s.Scan(string(t))
	default:
		return fmt.Errorf("unsupported type: %[1]T (%[1]v)", src)
	}
	return nil
}

// Value converts a time into a format that can be passed to the database, for example in a WHERE clause
// of a query.
func (s Time) Value() (driver.Value, error) {
	return s.UTC().Format(timestampStorageFormat), nil
}
