package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const resourceIDSeparator = ":"

// ResourceID uniquely identifies a resource, in the form "<kind>:<uuid>".
// IDs minted by NewResourceID are version 7 UUIDs, so within a single kind the
// lexical order of IDs is their creation order.
type ResourceID string

func NewResourceID(kind ResourceKind) ResourceID {
	return ResourceID(kind.String() + resourceIDSeparator + uuid.Must(uuid.NewV7()).String())
}

// ParseResourceID parses and validates a "<kind>:<uuid>" string.
func ParseResourceID(str string) (ResourceID, error) {
	id := ResourceID(str)
	if !id.Valid() {
		return "", errors.Errorf("error invalid resource id: %q", str)
	}
	return id, nil
}

func (s ResourceID) Kind() ResourceKind {
	kind, _, found := strings.Cut(string(s), resourceIDSeparator)
	if !found {
		return ""
	}
	return ResourceKind(kind)
}

// Valid returns true if the id has a kind and a well-formed uuid.
func (s ResourceID) Valid() bool {
	kind, rest, found := strings.Cut(string(s), resourceIDSeparator)
	if !found || kind == "" {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func (s ResourceID) IsZero() bool {
	return s == ""
}

func (s ResourceID) String() string {
	return string(s)
}

func (s ResourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *ResourceID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ResourceID(str)
	return nil
}

func (s *ResourceID) Scan(src interface{}) error {
	switch t := src.(type) {
	case nil:
		*s = ""
	case string:
		*s = ResourceID(t)
	case []byte:
		*s = ResourceID(t)
	default:
		return fmt.Errorf("error expected string: %#v", src)
	}
	return nil
}

func (s ResourceID) Value() (driver.Value, error) {
	return string(s), nil
}
