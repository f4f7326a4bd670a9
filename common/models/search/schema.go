package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
)

const (
	KindString  FieldKind = "string"
	KindID      FieldKind = "id"
	KindInteger FieldKind = "integer"
	KindBoolean FieldKind = "boolean"
	KindTime    FieldKind = "time"
)

// FieldKind is the type of value a field holds.
type FieldKind string

// Field describes one searchable field of a collection.
type Field struct {
	Name FieldName
	Kind FieldKind
	// Sortable fields may be used as the sort field of a paginated query.
	Sortable bool
	// Text fields are searched for free text terms when a query does not nominate its own fields.
	Text bool
}

// Schema describes the fields of a collection that may be filtered and sorted on.
type Schema struct {
	idField FieldName
	fields  map[FieldName]Field
}

// NewSchema creates a schema. idField must be one of fields, and is the unique tiebreaker for sorts.
func NewSchema(idField FieldName, fields ...Field) Schema {
	s := Schema{idField: idField, fields: make(map[FieldName]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	id, ok := s.fields[idField]
	if !ok || !id.Sortable {
		panic(fmt.Sprintf("schema id field %q must be declared as a sortable field", idField))
	}
	return s
}

// IDField returns the name of the field holding the unique id.
func (s Schema) IDField() FieldName {
	return s.idField
}

func (s Schema) Lookup(name FieldName) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns all fields sorted by name.
func (s Schema) Fields() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TextFields returns the fields searched for free text by default, sorted by name.
func (s Schema) TextFields() []FieldName {
	var out []FieldName
	for _, f := range s.Fields() {
		if f.Text {
			out = append(out, f.Name)
		}
	}
	return out
}

// CheckSortable returns an InvalidArgument error if name is not a sortable field.
func (s Schema) CheckSortable(name FieldName) error {
	f, ok := s.fields[name]
	if !ok {
		return gerror.NewErrInvalidArgument(fmt.Sprintf("Unknown sort field: %q", name)).
			IDetail("sortable_fields", strings.Join(s.sortableNames(), ","))
	}
	if !f.Sortable {
		return gerror.NewErrInvalidArgument(fmt.Sprintf("Field %q cannot be sorted on", name))
	}
	return nil
}

func (s Schema) sortableNames() []string {
	var out []string
	for _, f := range s.Fields() {
		if f.Sortable {
			out = append(out, f.Name.String())
		}
	}
	return out
}

// Coerce checks every field filter in filter against the schema and converts each value to
// the canonical Go type for its field kind, parsing strings where necessary. It returns an
// InvalidQueryParameter error for unknown fields, unsupported operators or unparseable values.
func (s Schema) Coerce(filter Filter) (Filter, error) {
	return Transform(filter, func(f *FieldFilter) (Filter, error) {
		field, ok := s.fields[f.Field]
		if !ok {
			return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Unknown field: %q", f.Field))
		}
		if !f.Operator.Valid() {
			return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Unsupported operator %q on field %q", f.Operator, f.Field))
		}
		if f.Operator == StartsWith && field.Kind != KindString {
			return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Operator %q is only supported on text fields, not %q", f.Operator, f.Field))
		}
		value, err := coerceValue(field.Kind, f.Value)
		if err != nil {
			return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Invalid value for field %q", f.Field)).Wrap(err)
		}
		return NewFieldFilter(f.Field, f.Operator, value), nil
	})
}

func coerceValue(kind FieldKind, value interface{}) (interface{}, error) {
	switch kind {
	case KindString:
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case KindID:
		switch v := value.(type) {
		case models.ResourceID:
			return v, nil
		case string:
			return models.ResourceID(v), nil
		case models.SubscriberID:
			return v.ResourceID, nil
		}
	case KindTime:
		switch v := value.(type) {
		case models.Time:
			return v, nil
		case time.Time:
			return models.NewTime(v), nil
		case string:
			return models.ParseTime(v)
		}
	case KindInteger:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case string:
			return strconv.ParseInt(v, 10, 64)
		}
	case KindBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	}
	return nil, fmt.Errorf("error cannot use %T as %s", value, kind)
}
