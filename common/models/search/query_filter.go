package search

import (
	"fmt"
	"strings"

	"github.com/tidecast/tidecast/common/gerror"
)

// Filter compiles the query's term and field filters into a single Filter, validated and
// coerced against schema. Each word of the term must prefix-match at least one of the
// query's In() fields, or the schema's text fields if none were nominated.
// Returns nil if the query has no term and no filters.
func (q *Query) Filter(schema Schema) (Filter, error) {
	var clauses []Filter
	for _, f := range q.Filters {
		clauses = append(clauses, f)
	}
	if q.Term != nil {
		fields := q.Fields
		if len(fields) == 0 {
			fields = schema.TextFields()
		}
		for _, field := range fields {
			f, ok := schema.Lookup(field)
			if !ok {
				return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Unknown field: %q", field))
			}
			if f.Kind != KindString {
				return nil, gerror.NewErrInvalidQueryParameter(fmt.Sprintf("Field %q is not a text field and cannot be searched", field))
			}
		}
		for _, word := range strings.Fields(q.Term.String()) {
			var matches []Filter
			for _, field := range fields {
				matches = append(matches, NewFieldFilter(field, StartsWith, word))
			}
			clauses = append(clauses, AnyOf(matches...))
		}
	}
	return schema.Coerce(AllOf(clauses...))
}

// SortOrDefault returns the query's sort, or the supplied default if no sort was set.
func (q *Query) SortOrDefault(def SortField) SortField {
	if q.Sort == nil {
		return def
	}
	sort := *q.Sort
	if sort.Direction == "" {
		sort.Direction = def.Direction
	}
	return sort
}
