package search

import (
	"fmt"

	"github.com/tidecast/tidecast/common/models"
)

// QueryBuilder makes it convenient to programmatically create search queries.
type QueryBuilder struct {
	query Query
}

func NewQueryBuilder(existing ...Query) *QueryBuilder {
	var query Query
	switch len(existing) {
	case 0:
		query = NewQuery()
	case 1:
		query = existing[0]
		if query.fieldsByFieldName == nil {
			query.fieldsByFieldName = map[FieldName]FieldName{}
		}
	default:
		panic("expected zero or one existing queries")
	}
	return &QueryBuilder{query: query}
}

// Term adds a term to search for In() fields.
func (b *QueryBuilder) Term(term Term) *QueryBuilder {
	if b.query.Term == nil {
		b.query.Term = &term
	} else {
		term := Term(fmt.Sprintf("%s %s", *b.query.Term, term))
		b.query.Term = &term
	}
	return b
}

// In records a field to search for term in.
// In() fields are ORd together.
// If no In() fields are set, the default text fields are searched.
func (b *QueryBuilder) In(field FieldName) *QueryBuilder {
	if _, ok := b.query.fieldsByFieldName[field]; !ok {
		b.query.Fields = append(b.query.Fields, field)
		b.query.fieldsByFieldName[field] = field
	}
	return b
}

// Where records a field filter to constrain search results to.
// Where() filters are ANDd together, so a field may be constrained more than once
// to express a range, e.g. created_at:>=a created_at:<b.
func (b *QueryBuilder) Where(field FieldName, operator Operator, value interface{}) *QueryBuilder {
	b.query.Filters = append(b.query.Filters, NewFieldFilter(field, operator, value))
	return b
}

// Sort sets the field to sort search results on.
// If no Sort() is set, the default sort will be applied (varies per collection).
func (b *QueryBuilder) Sort(field FieldName, direction ...SortDirection) *QueryBuilder {
	dir := Ascending
	switch len(direction) {
	case 0:
	case 1:
		dir = direction[0]
	default:
		panic("direction can be specified zero or one times")
	}
	b.query.Sort = NewSortField(field, dir)
	return b
}

// Limit sets the page size limit.
func (b *QueryBuilder) Limit(limit int) *QueryBuilder {
	b.query.Limit = limit
	return b
}

// After continues the search from the page following the entity with the given id.
func (b *QueryBuilder) After(id models.ResourceID) *QueryBuilder {
	b.query.After = &id
	return b
}

// Before continues the search from the page preceding the entity with the given id.
func (b *QueryBuilder) Before(id models.ResourceID) *QueryBuilder {
	b.query.Before = &id
	return b
}

// Compile outputs the built query.
func (b *QueryBuilder) Compile() Query {
	return b.query
}
