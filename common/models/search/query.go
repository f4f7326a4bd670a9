package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidecast/tidecast/common/models"
)

const (
	Equal                Operator = "="
	NotEqual             Operator = "!="
	GreaterThan          Operator = ">"
	GreaterThanOrEqualTo Operator = ">="
	LessThan             Operator = "<"
	LessThanOrEqualTo    Operator = "<="
	// StartsWith matches string values having the filter value as a prefix. Free text terms
	// are compiled to this operator.
	StartsWith Operator = "^="
)

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// operatorSet is the set of supported operators sorted by string length.
// Use to do prefix matching during query parsing, where we need to evaluate
// the longest prefix matches first. Sorted by the init() func below as a backup.
var operatorSet = []Operator{
	NotEqual,
	GreaterThanOrEqualTo,
	LessThanOrEqualTo,
	StartsWith,
	Equal,
	GreaterThan,
	LessThan,
}

func init() {
	sort.SliceStable(operatorSet, func(i, j int) bool {
		return len(operatorSet[i]) > len(operatorSet[j])
	})
}

type FieldName string

func (f FieldName) String() string {
	return string(f)
}

type SortDirection string

func (d SortDirection) Valid() bool {
	return d == Ascending || d == Descending
}

// Reverse returns the opposite direction.
func (d SortDirection) Reverse() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

type Operator string

func (o Operator) String() string {
	return string(o)
}

func (o Operator) Valid() bool {
	for _, op := range operatorSet {
		if op == o {
			return true
		}
	}
	return false
}

// AsGoqu returns the operator formatted as a goqu-compatible string.
func (o Operator) AsGoqu() string {
	switch o {
	case Equal:
		return "eq"
	case NotEqual:
		return "neq"
	case GreaterThan:
		return "gt"
	case GreaterThanOrEqualTo:
		return "gte"
	case LessThan:
		return "lt"
	case LessThanOrEqualTo:
		return "lte"
	case StartsWith:
		return "like"
	default:
		panic(fmt.Sprintf("unsupported op: %s", o))
	}
}

// Query describes a search against a collection, as typed by a user.
type Query struct {
	models.Pagination
	// Term will be searched for in Fields.
	Term *Term `json:"term"`
	// Fields nominates the set of fields to search for term in.
	// If no fields are set, the default text fields of the collection are searched.
	Fields []FieldName `json:"fields"`
	// Filters nominates zero or more fields to filter search results on.
	Filters []*FieldFilter `json:"filters"`
	// Sort sets the field to sort search results on, or nil to use a default sort.
	Sort *SortField `json:"sort"`
	// fieldsByFieldName is Fields keyed by field name.
	fieldsByFieldName map[FieldName]FieldName
}

func NewQuery() Query {
	return Query{
		Pagination:        models.Pagination{Limit: models.DefaultPaginationLimit},
		fieldsByFieldName: map[FieldName]FieldName{},
	}
}

func (q *Query) AnyInFieldsSet() bool {
	return len(q.Fields) > 0
}

func (q *Query) IsInFieldSet(fieldName FieldName) bool {
	_, ok := q.fieldsByFieldName[fieldName]
	return ok
}

// GetFilters returns all filters on the named field, in the order they were added.
func (q *Query) GetFilters(fieldName FieldName) []*FieldFilter {
	var filters []*FieldFilter
	for _, filter := range q.Filters {
		if filter.Field == fieldName {
			filters = append(filters, filter)
		}
	}
	return filters
}

// String returns query as a plaintext query string.
func (q *Query) String() string {
	var parts []string
	if q.Term != nil {
		parts = append(parts, quoteIfNeeded(q.Term.String()))
	}
	for _, field := range q.Fields {
		parts = append(parts, fmt.Sprintf("in:%s", field))
	}
	for _, filter := range q.Filters {
		value := quoteIfNeeded(fmt.Sprintf("%v", filter.Value))
		if filter.Operator == Equal { // Default operator can be omitted
			parts = append(parts, fmt.Sprintf("%s:%s", filter.Field, value))
		} else {
			parts = append(parts, fmt.Sprintf("%s:%s%s", filter.Field, filter.Operator, value))
		}
	}
	if q.Sort != nil {
		parts = append(parts, fmt.Sprintf("sort:%s-%s", q.Sort.Field, q.Sort.Direction))
	}
	return strings.Join(parts, " ")
}

func quoteIfNeeded(str string) string {
	if !strings.ContainsAny(str, " \"") {
		return str
	}
	return `"` + strings.ReplaceAll(str, `"`, `\"`) + `"`
}

func (q *Query) UnmarshalJSON(data []byte) error {
	x := struct {
		models.Pagination
		Term    *Term          `json:"term"`
		Fields  []FieldName    `json:"fields"`
		Filters []*FieldFilter `json:"filters"`
		Sort    *SortField     `json:"sort"`
	}{}
	err := json.Unmarshal(data, &x)
	if err != nil {
		return err
	}
	q.Pagination = x.Pagination
	q.Term = x.Term
	q.Fields = x.Fields
	q.Filters = x.Filters
	q.Sort = x.Sort
	q.fieldsByFieldName = map[FieldName]FieldName{}
	for _, field := range q.Fields {
		q.fieldsByFieldName[field] = field
	}
	return nil
}

type Term string

func (t Term) String() string {
	return string(t)
}

type SortField struct {
	Field     FieldName     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func NewSortField(field FieldName, direction SortDirection) *SortField {
	return &SortField{
		Field:     field,
		Direction: direction,
	}
}
