package search

// Filter is a predicate over the fields of an entity. It is one of *FieldFilter, *And or *Or;
// a nil Filter matches everything.
type Filter interface {
	isFilter()
}

// FieldFilter constrains a single field: Field Operator Value.
type FieldFilter struct {
	Field    FieldName   `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// And matches when every one of Filters matches.
type And struct {
	Filters []Filter
}

// Or matches when at least one of Filters matches.
type Or struct {
	Filters []Filter
}

func (*FieldFilter) isFilter() {}
func (*And) isFilter()         {}
func (*Or) isFilter()          {}

func NewFieldFilter(field FieldName, operator Operator, value interface{}) *FieldFilter {
	return &FieldFilter{
		Field:    field,
		Operator: operator,
		Value:    value,
	}
}

// AllOf returns a filter matching when all non-nil filters match. Nested And nodes are
// flattened; nil is returned when no filters remain.
func AllOf(filters ...Filter) Filter {
	var out []Filter
	for _, f := range filters {
		switch t := f.(type) {
		case nil:
		case *And:
			out = append(out, t.Filters...)
		default:
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return &And{Filters: out}
	}
}

// AnyOf returns a filter matching when any non-nil filter matches. Nested Or nodes are
// flattened; nil is returned when no filters remain.
func AnyOf(filters ...Filter) Filter {
	var out []Filter
	for _, f := range filters {
		switch t := f.(type) {
		case nil:
		case *Or:
			out = append(out, t.Filters...)
		default:
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return &Or{Filters: out}
	}
}

// Transform rebuilds filter bottom up, replacing each field filter with the result of fn.
func Transform(filter Filter, fn func(f *FieldFilter) (Filter, error)) (Filter, error) {
	switch t := filter.(type) {
	case nil:
		return nil, nil
	case *FieldFilter:
		return fn(t)
	case *And:
		children, err := transformAll(t.Filters, fn)
		if err != nil {
			return nil, err
		}
		return &And{Filters: children}, nil
	case *Or:
		children, err := transformAll(t.Filters, fn)
		if err != nil {
			return nil, err
		}
		return &Or{Filters: children}, nil
	default:
		panic("unknown filter type")
	}
}

func transformAll(filters []Filter, fn func(f *FieldFilter) (Filter, error)) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, child := range filters {
		c, err := Transform(child, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
