package paging

import (
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

const (
	// SideAfter selects entities strictly after a boundary in traversal order.
	SideAfter Side = "after"
	// SideBefore selects entities strictly before a boundary in traversal order.
	SideBefore Side = "before"
)

// Side is the side of a boundary entity that a predicate selects.
type Side string

// SortKey is the position of an entity in a (sort field, id) total order.
type SortKey struct {
	Value interface{}
	ID    models.ResourceID
}

// BuildPredicate returns filter ANDed with a clause selecting the entities strictly on the given
// side of boundary, when sorted by sortBy in direction with ties broken by id:
//
//	sortBy ⊳ boundary.Value OR (sortBy = boundary.Value AND id ⊳ boundary.ID)
//
// where ⊳ is < when exactly one of (direction is descending, side is before) holds, and > otherwise.
// A nil boundary returns filter unchanged. An unknown or unsortable sortBy is an InvalidArgument error.
func BuildPredicate(
	schema search.Schema,
	filter search.Filter,
	sortBy search.FieldName,
	direction search.SortDirection,
	boundary *SortKey,
	side Side,
) (search.Filter, error) {
	if err := schema.CheckSortable(sortBy); err != nil {
		return nil, err
	}
	if boundary == nil {
		return filter, nil
	}
	op := comparisonOperator(direction, side)
	idField := schema.IDField()
	if sortBy == idField {
		return search.AllOf(filter, search.NewFieldFilter(idField, op, boundary.ID)), nil
	}
	cursorClause := search.AnyOf(
		search.NewFieldFilter(sortBy, op, boundary.Value),
		search.AllOf(
			search.NewFieldFilter(sortBy, search.Equal, boundary.Value),
			search.NewFieldFilter(idField, op, boundary.ID),
		),
	)
	return search.AllOf(filter, cursorClause), nil
}

func comparisonOperator(direction search.SortDirection, side Side) search.Operator {
	descending := direction == search.Descending
	if descending != (side == SideBefore) {
		return search.LessThan
	}
	return search.GreaterThan
}

// orderBy returns the (sortBy, id) composite ordering in direction.
func orderBy(schema search.Schema, sortBy search.FieldName, direction search.SortDirection) []search.SortField {
	order := []search.SortField{{Field: sortBy, Direction: direction}}
	if sortBy != schema.IDField() {
		order = append(order, search.SortField{Field: schema.IDField(), Direction: direction})
	}
	return order
}

func sortKeyOf(entity Entity, sortBy search.FieldName) (SortKey, error) {
	value, err := entity.GetFieldValue(sortBy.String())
	if err != nil {
		return SortKey{}, err
	}
	return SortKey{Value: value, ID: entity.GetID()}, nil
}
