package paging

import (
	"context"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models/search"
)

// ProbeBeyond reports whether any entity matching filter lies strictly on side of boundary,
// using a single row query.
func ProbeBeyond(
	ctx context.Context,
	store Store,
	schema search.Schema,
	filter search.Filter,
	sortBy search.FieldName,
	direction search.SortDirection,
	boundary Entity,
	side Side,
) (bool, error) {
	key, err := sortKeyOf(boundary, sortBy)
	if err != nil {
		return false, err
	}
	predicate, err := BuildPredicate(schema, filter, sortBy, direction, &key, side)
	if err != nil {
		return false, err
	}
	_, err = store.FindOne(ctx, predicate)
	if err != nil {
		if gerror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
