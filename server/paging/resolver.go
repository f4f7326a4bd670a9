package paging

import (
	"context"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

// CursorResolution is the outcome of resolving a cursor: either the sort key of the entity it
// refers to, or NotFound when the entity no longer exists within the scope.
type CursorResolution struct {
	key   SortKey
	found bool
}

func Found(key SortKey) CursorResolution {
	return CursorResolution{key: key, found: true}
}

func NotFound() CursorResolution {
	return CursorResolution{}
}

// SortKey returns the resolved sort key, and false if the cursor was not found.
func (r CursorResolution) SortKey() (SortKey, bool) {
	return r.key, r.found
}

// ResolveCursor looks up the entity with the given id within scope and returns its position in
// the sortBy order. A missing entity is not an error. Other store errors are returned as is.
func ResolveCursor(
	ctx context.Context,
	store Store,
	schema search.Schema,
	scope search.Filter,
	sortBy search.FieldName,
	id models.ResourceID,
) (CursorResolution, error) {
	filter := search.AllOf(scope, search.NewFieldFilter(schema.IDField(), search.Equal, id))
	entity, err := store.FindOne(ctx, filter)
	if err != nil {
		if gerror.IsNotFound(err) {
			return NotFound(), nil
		}
		return NotFound(), err
	}
	key, err := sortKeyOf(entity, sortBy)
	if err != nil {
		return NotFound(), err
	}
	return Found(key), nil
}
