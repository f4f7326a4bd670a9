package paging

import (
	"context"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

// Entity is a record that can be paginated over.
type Entity interface {
	// GetID returns the unique id of the entity, which is the tiebreaker of every sort order.
	GetID() models.ResourceID
	// GetFieldValue returns the value of the named field.
	GetFieldValue(field string) (interface{}, error)
}

// Store is the query capability the paginator needs from a backend.
type Store interface {
	// FindOne returns any one entity matching filter, or a gerror NotFound error if none match.
	FindOne(ctx context.Context, filter search.Filter) (Entity, error)
	// FindRange returns up to limit entities matching filter, ordered by orderBy.
	FindRange(ctx context.Context, filter search.Filter, orderBy []search.SortField, limit int) ([]Entity, error)
}
