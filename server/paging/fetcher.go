package paging

import (
	"context"

	"github.com/tidecast/tidecast/common/models/search"
)

// FetchPage reads up to limit entities matching predicate, plus one lookahead row. Entities are
// returned in direction order; overflow reports whether the lookahead row existed.
// When backward is true the entities nearest the end of the predicate's range are returned,
// which is what paging towards the start of a collection needs.
func FetchPage(
	ctx context.Context,
	store Store,
	schema search.Schema,
	predicate search.Filter,
	sortBy search.FieldName,
	direction search.SortDirection,
	backward bool,
	limit int,
) (entities []Entity, overflow bool, err error) {
	travel := direction
	if backward {
		travel = direction.Reverse()
	}
	rows, err := store.FindRange(ctx, predicate, orderBy(schema, sortBy, travel), limit+1)
	if err != nil {
		return nil, false, err
	}
	if len(rows) > limit {
		overflow = true
		rows = rows[:limit]
	}
	if backward {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return rows, overflow, nil
}
