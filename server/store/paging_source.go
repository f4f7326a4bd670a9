package store

import (
	"context"

	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
)

type tableSource struct {
	table   *ResourceTable
	txOrNil *Tx
}

// PagingStore returns a view of the table that the paginator can query, bound to txOrNil.
func (d *ResourceTable) PagingStore(txOrNil *Tx) paging.Store {
	return &tableSource{table: d, txOrNil: txOrNil}
}

func (s *tableSource) FindOne(ctx context.Context, filter search.Filter) (paging.Entity, error) {
	resource, err := s.table.Find(ctx, s.txOrNil, filter)
	if err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *tableSource) FindRange(ctx context.Context, filter search.Filter, orderBy []search.SortField, limit int) ([]paging.Entity, error) {
	resources, err := s.table.FindRange(ctx, s.txOrNil, filter, orderBy, limit)
	if err != nil {
		return nil, err
	}
	entities := make([]paging.Entity, len(resources))
	for i, resource := range resources {
		entities[i] = resource
	}
	return entities, nil
}
