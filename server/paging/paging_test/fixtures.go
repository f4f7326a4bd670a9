package paging_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
)

var itemSchema = search.NewSchema(
	"id",
	search.Field{Name: "id", Kind: search.KindID, Sortable: true},
	search.Field{Name: "rank", Kind: search.KindInteger, Sortable: true},
	search.Field{Name: "name", Kind: search.KindString, Sortable: true, Text: true},
	search.Field{Name: "group", Kind: search.KindString},
)

// item is a minimal entity with a non-unique sort field (rank).
type item struct {
	id    models.ResourceID
	rank  int64
	name  string
	group string
}

func (i *item) GetID() models.ResourceID {
	return i.id
}

func (i *item) GetFieldValue(field string) (interface{}, error) {
	switch field {
	case "id":
		return i.id, nil
	case "rank":
		return i.rank, nil
	case "name":
		return i.name, nil
	case "group":
		return i.group, nil
	default:
		return nil, fmt.Errorf("error no field %q", field)
	}
}

func ids(entities []paging.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.GetID().String())
	}
	return out
}

func idOrEmpty(id *models.ResourceID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func idPtr(id string) *models.ResourceID {
	r := models.ResourceID(id)
	return &r
}

// countingStore records how many queries of each kind pass through to the wrapped store,
// and fails a query when its call number matches failOn.
type countingStore struct {
	paging.Store
	mu        sync.Mutex
	findOne   int
	findRange int
	calls     int
	failOn    int
	failWith  error
}

func (s *countingStore) next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return s.failWith
	}
	return nil
}

func (s *countingStore) FindOne(ctx context.Context, filter search.Filter) (paging.Entity, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.findOne++
	s.mu.Unlock()
	return s.Store.FindOne(ctx, filter)
}

func (s *countingStore) FindRange(ctx context.Context, filter search.Filter, orderBy []search.SortField, limit int) ([]paging.Entity, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.findRange++
	s.mu.Unlock()
	return s.Store.FindRange(ctx, filter, orderBy, limit)
}
