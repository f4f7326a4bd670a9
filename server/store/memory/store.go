// Package memory holds collections in process memory. It answers the same filtered, ordered
// range queries as the SQL and MongoDB backends and is used where a database is not wanted.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
)

// Collection is a set of entities keyed by id, safe for concurrent use.
type Collection struct {
	mu       sync.RWMutex
	entities map[models.ResourceID]paging.Entity
}

func NewCollection() *Collection {
	return &Collection{entities: make(map[models.ResourceID]paging.Entity)}
}

// Put inserts or replaces entities.
func (c *Collection) Put(entities ...paging.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entities {
		c.entities[e.GetID()] = e
	}
}

// Get returns the entity with the given id, or a NotFound error.
func (c *Collection) Get(id models.ResourceID) (paging.Entity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[id]
	if !ok {
		return nil, gerror.NewErrNotFound("Not found").IDetail("id", id)
	}
	return e, nil
}

// Delete removes the entity with the given id, returning false if there was none.
func (c *Collection) Delete(id models.ResourceID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entities[id]
	delete(c.entities, id)
	return ok
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

func (c *Collection) FindOne(ctx context.Context, filter search.Filter) (paging.Entity, error) {
	matches, err := c.match(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, gerror.NewErrNotFound("Not found")
	}
	// Deterministic choice among matches
	sort.Slice(matches, func(i, j int) bool { return matches[i].GetID() < matches[j].GetID() })
	return matches[0], nil
}

func (c *Collection) FindRange(ctx context.Context, filter search.Filter, orderBy []search.SortField, limit int) ([]paging.Entity, error) {
	matches, err := c.match(ctx, filter)
	if err != nil {
		return nil, err
	}
	err = Sort(matches, orderBy)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (c *Collection) match(ctx context.Context, filter search.Filter) ([]paging.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var matches []paging.Entity
	for _, e := range c.entities {
		ok, err := search.Evaluate(filter, fieldGetter(e))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// Sort orders entities in place by orderBy. It returns an error if any field cannot be read or compared.
func Sort(entities []paging.Entity, orderBy []search.SortField) error {
	var sortErr error
	sort.SliceStable(entities, func(i, j int) bool {
		for _, o := range orderBy {
			a, err := entities[i].GetFieldValue(o.Field.String())
			if err != nil {
				sortErr = err
				return false
			}
			b, err := entities[j].GetFieldValue(o.Field.String())
			if err != nil {
				sortErr = err
				return false
			}
			c, err := search.CompareValues(a, b)
			if err != nil {
				sortErr = err
				return false
			}
			if c == 0 {
				continue
			}
			if o.Direction == search.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

func fieldGetter(e paging.Entity) func(field search.FieldName) (interface{}, error) {
	return func(field search.FieldName) (interface{}, error) {
		return e.GetFieldValue(field.String())
	}
}
