// Package paging implements cursor based pagination over any Store that can answer ordered
// range queries. Pages are stable under concurrent inserts and deletes because every page is
// anchored on the (sort field, id) key of a boundary entity rather than on an offset.
package paging

import (
	"context"
	"fmt"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

// Config holds the limits applied to every page request.
type Config struct {
	// MaxLimit is the largest page size a caller may request, or 0 for no maximum.
	MaxLimit int
}

var DefaultConfig = Config{MaxLimit: models.MaxPaginationLimit}

// Request describes one page to read.
type Request struct {
	// Scope restricts the collection the caller may see, e.g. to one environment. Cursors are
	// resolved within Scope only, so an entity that has stopped matching Filter still anchors a page.
	Scope search.Filter
	// Filter restricts the entities listed. nil lists everything in Scope.
	Filter search.Filter
	// Limit is the maximum number of entities to return; it must be positive.
	Limit int
	// SortBy is the field to order by. Defaults to the id field.
	SortBy search.FieldName
	// SortDirection defaults to descending.
	SortDirection search.SortDirection
	// After requests the page following the entity with this id.
	After *models.ResourceID
	// Before requests the page preceding the entity with this id.
	Before *models.ResourceID
}

// Result is one page of entities, in SortDirection order.
type Result struct {
	Data []Entity
	// Next is the id to pass as After to read the following page, or nil if there is none.
	Next *models.ResourceID
	// Previous is the id to pass as Before to read the preceding page, or nil if there is none.
	Previous *models.ResourceID
}

// Cursor returns the result's cursors.
func (r *Result) Cursor() *models.Cursor {
	return &models.Cursor{Next: r.Next, Previous: r.Previous}
}

func emptyResult() *Result {
	return &Result{Data: []Entity{}}
}

// Paginator reads pages from a Store. It holds no mutable state and is safe for concurrent use.
type Paginator struct {
	store  Store
	schema search.Schema
	config Config
	logger.Log
}

func NewPaginator(store Store, schema search.Schema, config Config, logFactory logger.LogFactory) *Paginator {
	return &Paginator{
		store:  store,
		schema: schema,
		config: config,
		Log:    logFactory("Paginator"),
	}
}

// Paginate reads the page described by req.
// The reads it makes (cursor lookup, page fetch, boundary probe) are not wrapped in a single
// transaction; each one sees the collection as it is when that read runs.
// A cursor that no longer resolves produces an empty page with no cursors. Store errors are
// returned unchanged.
func (p *Paginator) Paginate(ctx context.Context, req Request) (*Result, error) {
	req, err := p.validate(req)
	if err != nil {
		return nil, err
	}
	backward := req.Before != nil
	cursor := req.After
	side := SideAfter
	if backward {
		cursor = req.Before
		side = SideBefore
	}
	filter := search.AllOf(req.Scope, req.Filter)

	predicate := filter
	if cursor != nil {
		resolution, err := ResolveCursor(ctx, p.store, p.schema, req.Scope, req.SortBy, *cursor)
		if err != nil {
			return nil, err
		}
		key, found := resolution.SortKey()
		if !found {
			p.WithField("cursor", *cursor).Debug("Cursor does not resolve to an entity; returning empty page")
			return emptyResult(), nil
		}
		predicate, err = BuildPredicate(p.schema, filter, req.SortBy, req.SortDirection, &key, side)
		if err != nil {
			return nil, err
		}
	}

	rows, overflow, err := FetchPage(ctx, p.store, p.schema, predicate, req.SortBy, req.SortDirection, backward, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return emptyResult(), nil
	}

	result := &Result{Data: rows}
	first, last := rows[0], rows[len(rows)-1]
	switch {
	case cursor == nil:
		// First page: nothing can precede it
		if overflow {
			result.Next = idPtr(last)
		}
	case !backward:
		if overflow {
			result.Next = idPtr(last)
		}
		exists, err := ProbeBeyond(ctx, p.store, p.schema, filter, req.SortBy, req.SortDirection, first, SideBefore)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Previous = idPtr(first)
		}
	default:
		if overflow {
			result.Previous = idPtr(first)
		}
		exists, err := ProbeBeyond(ctx, p.store, p.schema, filter, req.SortBy, req.SortDirection, last, SideAfter)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Next = idPtr(last)
		}
	}
	p.WithFields(logger.Fields{
		"sort_by":   req.SortBy,
		"direction": req.SortDirection,
		"count":     len(rows),
		"overflow":  overflow,
	}).Trace("Read page")
	return result, nil
}

func (p *Paginator) validate(req Request) (Request, error) {
	if req.After != nil && req.Before != nil {
		return req, gerror.NewErrInvalidArgument("after and before cursors cannot both be set")
	}
	if req.Limit <= 0 {
		return req, gerror.NewErrInvalidArgument(fmt.Sprintf("Limit must be positive, found %d", req.Limit))
	}
	if p.config.MaxLimit > 0 && req.Limit > p.config.MaxLimit {
		return req, gerror.NewErrInvalidArgument(fmt.Sprintf("Limit must be at most %d, found %d", p.config.MaxLimit, req.Limit))
	}
	if req.SortBy == "" {
		req.SortBy = p.schema.IDField()
	}
	if err := p.schema.CheckSortable(req.SortBy); err != nil {
		return req, err
	}
	if req.SortDirection == "" {
		req.SortDirection = search.Descending
	}
	if !req.SortDirection.Valid() {
		return req, gerror.NewErrInvalidArgument(fmt.Sprintf("Invalid sort direction: %q", req.SortDirection))
	}
	return req, nil
}

func idPtr(entity Entity) *models.ResourceID {
	id := entity.GetID()
	return &id
}
