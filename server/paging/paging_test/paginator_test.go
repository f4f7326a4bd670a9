package paging_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store/memory"
)

// newTenItems returns a collection of E0..E9, inserted in that order.
func newTenItems() *memory.Collection {
	c := memory.NewCollection()
	for i := 0; i < 10; i++ {
		c.Put(&item{id: models.ResourceID(fmt.Sprintf("E%d", i)), rank: int64(i % 3), name: fmt.Sprintf("item-%d", i), group: "a"})
	}
	return c
}

func newPaginator(store paging.Store) *paging.Paginator {
	return paging.NewPaginator(store, itemSchema, paging.DefaultConfig, logger.NoOpLogFactory)
}

func TestPaginateScenarios(t *testing.T) {
	ctx := context.Background()
	p := newPaginator(newTenItems())

	t.Run("FirstPageDescending", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 5, SortBy: "id", SortDirection: search.Descending})
		require.NoError(t, err)
		require.Equal(t, []string{"E9", "E8", "E7", "E6", "E5"}, ids(result.Data))
		require.Equal(t, "E5", idOrEmpty(result.Next))
		require.Nil(t, result.Previous)
	})

	t.Run("AfterDescending", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 5, SortBy: "id", SortDirection: search.Descending, After: idPtr("E5")})
		require.NoError(t, err)
		require.Equal(t, []string{"E4", "E3", "E2", "E1", "E0"}, ids(result.Data))
		require.Nil(t, result.Next)
		require.Equal(t, "E4", idOrEmpty(result.Previous))
	})

	t.Run("BeforeDescending", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 5, SortBy: "id", SortDirection: search.Descending, Before: idPtr("E4")})
		require.NoError(t, err)
		require.Equal(t, []string{"E9", "E8", "E7", "E6", "E5"}, ids(result.Data))
		require.Equal(t, "E5", idOrEmpty(result.Next))
		require.Nil(t, result.Previous)
	})

	t.Run("LimitOneAscending", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 1, SortBy: "id", SortDirection: search.Ascending})
		require.NoError(t, err)
		require.Equal(t, []string{"E0"}, ids(result.Data))
		require.Equal(t, "E0", idOrEmpty(result.Next))
		require.Nil(t, result.Previous)
	})

	t.Run("LimitLargerThanCollection", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 15, SortBy: "id", SortDirection: search.Ascending})
		require.NoError(t, err)
		require.Equal(t, []string{"E0", "E1", "E2", "E3", "E4", "E5", "E6", "E7", "E8", "E9"}, ids(result.Data))
		require.Nil(t, result.Next)
		require.Nil(t, result.Previous)
	})

	t.Run("StaleCursor", func(t *testing.T) {
		result, err := p.Paginate(ctx, paging.Request{Limit: 5, SortBy: "id", After: idPtr("nonexistent-id")})
		require.NoError(t, err)
		require.Empty(t, result.Data)
		require.Nil(t, result.Next)
		require.Nil(t, result.Previous)
	})
}

func TestPaginateExactlyLimitEntities(t *testing.T) {
	p := newPaginator(newTenItems())
	result, err := p.Paginate(context.Background(), paging.Request{Limit: 10, SortDirection: search.Ascending})
	require.NoError(t, err)
	require.Len(t, result.Data, 10)
	require.Nil(t, result.Next)
	require.Nil(t, result.Previous)
}

func TestPaginateDefaults(t *testing.T) {
	p := newPaginator(newTenItems())
	result, err := p.Paginate(context.Background(), paging.Request{Limit: 2})
	require.NoError(t, err)
	// Defaults to id descending
	require.Equal(t, []string{"E9", "E8"}, ids(result.Data))
}

func TestPaginateValidation(t *testing.T) {
	ctx := context.Background()
	p := paging.NewPaginator(newTenItems(), itemSchema, paging.Config{MaxLimit: 50}, logger.NoOpLogFactory)
	tests := map[string]paging.Request{
		"BothCursors":      {Limit: 5, After: idPtr("E1"), Before: idPtr("E2")},
		"ZeroLimit":        {Limit: 0},
		"NegativeLimit":    {Limit: -3},
		"LimitAboveMax":    {Limit: 51},
		"UnknownSortField": {Limit: 5, SortBy: "colour"},
		"UnsortableField":  {Limit: 5, SortBy: "group"},
		"BadDirection":     {Limit: 5, SortDirection: "sideways"},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Paginate(ctx, req)
			require.Error(t, err)
			require.True(t, gerror.IsInvalidArgument(err), "expected InvalidArgument, found %v", err)
		})
	}
}

func TestPaginateQueryCount(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: newTenItems()}
	p := newPaginator(store)

	_, err := p.Paginate(ctx, paging.Request{Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 1, store.findRange)
	require.Equal(t, 0, store.findOne)

	_, err = p.Paginate(ctx, paging.Request{Limit: 3, After: idPtr("E7")})
	require.NoError(t, err)
	require.Equal(t, 2, store.findRange)
	// One lookup to resolve the cursor and one boundary probe
	require.Equal(t, 2, store.findOne)
}

func TestPaginatePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	// Calls for an "after" page are: resolve cursor, fetch page, probe
	for failOn := 1; failOn <= 3; failOn++ {
		store := &countingStore{Store: newTenItems(), failOn: failOn, failWith: boom}
		p := newPaginator(store)
		_, err := p.Paginate(ctx, paging.Request{Limit: 3, After: idPtr("E7")})
		require.Equal(t, boom, err, "call %d", failOn)
	}
}

func TestPaginateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPaginator(newTenItems())
	_, err := p.Paginate(ctx, paging.Request{Limit: 3})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPaginateScope(t *testing.T) {
	ctx := context.Background()
	c := newTenItems()
	c.Put(&item{id: "F0", group: "b"}, &item{id: "F1", group: "b"})
	p := newPaginator(c)
	scopeA := search.NewFieldFilter("group", search.Equal, "a")

	result, err := p.Paginate(ctx, paging.Request{Scope: scopeA, Limit: 20, SortDirection: search.Ascending})
	require.NoError(t, err)
	require.Len(t, result.Data, 10)

	// A cursor outside the scope does not resolve
	result, err = p.Paginate(ctx, paging.Request{Scope: scopeA, Limit: 20, After: idPtr("F0")})
	require.NoError(t, err)
	require.Empty(t, result.Data)
}

func TestPaginateCursorOutsideFilterStillAnchors(t *testing.T) {
	ctx := context.Background()
	p := newPaginator(newTenItems())
	// E3 has rank 0 and so does not match the filter, but is in scope
	onlyRankOne := search.NewFieldFilter("rank", search.Equal, int64(1))
	result, err := p.Paginate(ctx, paging.Request{
		Filter:        onlyRankOne,
		Limit:         5,
		SortBy:        "id",
		SortDirection: search.Ascending,
		After:         idPtr("E3"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"E4", "E7"}, ids(result.Data))
	require.Nil(t, result.Next)
	// E1 has rank 1 and precedes E4
	require.Equal(t, "E4", idOrEmpty(result.Previous))
}

func TestPaginateDeletedCursor(t *testing.T) {
	ctx := context.Background()
	c := newTenItems()
	p := newPaginator(c)
	first, err := p.Paginate(ctx, paging.Request{Limit: 5})
	require.NoError(t, err)
	require.True(t, c.Delete(*first.Next))

	result, err := p.Paginate(ctx, paging.Request{Limit: 5, After: first.Next})
	require.NoError(t, err)
	require.Empty(t, result.Data)
	require.Nil(t, result.Next)
	require.Nil(t, result.Previous)
}

func TestPaginateSeesInsertsBetweenPages(t *testing.T) {
	ctx := context.Background()
	c := newTenItems()
	p := newPaginator(c)
	first, err := p.Paginate(ctx, paging.Request{Limit: 5, SortDirection: search.Ascending})
	require.NoError(t, err)
	require.Equal(t, []string{"E0", "E1", "E2", "E3", "E4"}, ids(first.Data))

	// Sorts between E4 and E5, after the cursor
	c.Put(&item{id: "E45", group: "a"})
	second, err := p.Paginate(ctx, paging.Request{Limit: 5, SortDirection: search.Ascending, After: first.Next})
	require.NoError(t, err)
	require.Equal(t, []string{"E45", "E5", "E6", "E7", "E8"}, ids(second.Data))
	require.Equal(t, "E8", idOrEmpty(second.Next))
}

func TestPaginateConcurrently(t *testing.T) {
	ctx := context.Background()
	p := newPaginator(newRandomCollection(1, 200))
	expected, err := p.Paginate(ctx, paging.Request{Limit: 7, SortBy: "rank", SortDirection: search.Ascending})
	require.NoError(t, err)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			result, err := p.Paginate(gctx, paging.Request{Limit: 7, SortBy: "rank", SortDirection: search.Ascending})
			if err != nil {
				return err
			}
			if fmt.Sprint(ids(result.Data)) != fmt.Sprint(ids(expected.Data)) {
				return fmt.Errorf("error concurrent page differs: %v", ids(result.Data))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
