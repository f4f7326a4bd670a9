package paging_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store/memory"
)

const propertyIterations = 300

// newRandomCollection returns n items with few distinct ranks and names, so that sorts
// on those fields are full of ties.
func newRandomCollection(seed int64, n int) *memory.Collection {
	rnd := rand.New(rand.NewSource(seed))
	c := memory.NewCollection()
	for i := 0; i < n; i++ {
		c.Put(&item{
			id:    models.ResourceID(fmt.Sprintf("I%04d", rnd.Intn(10000))),
			rank:  int64(rnd.Intn(4)),
			name:  []string{"ann", "bob", "cat"}[rnd.Intn(3)],
			group: []string{"a", "b"}[rnd.Intn(2)],
		})
	}
	return c
}

type propertyCase struct {
	collection *memory.Collection
	filter     search.Filter
	limit      int
	sortBy     search.FieldName
	direction  search.SortDirection
}

func (c propertyCase) String() string {
	return fmt.Sprintf("n=%d filter=%v limit=%d sortBy=%s direction=%s", c.collection.Len(), c.filter, c.limit, c.sortBy, c.direction)
}

func (c propertyCase) request() paging.Request {
	return paging.Request{Filter: c.filter, Limit: c.limit, SortBy: c.sortBy, SortDirection: c.direction}
}

// groundTruth returns the ids of every matching item in full sort order.
func (c propertyCase) groundTruth(t *testing.T) []string {
	order := []search.SortField{{Field: c.sortBy, Direction: c.direction}, {Field: "id", Direction: c.direction}}
	all, err := c.collection.FindRange(context.Background(), c.filter, order, -1)
	require.NoError(t, err)
	return ids(all)
}

func randomCase(rnd *rand.Rand) propertyCase {
	c := propertyCase{
		collection: newRandomCollection(rnd.Int63(), rnd.Intn(40)),
		limit:      1 + rnd.Intn(7),
		sortBy:     []search.FieldName{"id", "rank", "name"}[rnd.Intn(3)],
		direction:  []search.SortDirection{search.Ascending, search.Descending}[rnd.Intn(2)],
	}
	if rnd.Intn(2) == 0 {
		c.filter = search.NewFieldFilter("group", search.Equal, "a")
	}
	return c
}

// walkForward follows next cursors from the first page to the last.
func walkForward(t *testing.T, p *paging.Paginator, c propertyCase) []*paging.Result {
	var pages []*paging.Result
	req := c.request()
	for {
		result, err := p.Paginate(context.Background(), req)
		require.NoError(t, err)
		pages = append(pages, result)
		if result.Next == nil {
			return pages
		}
		require.Less(t, len(pages), 100, "too many pages: %s", c)
		req.After = result.Next
	}
}

func TestPropertyNoDuplicatesNoGaps(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		p := newPaginator(c.collection)
		var seen []string
		for _, page := range walkForward(t, p, c) {
			require.LessOrEqual(t, len(page.Data), c.limit)
			seen = append(seen, ids(page.Data)...)
		}
		truth := c.groundTruth(t)
		if len(truth) == 0 {
			require.Empty(t, seen, c.String())
		} else {
			require.Equal(t, truth, seen, c.String())
		}
	}
}

func TestPropertyBoundaryFlags(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		p := newPaginator(c.collection)
		truth := c.groundTruth(t)
		position := map[string]int{}
		for j, id := range truth {
			position[id] = j
		}
		checkFlags := func(result *paging.Result, how string) {
			if len(result.Data) == 0 {
				return
			}
			first := position[result.Data[0].GetID().String()]
			last := position[result.Data[len(result.Data)-1].GetID().String()]
			require.Equal(t, last < len(truth)-1, result.Next != nil, "%s next flag: %s", how, c)
			require.Equal(t, first > 0, result.Previous != nil, "%s previous flag: %s", how, c)
			if result.Next != nil {
				require.Equal(t, truth[last], result.Next.String())
			}
			if result.Previous != nil {
				require.Equal(t, truth[first], result.Previous.String())
			}
		}
		pages := walkForward(t, p, c)
		for _, page := range pages {
			checkFlags(page, "forward")
		}
		// Walk back to the start from the last page
		req := c.request()
		req.Before = pages[len(pages)-1].Previous
		for req.Before != nil {
			result, err := p.Paginate(context.Background(), req)
			require.NoError(t, err)
			require.NotEmpty(t, result.Data)
			checkFlags(result, "backward")
			req.Before = result.Previous
		}
	}
}

func TestPropertyBackwardWalkCoversCollection(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		p := newPaginator(c.collection)
		pages := walkForward(t, p, c)
		last := pages[len(pages)-1]
		collected := ids(last.Data)
		req := c.request()
		req.Before = last.Previous
		for req.Before != nil {
			result, err := p.Paginate(context.Background(), req)
			require.NoError(t, err)
			collected = append(ids(result.Data), collected...)
			req.Before = result.Previous
		}
		truth := c.groundTruth(t)
		if len(truth) == 0 {
			require.Empty(t, collected, c.String())
		} else {
			require.Equal(t, truth, collected, c.String())
		}
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(2024))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		p := newPaginator(c.collection)
		pages := walkForward(t, p, c)
		for j := 0; j+1 < len(pages); j++ {
			next := pages[j+1]
			require.NotNil(t, next.Previous, c.String())
			req := c.request()
			req.Before = next.Previous
			back, err := p.Paginate(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, ids(pages[j].Data), ids(back.Data), "page %d: %s", j, c)
			require.Equal(t, idOrEmpty(pages[j].Next), idOrEmpty(back.Next))
			require.Equal(t, idOrEmpty(pages[j].Previous), idOrEmpty(back.Previous))
		}
	}
}

func TestPropertySortStability(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		c.sortBy = "rank"
		p := newPaginator(c.collection)
		var all []paging.Entity
		for _, page := range walkForward(t, p, c) {
			all = append(all, page.Data...)
		}
		for j := 1; j < len(all); j++ {
			prev, cur := all[j-1].(*item), all[j].(*item)
			if prev.rank != cur.rank {
				continue
			}
			if c.direction == search.Ascending {
				require.Less(t, prev.id.String(), cur.id.String(), c.String())
			} else {
				require.Greater(t, prev.id.String(), cur.id.String(), c.String())
			}
		}
	}
}

func TestPropertyLimitOneFirstPage(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for i := 0; i < propertyIterations; i++ {
		c := randomCase(rnd)
		c.limit = 1
		result, err := newPaginator(c.collection).Paginate(context.Background(), c.request())
		require.NoError(t, err)
		require.Nil(t, result.Previous, c.String())
	}
}
