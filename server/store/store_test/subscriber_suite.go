package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/store"
)

// SubscriberStoreFactory creates an empty SubscriberStore for one test, and a function to release it.
type SubscriberStoreFactory func(t *testing.T) (store.SubscriberStore, func())

// RunSubscriberStoreTests runs the behaviour every SubscriberStore backend must share.
func RunSubscriberStoreTests(t *testing.T, factory SubscriberStoreFactory) {
	t.Run("CRUD", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberCRUD(t, s)
	})
	t.Run("PageForwardAndBack", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberPaging(t, s)
	})
	t.Run("TiedSortValues", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberPagingWithTies(t, s)
	})
	t.Run("EnvironmentScope", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberEnvironmentScope(t, s)
	})
	t.Run("StaleCursor", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberStaleCursor(t, s)
	})
	t.Run("SearchAndSort", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberSearchAndSort(t, s)
	})
	t.Run("CaseInsensitivePrefix", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberCaseInsensitivePrefix(t, s)
	})
	t.Run("InvalidRequests", func(t *testing.T) {
		s, cleanup := factory(t)
		defer cleanup()
		testSubscriberInvalidRequests(t, s)
	})
}

// CreateSubscribers creates n subscribers in environmentID, one minute apart according to clk.
// External ids are "<prefix>-<i>" and emails "<prefix><i>@example.com".
func CreateSubscribers(t *testing.T, s store.SubscriberStore, clk *clock.Mock, environmentID string, prefix string, n int) []*models.Subscriber {
	ctx := context.Background()
	var created []*models.Subscriber
	for i := 0; i < n; i++ {
		clk.Add(time.Minute)
		subscriber := models.NewSubscriber(
			models.NewTime(clk.Now()),
			environmentID,
			fmt.Sprintf("%s-%d", prefix, i),
			fmt.Sprintf("%s%d@example.com", prefix, i),
			fmt.Sprintf("First%d", i),
			fmt.Sprintf("Last%d", i),
			"",
			"en_US")
		require.NoError(t, s.Create(ctx, nil, subscriber))
		created = append(created, subscriber)
	}
	return created
}

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return clk
}

func externalIDs(subscribers []*models.Subscriber) []string {
	ids := make([]string, len(subscribers))
	for i, subscriber := range subscribers {
		ids[i] = subscriber.ExternalID
	}
	return ids
}

func reversed(subscribers []*models.Subscriber) []*models.Subscriber {
	out := make([]*models.Subscriber, len(subscribers))
	for i, subscriber := range subscribers {
		out[len(subscribers)-1-i] = subscriber
	}
	return out
}

func testSubscriberCRUD(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	clk := newMockClock()
	subscriber := CreateSubscribers(t, s, clk, "env-a", "sub", 1)[0]
	require.NotEmpty(t, subscriber.ETag)

	read, err := s.Read(ctx, nil, subscriber.ID)
	require.NoError(t, err)
	require.Equal(t, subscriber.ID, read.ID)
	require.Equal(t, subscriber.Email, read.Email)
	require.True(t, subscriber.CreatedAt.Equal(read.CreatedAt.Time))
	require.Equal(t, subscriber.ETag, read.ETag)

	read, err = s.ReadByExternalID(ctx, nil, "env-a", "sub-0")
	require.NoError(t, err)
	require.Equal(t, subscriber.ID, read.ID)

	_, err = s.ReadByExternalID(ctx, nil, "env-b", "sub-0")
	require.True(t, gerror.IsNotFound(err))

	duplicate := models.NewSubscriber(models.NewTime(clk.Now()), "env-a", "sub-0", "", "", "", "", "")
	err = s.Create(ctx, nil, duplicate)
	require.True(t, gerror.IsAlreadyExists(err), "expected already exists, found %v", err)

	invalid := models.NewSubscriber(models.NewTime(clk.Now()), "env-a", "", "not an email", "", "", "", "")
	err = s.Create(ctx, nil, invalid)
	require.True(t, gerror.IsValidationFailed(err), "expected validation failure, found %v", err)

	originalETag := read.ETag
	read.FirstName = "Renamed"
	read.UpdatedAt = models.NewTime(clk.Now().Add(time.Second))
	require.NoError(t, s.Update(ctx, nil, read))
	require.NotEqual(t, originalETag, read.ETag)

	stale := *subscriber
	stale.LastName = "Stale"
	err = s.Update(ctx, nil, &stale)
	require.True(t, gerror.IsOptimisticLockFailed(err), "expected optimistic lock failure, found %v", err)
	require.Equal(t, subscriber.ETag, stale.ETag)

	reread, err := s.Read(ctx, nil, subscriber.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", reread.FirstName)

	require.NoError(t, s.Delete(ctx, nil, subscriber.ID))
	require.NoError(t, s.Delete(ctx, nil, subscriber.ID))
	_, err = s.Read(ctx, nil, subscriber.ID)
	require.True(t, gerror.IsNotFound(err))
}

func testSubscriberPaging(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	created := CreateSubscribers(t, s, newMockClock(), "env-a", "sub", 7)
	newestFirst := reversed(created)

	query := search.NewSubscriberQueryBuilder().Limit(3).Compile()
	page1, cursor, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, externalIDs(newestFirst[0:3]), externalIDs(page1))
	require.True(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())

	query = search.NewSubscriberQueryBuilder().Limit(3).After(models.SubscriberIDFromResourceID(*cursor.Next)).Compile()
	page2, cursor, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, externalIDs(newestFirst[3:6]), externalIDs(page2))
	require.True(t, cursor.HasNext())
	require.True(t, cursor.HasPrevious())
	page2Previous := *cursor.Previous

	query = search.NewSubscriberQueryBuilder().Limit(3).After(models.SubscriberIDFromResourceID(*cursor.Next)).Compile()
	page3, cursor, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, externalIDs(newestFirst[6:7]), externalIDs(page3))
	require.False(t, cursor.HasNext())
	require.True(t, cursor.HasPrevious())

	// Walk back from the last page
	query = search.NewSubscriberQueryBuilder().Limit(3).Before(models.SubscriberIDFromResourceID(*cursor.Previous)).Compile()
	back, cursor, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, externalIDs(page2), externalIDs(back))
	require.True(t, cursor.HasNext())
	require.True(t, cursor.HasPrevious())

	query = search.NewSubscriberQueryBuilder().Limit(3).Before(models.SubscriberIDFromResourceID(page2Previous)).Compile()
	back, cursor, err = s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, externalIDs(page1), externalIDs(back))
	require.True(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())
}

func testSubscriberPagingWithTies(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	clk := newMockClock()
	now := models.NewTime(clk.Now())
	var created []*models.Subscriber
	for i := 0; i < 5; i++ {
		subscriber := models.NewSubscriber(now, "env-a", fmt.Sprintf("tie-%d", i), "", "", "", "", "")
		require.NoError(t, s.Create(ctx, nil, subscriber))
		created = append(created, subscriber)
	}

	seen := map[models.ResourceID]bool{}
	var after *models.ResourceID
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "paging did not terminate")
		builder := search.NewSubscriberQueryBuilder().Limit(2)
		if after != nil {
			builder = builder.After(models.SubscriberIDFromResourceID(*after))
		}
		page, cursor, err := s.Search(ctx, nil, "env-a", builder.Compile())
		require.NoError(t, err)
		for _, subscriber := range page {
			require.False(t, seen[subscriber.ID.ResourceID], "subscriber %s returned twice", subscriber.ID)
			seen[subscriber.ID.ResourceID] = true
		}
		if !cursor.HasNext() {
			break
		}
		after = cursor.Next
	}
	require.Len(t, seen, len(created))
}

func testSubscriberEnvironmentScope(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	clk := newMockClock()
	inA := CreateSubscribers(t, s, clk, "env-a", "a", 3)
	inB := CreateSubscribers(t, s, clk, "env-b", "b", 2)

	page, cursor, err := s.Search(ctx, nil, "env-b", search.NewSubscriberQueryBuilder().Compile())
	require.NoError(t, err)
	require.Equal(t, externalIDs(reversed(inB)), externalIDs(page))
	require.False(t, cursor.HasNext())

	// A cursor from another environment does not resolve
	query := search.NewSubscriberQueryBuilder().After(inA[1].ID).Compile()
	page, cursor, err = s.Search(ctx, nil, "env-b", query)
	require.NoError(t, err)
	require.Empty(t, page)
	require.False(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())

	page, _, err = s.Search(ctx, nil, "env-c", search.NewSubscriberQueryBuilder().Compile())
	require.NoError(t, err)
	require.Empty(t, page)
}

func testSubscriberStaleCursor(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	created := CreateSubscribers(t, s, newMockClock(), "env-a", "sub", 4)

	page, cursor, err := s.Search(ctx, nil, "env-a", search.NewSubscriberQueryBuilder().Limit(2).Compile())
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, cursor.HasNext())

	require.NoError(t, s.Delete(ctx, nil, models.SubscriberIDFromResourceID(*cursor.Next)))

	query := search.NewSubscriberQueryBuilder().Limit(2).After(models.SubscriberIDFromResourceID(*cursor.Next)).Compile()
	page, cursor, err = s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Empty(t, page)
	require.False(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())
	require.Len(t, created, 4)
}

func testSubscriberSearchAndSort(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	clk := newMockClock()
	CreateSubscribers(t, s, clk, "env-a", "ann", 3)
	CreateSubscribers(t, s, clk, "env-a", "bob", 2)

	query := search.ParseQuery("ANN sort:email-asc")
	page, _, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, []string{"ann-0", "ann-1", "ann-2"}, externalIDs(page))

	query = search.ParseQuery("external_id:>=bob sort:external_id-desc")
	page, _, err = s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, []string{"bob-1", "bob-0"}, externalIDs(page))

	query = search.NewSubscriberQueryBuilder().
		WhereExternalID(search.StartsWith, "bob").
		SortEmail(search.Ascending).
		Limit(1).
		Compile()
	page, cursor, err := s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, []string{"bob-0"}, externalIDs(page))
	require.True(t, cursor.HasNext())

	query.After = cursor.Next
	page, cursor, err = s.Search(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, []string{"bob-1"}, externalIDs(page))
	require.False(t, cursor.HasNext())
	require.True(t, cursor.HasPrevious())
}

func testSubscriberCaseInsensitivePrefix(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	clk := newMockClock()
	for _, person := range []struct{ externalID, firstName, email string }{
		{"emile", "Émile", "emile@example.com"},
		{"oz", "Özil", "OZIL@Example.com"},
		{"plain", "Emilia", "emilia@example.com"},
	} {
		clk.Add(time.Minute)
		subscriber := models.NewSubscriber(models.NewTime(clk.Now()), "env-a", person.externalID, person.email, person.firstName, "", "", "")
		require.NoError(t, s.Create(ctx, nil, subscriber))
	}

	tests := []struct {
		query    string
		expected []string
	}{
		{"émile sort:external_id-asc", []string{"emile"}},
		{"ÉMI sort:external_id-asc", []string{"emile"}},
		{"öz sort:external_id-asc", []string{"oz"}},
		{"ozil@example sort:external_id-asc", []string{"oz"}},
		{"emi sort:external_id-asc", []string{"emile", "plain"}},
	}
	for _, test := range tests {
		page, _, err := s.Search(ctx, nil, "env-a", search.ParseQuery(test.query))
		require.NoError(t, err)
		require.Equal(t, test.expected, externalIDs(page), "query %q", test.query)
	}
}

func testSubscriberInvalidRequests(t *testing.T, s store.SubscriberStore) {
	ctx := context.Background()
	created := CreateSubscribers(t, s, newMockClock(), "env-a", "sub", 2)

	query := search.NewSubscriberQueryBuilder().After(created[0].ID).Before(created[1].ID).Compile()
	_, _, err := s.Search(ctx, nil, "env-a", query)
	require.True(t, gerror.IsInvalidArgument(err))

	query = search.NewSubscriberQueryBuilder().Limit(-1).Compile()
	_, _, err = s.Search(ctx, nil, "env-a", query)
	require.True(t, gerror.IsInvalidArgument(err))

	query = search.NewSubscriberQueryBuilder().Limit(models.MaxPaginationLimit + 1).Compile()
	_, _, err = s.Search(ctx, nil, "env-a", query)
	require.True(t, gerror.IsInvalidArgument(err))

	query = search.ParseQuery("sort:phone-asc")
	_, _, err = s.Search(ctx, nil, "env-a", query)
	require.True(t, gerror.IsInvalidArgument(err))

	query = search.ParseQuery("colour:blue")
	_, _, err = s.Search(ctx, nil, "env-a", query)
	require.True(t, gerror.IsInvalidQueryParameter(err))
}
