package subscribers_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/store_test"
	"github.com/tidecast/tidecast/server/store/subscribers"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newSQLStore(t *testing.T) (*store.DB, *subscribers.SubscriberStore, func()) {
	db, cleanup, err := store_test.Connect(logger.NoOpLogFactory)
	require.NoError(t, err)
	return db, subscribers.NewStore(db, paging.DefaultConfig, logger.NoOpLogFactory), cleanup
}

func TestSubscriberStore(t *testing.T) {
	store_test.RunSubscriberStoreTests(t, func(t *testing.T) (store.SubscriberStore, func()) {
		_, s, cleanup := newSQLStore(t)
		return s, cleanup
	})
}

func TestSubscriberSearchWithinTransaction(t *testing.T) {
	db, s, cleanup := newSQLStore(t)
	defer cleanup()
	ctx := context.Background()

	err := db.WithTx(ctx, nil, func(tx *store.Tx) error {
		for _, externalID := range []string{"tx-1", "tx-2"} {
			subscriber := models.NewSubscriber(models.NewTime(testNow), "env-a", externalID, "", "", "", "", "")
			if err := s.Create(ctx, tx, subscriber); err != nil {
				return err
			}
		}
		// Rows written in the transaction are visible to a search in the same transaction
		page, cursor, err := s.Search(ctx, tx, "env-a", search.NewSubscriberQueryBuilder().SortID(search.Ascending).Limit(1).Compile())
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.True(t, cursor.HasNext())
		return nil
	})
	require.NoError(t, err)

	page, _, err := s.Search(ctx, nil, "env-a", search.NewSubscriberQueryBuilder().Compile())
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestSubscriberTransactionRollback(t *testing.T) {
	db, s, cleanup := newSQLStore(t)
	defer cleanup()
	ctx := context.Background()

	err := db.WithTx(ctx, nil, func(tx *store.Tx) error {
		subscriber := models.NewSubscriber(models.NewTime(testNow), "env-a", "rolled-back", "", "", "", "", "")
		require.NoError(t, s.Create(ctx, tx, subscriber))
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	page, _, err := s.Search(ctx, nil, "env-a", search.NewSubscriberQueryBuilder().Compile())
	require.NoError(t, err)
	require.Empty(t, page)
}

// TestSubscriberSearchScenarios pages through ten subscribers E0..E9, created in that order and sorted by id.
func TestSubscriberSearchScenarios(t *testing.T) {
	_, s, cleanup := newSQLStore(t)
	defer cleanup()
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(testNow)
	e := store_test.CreateSubscribers(t, s, clk, "env-a", "E", 10)

	byID := func(direction search.SortDirection, limit int) *search.SubscriberQueryBuilder {
		return search.NewSubscriberQueryBuilder().SortID(direction).Limit(limit)
	}

	t.Run("FirstPageDescending", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Descending, 5).Compile())
		require.NoError(t, err)
		require.Equal(t, ids(e[9], e[8], e[7], e[6], e[5]), ids(page...))
		require.Equal(t, e[5].ID.ResourceID, *cursor.Next)
		require.Nil(t, cursor.Previous)
	})

	t.Run("AfterDescending", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Descending, 5).After(e[5].ID).Compile())
		require.NoError(t, err)
		require.Equal(t, ids(e[4], e[3], e[2], e[1], e[0]), ids(page...))
		require.Nil(t, cursor.Next)
		require.Equal(t, e[4].ID.ResourceID, *cursor.Previous)
	})

	t.Run("BeforeDescending", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Descending, 5).Before(e[4].ID).Compile())
		require.NoError(t, err)
		require.Equal(t, ids(e[9], e[8], e[7], e[6], e[5]), ids(page...))
		require.Equal(t, e[5].ID.ResourceID, *cursor.Next)
		require.Nil(t, cursor.Previous)
	})

	t.Run("LimitOneAscending", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Ascending, 1).Compile())
		require.NoError(t, err)
		require.Equal(t, ids(e[0]), ids(page...))
		require.Equal(t, e[0].ID.ResourceID, *cursor.Next)
		require.Nil(t, cursor.Previous)
	})

	t.Run("LimitLargerThanCollection", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Ascending, 15).Compile())
		require.NoError(t, err)
		require.Equal(t, ids(e...), ids(page...))
		require.Nil(t, cursor.Next)
		require.Nil(t, cursor.Previous)
	})

	t.Run("StaleCursor", func(t *testing.T) {
		page, cursor, err := s.Search(ctx, nil, "env-a", byID(search.Descending, 5).After(models.NewSubscriberID()).Compile())
		require.NoError(t, err)
		require.Empty(t, page)
		require.Nil(t, cursor.Next)
		require.Nil(t, cursor.Previous)
	})
}

func ids(subscribers ...*models.Subscriber) []models.SubscriberID {
	out := make([]models.SubscriberID, len(subscribers))
	for i, subscriber := range subscribers {
		out[i] = subscriber.ID
	}
	return out
}
