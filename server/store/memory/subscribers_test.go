package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/memory"
	"github.com/tidecast/tidecast/server/store/store_test"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSubscriberStore(t *testing.T) {
	store_test.RunSubscriberStoreTests(t, func(t *testing.T) (store.SubscriberStore, func()) {
		return memory.NewSubscriberStore(paging.DefaultConfig, logger.NoOpLogFactory), func() {}
	})
}

func TestSubscriberStoreRejectsTransactions(t *testing.T) {
	s := memory.NewSubscriberStore(paging.DefaultConfig, logger.NoOpLogFactory)
	ctx := context.Background()
	tx := &store.Tx{}

	_, _, err := s.Search(ctx, tx, "env-a", search.NewQuery())
	require.True(t, gerror.IsNotSupported(err))
	_, err = s.Read(ctx, tx, models.NewSubscriberID())
	require.True(t, gerror.IsNotSupported(err))
}

func TestSubscriberStoreReturnsCopies(t *testing.T) {
	s := memory.NewSubscriberStore(paging.DefaultConfig, logger.NoOpLogFactory)
	ctx := context.Background()
	subscriber := models.NewSubscriber(models.NewTime(testNow), "env-a", "copy", "", "", "", "", "")
	require.NoError(t, s.Create(ctx, nil, subscriber))

	subscriber.FirstName = "Changed"
	read, err := s.Read(ctx, nil, subscriber.ID)
	require.NoError(t, err)
	require.Empty(t, read.FirstName)

	read.FirstName = "Changed again"
	page, _, err := s.Search(ctx, nil, "env-a", search.NewQuery())
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Empty(t, page[0].FirstName)
}
