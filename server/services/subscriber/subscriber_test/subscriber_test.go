package subscriber_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/app/server_test"
	"github.com/tidecast/tidecast/server/dto"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/services/subscriber"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/memory"
)

func TestSubscriberCreate(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscriber(t, ctx, app, "env-a", "ada", " ada@example.com ")
	require.Equal(t, "ada@example.com", created.Email, "Email should be trimmed")
	require.Equal(t, models.NewTime(server_test.TestStartTime), created.CreatedAt)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.NotEmpty(t, created.ETag)

	read, err := app.SubscriberService.ReadByExternalID(ctx, nil, "env-a", "ada")
	require.NoError(t, err)
	require.Equal(t, created.ID, read.ID)

	// The same external id is allowed once per environment
	_, err = app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{EnvironmentID: "env-a", ExternalID: "ada"})
	require.True(t, gerror.IsAlreadyExists(err), "expected AlreadyExists, got %v", err)
	_, err = app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{EnvironmentID: "env-b", ExternalID: "ada"})
	require.NoError(t, err)
}

func TestSubscriberCreateValidation(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	_, err = app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{EnvironmentID: "env-a"})
	require.True(t, gerror.IsValidationFailed(err), "missing external id should fail validation")
	_, err = app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{ExternalID: "ada"})
	require.True(t, gerror.IsValidationFailed(err), "missing environment should fail validation")
	_, err = app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{EnvironmentID: "env-a", ExternalID: "ada", Email: "not-an-email"})
	require.True(t, gerror.IsValidationFailed(err), "bad email should fail validation")
}

func TestSubscriberUpdate(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscriber(t, ctx, app, "env-a", "grace", "")
	app.Clock.Add(time.Hour)

	lastName := "Hopper"
	updated, err := app.SubscriberService.Update(ctx, nil, created.ID, dto.UpdateSubscriber{LastName: &lastName})
	require.NoError(t, err)
	require.Equal(t, "Hopper", updated.LastName)
	require.Equal(t, created.Email, updated.Email, "Fields not in the update should be unchanged")
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, models.NewTime(server_test.TestStartTime.Add(time.Hour)), updated.UpdatedAt)
	require.NotEqual(t, created.ETag, updated.ETag)

	// Updating against the original etag must fail now that the subscriber has changed
	locale := "fr_FR"
	_, err = app.SubscriberService.Update(ctx, nil, created.ID, dto.UpdateSubscriber{Locale: &locale, ETag: created.ETag})
	require.True(t, gerror.IsOptimisticLockFailed(err), "expected OptimisticLockFailed, got %v", err)

	_, err = app.SubscriberService.Update(ctx, nil, models.NewSubscriberID(), dto.UpdateSubscriber{Locale: &locale})
	require.True(t, gerror.IsNotFound(err))
}

func TestSubscriberDelete(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscriber(t, ctx, app, "env-a", "linus", "")
	require.NoError(t, app.SubscriberService.Delete(ctx, nil, created.ID))
	_, err = app.SubscriberService.Read(ctx, nil, created.ID)
	require.True(t, gerror.IsNotFound(err))

	// Deleting again is a no-op
	require.NoError(t, app.SubscriberService.Delete(ctx, nil, created.ID))
}

func TestListSubscribers(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscribers(t, ctx, app, "env-a", "sub", 5)
	server_test.CreateSubscribers(t, ctx, app, "env-b", "other", 3)

	query := search.NewSubscriberQueryBuilder().Limit(2).Compile()
	page, cursor, err := app.SubscriberService.ListSubscribers(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, []models.SubscriberID{created[4].ID, created[3].ID}, ids(page), "Newest subscribers should be listed first")
	require.True(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())

	var all []models.SubscriberID
	all = append(all, ids(page)...)
	for cursor.HasNext() {
		next := search.NewSubscriberQueryBuilder(query).After(models.SubscriberIDFromResourceID(*cursor.Next)).Compile()
		page, cursor, err = app.SubscriberService.ListSubscribers(ctx, nil, "env-a", next)
		require.NoError(t, err)
		all = append(all, ids(page)...)
	}
	require.Equal(t, []models.SubscriberID{created[4].ID, created[3].ID, created[2].ID, created[1].ID, created[0].ID}, all)

	// Free text is matched as a case-insensitive prefix of the text fields
	textQuery := search.ParseQuery("SUB-003")
	page, _, err = app.SubscriberService.ListSubscribers(ctx, nil, "env-a", textQuery)
	require.NoError(t, err)
	require.Equal(t, []models.SubscriberID{created[3].ID}, ids(page))

	_, _, err = app.SubscriberService.ListSubscribers(ctx, nil, "", query)
	require.True(t, gerror.IsInvalidArgument(err))

	badQuery := search.ParseQuery("shoe_size:>10")
	_, _, err = app.SubscriberService.ListSubscribers(ctx, nil, "env-a", badQuery)
	require.True(t, gerror.IsInvalidQueryParameter(err), "expected InvalidQueryParameter, got %v", err)
}

func TestListSubscribersInMemory(t *testing.T) {
	ctx := context.Background()
	clk := server_test.NewMockClock()
	service := subscriber.NewSubscriberService(
		memory.NewSubscriberStore(paging.DefaultConfig, logger.NoOpLogFactory),
		clk,
		logger.NoOpLogFactory)

	var created []*models.Subscriber
	for _, externalID := range []string{"b", "a", "c"} {
		clk.Add(time.Second)
		s, err := service.Create(ctx, nil, dto.CreateSubscriber{EnvironmentID: "env-a", ExternalID: externalID})
		require.NoError(t, err)
		created = append(created, s)
	}

	query := search.NewSubscriberQueryBuilder().SortID(search.Ascending).Compile()
	page, cursor, err := service.ListSubscribers(ctx, nil, "env-a", query)
	require.NoError(t, err)
	require.Equal(t, ids(created), ids(page))
	require.False(t, cursor.HasNext())
	require.False(t, cursor.HasPrevious())

	_, _, err = service.ListSubscribers(ctx, &store.Tx{}, "env-a", query)
	require.True(t, gerror.IsNotSupported(err))
}

func ids(subscribers []*models.Subscriber) []models.SubscriberID {
	out := make([]models.SubscriberID, len(subscribers))
	for i, s := range subscribers {
		out[i] = s.ID
	}
	return out
}
