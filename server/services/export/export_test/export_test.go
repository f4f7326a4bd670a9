package export_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/app/server_test"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/services/export"
)

func TestExportSubscribers(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscribers(t, ctx, app, "env-a", "sub", 7)
	server_test.CreateSubscribers(t, ctx, app, "env-b", "other", 2)

	// A small page limit forces the export to follow several cursors
	query := search.NewSubscriberQueryBuilder().SortID(search.Ascending).Limit(3).Compile()
	exported, err := app.ExportService.ExportSubscribers(ctx, "env-a", query, "exports/env-a.ndjson")
	require.NoError(t, err)
	require.Equal(t, 7, exported)

	lines := readExport(t, ctx, app.BlobStore, "exports/env-a.ndjson")
	require.Len(t, lines, 7)
	for i, subscriber := range lines {
		require.Equal(t, created[i].ID, subscriber.ID)
		require.Equal(t, "env-a", subscriber.EnvironmentID)
		require.Equal(t, created[i].CreatedAt, subscriber.CreatedAt)
	}
}

func TestExportSubscribersFiltered(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	created := server_test.CreateSubscribers(t, ctx, app, "env-a", "sub", 4)

	// Cursors on the query are ignored; an export always starts from the first page
	after := created[0].ID.ResourceID
	query := search.NewQueryBuilder(search.ParseQuery("sub-002")).After(after).Compile()
	exported, err := app.ExportService.ExportSubscribers(ctx, "env-a", query, "exports/filtered.ndjson")
	require.NoError(t, err)
	require.Equal(t, 1, exported)
	lines := readExport(t, ctx, app.BlobStore, "exports/filtered.ndjson")
	require.Equal(t, created[2].ID, lines[0].ID)

	// An environment with no matches still produces an (empty) export
	exported, err = app.ExportService.ExportSubscribers(ctx, "env-empty", search.NewQuery(), "exports/empty.ndjson")
	require.NoError(t, err)
	require.Equal(t, 0, exported)
	require.Empty(t, readExport(t, ctx, app.BlobStore, "exports/empty.ndjson"))
}

func TestExportSubscribersErrors(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()

	_, err = app.ExportService.ExportSubscribers(ctx, "", search.NewQuery(), "exports/a.ndjson")
	require.True(t, gerror.IsInvalidArgument(err))
	_, err = app.ExportService.ExportSubscribers(ctx, "env-a", search.NewQuery(), "/exports/a.ndjson")
	require.True(t, gerror.IsInvalidArgument(err))

	// A query that cannot run must not leave a partial export behind
	_, err = app.ExportService.ExportSubscribers(ctx, "env-a", search.ParseQuery("shoe_size:>10"), "exports/bad.ndjson")
	require.True(t, gerror.IsInvalidQueryParameter(err), "expected InvalidQueryParameter, got %v", err)
	_, err = app.BlobStore.GetBlob(ctx, "exports/bad.ndjson")
	require.True(t, gerror.IsNotFound(err))
}

func TestExportSubscribersUploadFailure(t *testing.T) {
	ctx := context.Background()
	app, cleanup, err := server_test.New(server_test.TestConfig(t))
	require.NoError(t, err)
	defer cleanup()
	server_test.CreateSubscribers(t, ctx, app, "env-a", "sub", 3)

	service := export.NewExportService(app.SubscriberService, failingBlobStore{}, logger.NoOpLogFactory)
	_, err = service.ExportSubscribers(ctx, "env-a", search.NewQuery(), "exports/a.ndjson")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bucket unavailable")
}

// failingBlobStore reads a little of each upload and then fails.
type failingBlobStore struct{}

func (failingBlobStore) PutBlob(ctx context.Context, key string, source io.Reader) error {
	_, err := source.Read(make([]byte, 16))
	if err != nil {
		return err
	}
	return fmt.Errorf("bucket unavailable")
}

func (failingBlobStore) GetBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, gerror.NewErrNotFound("Not Found")
}

func (failingBlobStore) DeleteBlob(ctx context.Context, key string) error {
	return nil
}

func readExport(t *testing.T, ctx context.Context, store services.BlobStore, key string) []*models.Subscriber {
	reader, err := store.GetBlob(ctx, key)
	require.NoError(t, err)
	defer reader.Close()
	var subscribers []*models.Subscriber
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		subscriber := &models.Subscriber{}
		require.NoError(t, json.Unmarshal([]byte(line), subscriber))
		subscribers = append(subscribers, subscriber)
	}
	require.NoError(t, scanner.Err())
	return subscribers
}
