package mongodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/mongodb"
	"github.com/tidecast/tidecast/server/store/store_test"
)

const testMongoURIEnvVar = "TEST_MONGODB_URI"

func TestSubscriberStore(t *testing.T) {
	uri, ok := os.LookupEnv(testMongoURIEnvVar)
	if !ok || uri == "" {
		t.Skipf("%s not set; skipping MongoDB tests", testMongoURIEnvVar)
	}
	store_test.RunSubscriberStoreTests(t, func(t *testing.T) (store.SubscriberStore, func()) {
		ctx := context.Background()
		db, cleanup, err := mongodb.NewDatabase(ctx, mongodb.DatabaseConfig{
			URI:      uri,
			Database: fmt.Sprintf("tidecast_test_%d", time.Now().UnixNano()),
		})
		require.NoError(t, err)
		s := mongodb.NewSubscriberStore(db, paging.DefaultConfig, logger.NoOpLogFactory)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s, func() {
			db.Drop(context.Background())
			cleanup()
		}
	})
}

func TestNewDatabaseRequiresConfig(t *testing.T) {
	_, _, err := mongodb.NewDatabase(context.Background(), mongodb.DatabaseConfig{Database: "tidecast"})
	require.Error(t, err)
	_, _, err = mongodb.NewDatabase(context.Background(), mongodb.DatabaseConfig{URI: "mongodb://localhost:27017"})
	require.Error(t, err)
}
