package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/services/blob"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/memory"
	"github.com/tidecast/tidecast/server/store/mongodb"
	"github.com/tidecast/tidecast/server/store/subscribers"
)

const DefaultMongoDBDatabase = "tidecast"

// LogSafeFlags is a list of flags by name whose values are safe to log.
var LogSafeFlags = []string{
	"backend",
	"database-driver",
	"database-max-idle-connections",
	"database-max-open-connections",
	"mongodb-database",
	"max-page-limit",
	"log-levels",
	"blob-store",
	"blob-store-directory",
	"s3-bucket",
	"s3-region",
	"s3-endpoint",
}

type BackendType string

const (
	SQLBackendType     BackendType = "sql"
	MongoDBBackendType BackendType = "mongodb"
	MemoryBackendType  BackendType = "memory"
)

func (t BackendType) String() string {
	return string(t)
}

// BackendTypes returns the names of all supported subscriber storage backends.
func BackendTypes() []string {
	return []string{SQLBackendType.String(), MongoDBBackendType.String(), MemoryBackendType.String()}
}

type BackendConfig struct {
	// BackendType specifies where subscribers are stored.
	BackendType string
	// MongoDBConfig contains configuration for the MongoDB backend, if enabled.
	MongoDBConfig mongodb.DatabaseConfig
}

// BlobStoreConfig selects where subscriber exports are written.
type BlobStoreConfig struct {
	BlobStoreType           blob.BlobStoreType
	LocalBlobStoreDirectory blob.LocalBlobStoreDirectory
	S3BlobStoreConfig       blob.S3BlobStoreConfig
}

type ServerConfig struct {
	// DatabaseConfig configures the SQL database, used by the sql backend.
	DatabaseConfig  store.DatabaseConfig
	BackendConfig   BackendConfig
	BlobStoreConfig BlobStoreConfig
	PagingConfig    paging.Config
	LogLevels       logger.LogLevelConfig
}

// DefaultServerConfig returns a config using a local sqlite database.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		DatabaseConfig: store.DatabaseConfig{
			ConnectionString:   defaultSQLiteConnectionString,
			Driver:             store.Sqlite,
			MaxIdleConnections: store.DefaultDatabaseMaxIdleConnections,
			MaxOpenConnections: store.DefaultDatabaseMaxOpenConnections,
		},
		BackendConfig: BackendConfig{
			BackendType: SQLBackendType.String(),
			MongoDBConfig: mongodb.DatabaseConfig{
				Database:       DefaultMongoDBDatabase,
				ConnectTimeout: mongodb.DefaultConnectTimeout,
			},
		},
		BlobStoreConfig: BlobStoreConfig{
			BlobStoreType:           blob.LocalBlobStoreType,
			LocalBlobStoreDirectory: defaultLocalBlobStoreDirectory,
		},
		PagingConfig: paging.DefaultConfig,
	}
}

func BlobStoreFactory(config BlobStoreConfig, logFactory logger.LogFactory) (services.BlobStore, error) {
	switch blob.BlobStoreType(strings.ToUpper(config.BlobStoreType.String())) {
	case blob.AWSS3BlobStoreType:
		s3Store, err := blob.NewS3BlobStore(config.S3BlobStoreConfig, logFactory)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	case "", blob.LocalBlobStoreType:
		if config.LocalBlobStoreDirectory == "" {
			return nil, fmt.Errorf("error local blob store directory must be configured")
		}
		return blob.NewLocalBlobStore(config.LocalBlobStoreDirectory), nil
	default:
		return nil, fmt.Errorf("error unsupported blob store type: %v", config.BlobStoreType)
	}
}

// SubscriberStoreFactory opens the subscriber store selected by config, returning it along with a
// cleanup function that releases any connections it holds. The SQL database is migrated to the
// latest schema before use.
func SubscriberStoreFactory(
	ctx context.Context,
	config BackendConfig,
	databaseConfig store.DatabaseConfig,
	migrationRunner store.MigrationRunner,
	pagingConfig paging.Config,
	logFactory logger.LogFactory,
) (store.SubscriberStore, func(), error) {
	switch strings.ToLower(config.BackendType) {
	case "", SQLBackendType.String():
		db, cleanup, err := store.NewDatabase(ctx, databaseConfig, migrationRunner)
		if err != nil {
			return nil, nil, err
		}
		return subscribers.NewStore(db, pagingConfig, logFactory), cleanup, nil
	case MongoDBBackendType.String():
		db, cleanup, err := mongodb.NewDatabase(ctx, config.MongoDBConfig)
		if err != nil {
			return nil, nil, err
		}
		subscriberStore := mongodb.NewSubscriberStore(db, pagingConfig, logFactory)
		err = subscriberStore.EnsureIndexes(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return subscriberStore, cleanup, nil
	case MemoryBackendType.String():
		return memory.NewSubscriberStore(pagingConfig, logFactory), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("error unsupported backend type: %v", config.BackendType)
	}
}
