// Package mongodb stores resources in MongoDB collections, translating search filters and sort
// orders into MongoDB queries. MongoDB stores do not take part in SQL transactions.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultConnectTimeout = 10 * time.Second

type DatabaseConfig struct {
	// URI is a mongodb:// connection string.
	URI string
	// Database is the name of the database holding the collections.
	Database       string
	ConnectTimeout time.Duration
}

// NewDatabase connects to MongoDB and checks the server is reachable, returning the configured
// database and a cleanup function to call to disconnect again.
func NewDatabase(ctx context.Context, config DatabaseConfig) (*mongo.Database, func(), error) {
	if config.URI == "" {
		return nil, nil, fmt.Errorf("error mongodb URI must be set")
	}
	if config.Database == "" {
		return nil, nil, fmt.Errorf("error mongodb database name must be set")
	}
	timeout := config.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("error pinging mongodb: %w", err)
	}
	cleanup := func() {
		client.Disconnect(context.Background())
	}
	return client.Database(config.Database), cleanup, nil
}
