//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/services/export"
	"github.com/tidecast/tidecast/server/services/subscriber"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/migrations"
)

func New(ctx context.Context, config *ServerConfig) (*Server, func(), error) {
	panic(wire.Build(
		NewServer,
		wire.FieldsOf(new(*ServerConfig), "DatabaseConfig", "BackendConfig", "BlobStoreConfig", "PagingConfig", "LogLevels"),
		migrations.NewServerMigrateRunner,
		wire.Bind(new(store.MigrationRunner), new(*migrations.GolangMigrateRunner)),

		// Stores
		SubscriberStoreFactory,
		BlobStoreFactory,

		// Services
		subscriber.NewSubscriberService,
		wire.Bind(new(services.SubscriberService), new(*subscriber.SubscriberService)),
		export.NewExportService,
		wire.Bind(new(services.ExportService), new(*export.ExportService)),

		logger.NewLogRegistry,
		logger.MakeLogrusLogFactoryStdErr,
		clock.New,
	))
}
