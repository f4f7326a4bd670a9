//go:build wireinject
// +build wireinject

package server_test

import (
	"github.com/benbjohnson/clock"
	"github.com/google/wire"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/app"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/services/export"
	"github.com/tidecast/tidecast/server/services/subscriber"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/store_test"
	"github.com/tidecast/tidecast/server/store/subscribers"
)

func New(config *app.ServerConfig) (*TestServer, func(), error) {
	panic(wire.Build(
		NewTestServer,
		wire.FieldsOf(new(*app.ServerConfig), "BlobStoreConfig", "PagingConfig", "LogLevels"),
		store_test.Connect,

		subscribers.NewStore,
		wire.Bind(new(store.SubscriberStore), new(*subscribers.SubscriberStore)),

		subscriber.NewSubscriberService,
		wire.Bind(new(services.SubscriberService), new(*subscriber.SubscriberService)),
		app.BlobStoreFactory,
		export.NewExportService,
		wire.Bind(new(services.ExportService), new(*export.ExportService)),

		logger.NewLogRegistry,
		logger.MakeLogrusLogFactoryStdErr,
		NewMockClock,
		wire.Bind(new(clock.Clock), new(*clock.Mock)),
	))
}
