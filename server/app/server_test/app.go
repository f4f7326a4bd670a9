package server_test

import (
	"github.com/benbjohnson/clock"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/store"
)

type TestServer struct {
	DB                *store.DB
	SubscriberStore   store.SubscriberStore
	SubscriberService services.SubscriberService
	BlobStore         services.BlobStore
	ExportService     services.ExportService
	Clock             *clock.Mock
	LogFactory        logger.LogFactory
}

func NewTestServer(
	db *store.DB,
	subscriberStore store.SubscriberStore,
	subscriberService services.SubscriberService,
	blobStore services.BlobStore,
	exportService services.ExportService,
	clk *clock.Mock,
	logFactory logger.LogFactory,
) *TestServer {
	return &TestServer{
		DB:                db,
		SubscriberStore:   subscriberStore,
		SubscriberService: subscriberService,
		BlobStore:         blobStore,
		ExportService:     exportService,
		Clock:             clk,
		LogFactory:        logFactory,
	}
}
