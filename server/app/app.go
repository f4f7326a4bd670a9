package app

import (
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/store"
)

type Server struct {
	SubscriberStore   store.SubscriberStore
	SubscriberService services.SubscriberService
	ExportService     services.ExportService
	LogFactory        logger.LogFactory
}

func NewServer(
	subscriberStore store.SubscriberStore,
	subscriberService services.SubscriberService,
	exportService services.ExportService,
	logFactory logger.LogFactory,
) *Server {
	return &Server{
		SubscriberStore:   subscriberStore,
		SubscriberService: subscriberService,
		ExportService:     exportService,
		LogFactory:        logFactory,
	}
}
