package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/services"
	"github.com/tidecast/tidecast/server/services/blob"
)

type ExportService struct {
	subscriberService services.SubscriberService
	blobStore         services.BlobStore
	logger.Log
}

func NewExportService(
	subscriberService services.SubscriberService,
	blobStore services.BlobStore,
	logFactory logger.LogFactory) *ExportService {

	return &ExportService{
		subscriberService: subscriberService,
		blobStore:         blobStore,
		Log:               logFactory("ExportService"),
	}
}

// ExportSubscribers writes every subscriber in an environment that matches query to the blob
// identified by key, one JSON document per line, in the query's sort order. The query's page
// limit sets how many subscribers are read per page; its cursors are ignored.
// Returns the number of subscribers exported.
func (s *ExportService) ExportSubscribers(ctx context.Context, environmentID string, query search.Query, key string) (int, error) {
	if environmentID == "" {
		return 0, gerror.NewErrInvalidArgument("Environment id must be set")
	}
	err := blob.ValidateKey(key)
	if err != nil {
		return 0, err
	}
	query.After = nil
	query.Before = nil

	// Pages are streamed into the blob as they are read so an export never holds the whole environment in memory
	reader, writer := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	var exported int
	g.Go(func() error {
		err := s.writeSubscribers(gctx, environmentID, query, writer, &exported)
		writer.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := s.blobStore.PutBlob(gctx, key, reader)
		reader.CloseWithError(err)
		return err
	})
	err = g.Wait()
	if err != nil {
		deleteErr := s.blobStore.DeleteBlob(context.Background(), key)
		if deleteErr != nil {
			s.Warnf("Ignoring error removing partial export %q: %v", key, deleteErr)
		}
		return 0, errors.Wrap(err, "error exporting subscribers")
	}
	s.WithFields(logger.Fields{
		"environment_id": environmentID,
		"key":            key,
		"exported":       exported,
	}).Info("Exported subscribers")
	return exported, nil
}

// writeSubscribers follows the next cursor from the first page until there are no more pages,
// encoding each subscriber to w.
func (s *ExportService) writeSubscribers(ctx context.Context, environmentID string, query search.Query, w io.Writer, exported *int) error {
	encoder := json.NewEncoder(w)
	for page := 1; ; page++ {
		subscribers, cursor, err := s.subscriberService.ListSubscribers(ctx, nil, environmentID, query)
		if err != nil {
			return errors.Wrapf(err, "error reading page %d", page)
		}
		for _, subscriber := range subscribers {
			err = encoder.Encode(subscriber)
			if err != nil {
				return errors.Wrapf(err, "error writing subscriber %q", subscriber.ID)
			}
			*exported++
		}
		if !cursor.HasNext() {
			return nil
		}
		query.After = cursor.Next
	}
}
