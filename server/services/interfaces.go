package services

import (
	"context"
	"io"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/dto"
	"github.com/tidecast/tidecast/server/store"
)

type SubscriberService interface {
	// Create a new subscriber in an environment.
	// Returns gerror.ErrAlreadyExists if the environment already has a subscriber with the same external id.
	Create(ctx context.Context, txOrNil *store.Tx, create dto.CreateSubscriber) (*models.Subscriber, error)
	// Read an existing subscriber, looking it up by ID.
	// Returns gerror.ErrNotFound if the subscriber does not exist.
	Read(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) (*models.Subscriber, error)
	// ReadByExternalID reads an existing subscriber, looking it up by its external id within an environment.
	// Returns gerror.ErrNotFound if the subscriber does not exist.
	ReadByExternalID(ctx context.Context, txOrNil *store.Tx, environmentID string, externalID string) (*models.Subscriber, error)
	// Update the mutable properties of a subscriber with optimistic locking.
	// Returns gerror.ErrOptimisticLockFailed if update.ETag is set and does not match the stored subscriber.
	Update(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID, update dto.UpdateSubscriber) (*models.Subscriber, error)
	// Delete permanently and idempotently deletes a subscriber.
	Delete(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) error
	// ListSubscribers returns one page of the subscribers in an environment that match query,
	// along with the cursor to fetch the adjacent pages.
	ListSubscribers(ctx context.Context, txOrNil *store.Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error)
}

type BlobStore interface {
	// PutBlob writes all data in the source reader to a blob identified by key, replacing any existing blob.
	// The caller is responsible for closing the reader.
	PutBlob(ctx context.Context, key string, source io.Reader) error
	// GetBlob returns a reader positioned at the beginning of the blob identified by key.
	// Returns gerror.ErrNotFound if the blob does not exist. The caller is responsible for closing the reader.
	GetBlob(ctx context.Context, key string) (io.ReadCloser, error)
	// DeleteBlob deletes a blob. Returns nil if the blob does not exist.
	DeleteBlob(ctx context.Context, key string) error
}

type ExportService interface {
	// ExportSubscribers writes every subscriber in an environment that matches query to the blob
	// identified by key, one JSON document per line, in the query's sort order. The query's page
	// limit sets how many subscribers are read per page; its cursors are ignored.
	// Returns the number of subscribers exported.
	ExportSubscribers(ctx context.Context, environmentID string, query search.Query, key string) (int, error)
}
