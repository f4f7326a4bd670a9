package store

import (
	"context"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

type SubscriberStore interface {
	// Create a new subscriber.
	// Returns gerror.ErrAlreadyExists if a subscriber with the same external id already exists in the environment.
	Create(ctx context.Context, txOrNil *Tx, subscriber *models.Subscriber) error
	// Read an existing subscriber, looking it up by ID.
	// Returns gerror.ErrNotFound if the subscriber does not exist.
	Read(ctx context.Context, txOrNil *Tx, id models.SubscriberID) (*models.Subscriber, error)
	// ReadByExternalID reads an existing subscriber, looking it up by its external id within an environment.
	// Returns gerror.ErrNotFound if the subscriber does not exist.
	ReadByExternalID(ctx context.Context, txOrNil *Tx, environmentID string, externalID string) (*models.Subscriber, error)
	// Update an existing subscriber with optimistic locking. Overrides all previous values using the supplied model.
	// Returns gerror.ErrOptimisticLockFailed if there is an optimistic lock mismatch.
	Update(ctx context.Context, txOrNil *Tx, subscriber *models.Subscriber) error
	// Delete permanently and idempotently deletes a subscriber.
	Delete(ctx context.Context, txOrNil *Tx, id models.SubscriberID) error
	// Search returns one page of the subscribers in an environment that match query, in the query's
	// sort order. Use the returned cursor to fetch the adjacent pages.
	Search(ctx context.Context, txOrNil *Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error)
}
