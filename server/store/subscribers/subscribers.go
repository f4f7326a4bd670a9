package subscribers

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
)

func init() {
	_ = models.MutableResource(&models.Subscriber{})
	_ = paging.Entity(&models.Subscriber{})
	store.MustDBModel(&models.Subscriber{})
}

type SubscriberStore struct {
	db           *store.DB
	table        *store.ResourceTable
	pagingConfig paging.Config
	logFactory   logger.LogFactory
	paginator    *paging.Paginator
}

func NewStore(db *store.DB, pagingConfig paging.Config, logFactory logger.LogFactory) *SubscriberStore {
	table := store.NewResourceTable(db, logFactory, &models.Subscriber{}, search.SubscriberSchema)
	return &SubscriberStore{
		db:           db,
		table:        table,
		pagingConfig: pagingConfig,
		logFactory:   logFactory,
		paginator:    paging.NewPaginator(table.PagingStore(nil), search.SubscriberSchema, pagingConfig, logFactory),
	}
}

// Create a new subscriber.
// Returns gerror.ErrAlreadyExists if a subscriber with the same external id already exists in the environment.
func (d *SubscriberStore) Create(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	return d.table.Create(ctx, txOrNil, subscriber)
}

// Read an existing subscriber, looking it up by ID.
// Returns gerror.ErrNotFound if the subscriber does not exist.
func (d *SubscriberStore) Read(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) (*models.Subscriber, error) {
	subscriber := &models.Subscriber{}
	return subscriber, d.table.ReadByID(ctx, txOrNil, id.ResourceID, subscriber)
}

// ReadByExternalID reads an existing subscriber, looking it up by its external id within an environment.
// Returns gerror.ErrNotFound if the subscriber does not exist.
func (d *SubscriberStore) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, environmentID string, externalID string) (*models.Subscriber, error) {
	subscriber := &models.Subscriber{}
	return subscriber, d.table.ReadWhere(ctx, txOrNil, subscriber,
		goqu.Ex{
			"subscriber_environment_id": environmentID,
			"subscriber_external_id":    externalID,
		})
}

// Update an existing subscriber with optimistic locking. Overrides all previous values using the supplied model.
// Returns gerror.ErrOptimisticLockFailed if there is an optimistic lock mismatch.
func (d *SubscriberStore) Update(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	return d.table.UpdateByID(ctx, txOrNil, subscriber)
}

// Delete permanently and idempotently deletes a subscriber.
func (d *SubscriberStore) Delete(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) error {
	return d.table.DeleteByID(ctx, txOrNil, id.ResourceID)
}

// Search returns one page of the subscribers in an environment that match query.
// Use the returned cursor to fetch the adjacent pages.
func (d *SubscriberStore) Search(ctx context.Context, txOrNil *store.Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error) {
	paginator := d.paginator
	if txOrNil != nil {
		paginator = paging.NewPaginator(d.table.PagingStore(txOrNil), search.SubscriberSchema, d.pagingConfig, d.logFactory)
	}
	return store.SearchSubscribers(ctx, paginator, environmentID, query)
}
