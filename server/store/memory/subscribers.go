package memory

import (
	"context"
	"sync"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
)

// SubscriberStore keeps subscribers in process memory. It does not support transactions; every
// method fails with NotSupported if passed a non-nil transaction.
type SubscriberStore struct {
	// writeMu makes the uniqueness checks and the write that follows them atomic
	writeMu    sync.Mutex
	collection *Collection
	paginator  *paging.Paginator
	logger.Log
}

func NewSubscriberStore(pagingConfig paging.Config, logFactory logger.LogFactory) *SubscriberStore {
	collection := NewCollection()
	return &SubscriberStore{
		collection: collection,
		paginator:  paging.NewPaginator(collection, search.SubscriberSchema, pagingConfig, logFactory),
		Log:        logFactory("MemorySubscriberStore"),
	}
}

func (s *SubscriberStore) Create(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	if err := subscriber.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.collection.Get(subscriber.GetID()); err == nil {
		return gerror.NewErrAlreadyExists("Resource already exists").IDetail("id", subscriber.ID)
	}
	if _, err := s.findByExternalID(ctx, subscriber.EnvironmentID, subscriber.ExternalID); err == nil {
		return gerror.NewErrAlreadyExists("Resource already exists").EDetail("external_id", subscriber.ExternalID)
	}
	eTag, err := store.MakeETag(subscriber)
	if err != nil {
		return err
	}
	subscriber.ETag = eTag
	s.collection.Put(clone(subscriber))
	return nil
}

func (s *SubscriberStore) Read(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) (*models.Subscriber, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, err
	}
	entity, err := s.collection.Get(id.ResourceID)
	if err != nil {
		return nil, err
	}
	return clone(entity.(*models.Subscriber)), nil
}

func (s *SubscriberStore) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, environmentID string, externalID string) (*models.Subscriber, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, err
	}
	subscriber, err := s.findByExternalID(ctx, environmentID, externalID)
	if err != nil {
		return nil, err
	}
	return clone(subscriber), nil
}

func (s *SubscriberStore) Update(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	if err := subscriber.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	entity, err := s.collection.Get(subscriber.GetID())
	if err != nil {
		return err
	}
	existing := entity.(*models.Subscriber)
	if subscriber.ETag != models.ETagAny && subscriber.ETag != existing.ETag {
		return gerror.NewErrOptimisticLockFailed("ETag does not match")
	}
	if other, err := s.findByExternalID(ctx, subscriber.EnvironmentID, subscriber.ExternalID); err == nil && other.ID != subscriber.ID {
		return gerror.NewErrAlreadyExists("Resource already exists").EDetail("external_id", subscriber.ExternalID)
	}
	eTag, err := store.MakeETag(subscriber)
	if err != nil {
		return err
	}
	updated := clone(subscriber)
	// Creation metadata is never updated
	updated.CreatedAt = existing.CreatedAt
	updated.ETag = eTag
	s.collection.Put(updated)
	subscriber.ETag = eTag
	return nil
}

func (s *SubscriberStore) Delete(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	s.collection.Delete(id.ResourceID)
	return nil
}

func (s *SubscriberStore) Search(ctx context.Context, txOrNil *store.Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, nil, err
	}
	subscribers, cursor, err := store.SearchSubscribers(ctx, s.paginator, environmentID, query)
	if err != nil {
		return nil, nil, err
	}
	for i, subscriber := range subscribers {
		subscribers[i] = clone(subscriber)
	}
	return subscribers, cursor, nil
}

func (s *SubscriberStore) findByExternalID(ctx context.Context, environmentID string, externalID string) (*models.Subscriber, error) {
	entity, err := s.collection.FindOne(ctx, search.AllOf(
		store.EnvironmentScope(environmentID),
		search.NewFieldFilter(models.SubscriberFieldExternalID, search.Equal, externalID),
	))
	if err != nil {
		return nil, err
	}
	return entity.(*models.Subscriber), nil
}

func checkNoTx(txOrNil *store.Tx) error {
	if txOrNil != nil {
		return gerror.NewErrNotSupported("The in-memory store does not support transactions")
	}
	return nil
}

func clone(subscriber *models.Subscriber) *models.Subscriber {
	c := *subscriber
	return &c
}
