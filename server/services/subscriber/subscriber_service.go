package subscriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/dto"
	"github.com/tidecast/tidecast/server/store"
)

type SubscriberService struct {
	subscriberStore store.SubscriberStore
	clk             clock.Clock
	logger.Log
}

func NewSubscriberService(
	subscriberStore store.SubscriberStore,
	clk clock.Clock,
	logFactory logger.LogFactory) *SubscriberService {

	return &SubscriberService{
		subscriberStore: subscriberStore,
		clk:             clk,
		Log:             logFactory("SubscriberService"),
	}
}

// Create a new subscriber in an environment.
// Returns gerror.ErrAlreadyExists if the environment already has a subscriber with the same external id.
func (s *SubscriberService) Create(ctx context.Context, txOrNil *store.Tx, create dto.CreateSubscriber) (*models.Subscriber, error) {
	now := models.NewTime(s.clk.Now())
	subscriber := models.NewSubscriber(
		now,
		create.EnvironmentID,
		create.ExternalID,
		strings.TrimSpace(create.Email),
		create.FirstName,
		create.LastName,
		create.Phone,
		create.Locale)
	err := subscriber.Validate()
	if err != nil {
		return nil, gerror.NewErrValidationFailed("Subscriber is invalid").Wrap(err)
	}
	err = s.subscriberStore.Create(ctx, txOrNil, subscriber)
	if err != nil {
		return nil, errors.Wrap(err, "error creating subscriber")
	}
	s.Infof("Created subscriber %q in environment %q", subscriber.ID, subscriber.EnvironmentID)
	return subscriber, nil
}

// Read an existing subscriber, looking it up by ID.
// Returns gerror.ErrNotFound if the subscriber does not exist.
func (s *SubscriberService) Read(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) (*models.Subscriber, error) {
	return s.subscriberStore.Read(ctx, txOrNil, id)
}

// ReadByExternalID reads an existing subscriber, looking it up by its external id within an environment.
// Returns gerror.ErrNotFound if the subscriber does not exist.
func (s *SubscriberService) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, environmentID string, externalID string) (*models.Subscriber, error) {
	return s.subscriberStore.ReadByExternalID(ctx, txOrNil, environmentID, externalID)
}

// Update the mutable properties of a subscriber with optimistic locking.
// Returns gerror.ErrOptimisticLockFailed if update.ETag is set and does not match the stored subscriber.
func (s *SubscriberService) Update(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID, update dto.UpdateSubscriber) (*models.Subscriber, error) {
	subscriber, err := s.subscriberStore.Read(ctx, txOrNil, id)
	if err != nil {
		return nil, fmt.Errorf("error reading subscriber: %w", err)
	}
	subscriber.ETag = models.GetETag(subscriber, update.ETag)
	if update.Email != nil {
		subscriber.Email = strings.TrimSpace(*update.Email)
	}
	if update.FirstName != nil {
		subscriber.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		subscriber.LastName = *update.LastName
	}
	if update.Phone != nil {
		subscriber.Phone = *update.Phone
	}
	if update.Locale != nil {
		subscriber.Locale = *update.Locale
	}
	subscriber.UpdatedAt = models.NewTime(s.clk.Now())
	err = s.subscriberStore.Update(ctx, txOrNil, subscriber)
	if err != nil {
		return nil, fmt.Errorf("error updating subscriber: %w", err)
	}
	return subscriber, nil
}

// Delete permanently and idempotently deletes a subscriber.
func (s *SubscriberService) Delete(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) error {
	err := s.subscriberStore.Delete(ctx, txOrNil, id)
	if err != nil {
		return fmt.Errorf("error deleting subscriber: %w", err)
	}
	s.Infof("Deleted subscriber %q", id)
	return nil
}

// ListSubscribers returns one page of the subscribers in an environment that match query,
// along with the cursor to fetch the adjacent pages.
func (s *SubscriberService) ListSubscribers(ctx context.Context, txOrNil *store.Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error) {
	if environmentID == "" {
		return nil, nil, gerror.NewErrInvalidArgument("Environment id must be set")
	}
	s.WithFields(logger.Fields{
		"environment_id": environmentID,
		"query":          query.String(),
	}).Debug("Listing subscribers")
	return s.subscriberStore.Search(ctx, txOrNil, environmentID, query)
}
