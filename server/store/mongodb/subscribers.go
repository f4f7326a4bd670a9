package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/store"
)

const subscribersCollection = "subscribers"

// subscriberDocument is the stored form of a models.Subscriber.
type subscriberDocument struct {
	ID            string `bson:"_id"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	ETag          string `bson:"etag"`
	EnvironmentID string `bson:"environment_id"`
	ExternalID    string `bson:"external_id"`
	Email         string `bson:"email"`
	FirstName     string `bson:"first_name"`
	LastName      string `bson:"last_name"`
	Phone         string `bson:"phone"`
	Locale        string `bson:"locale"`
}

func newSubscriberDocument(subscriber *models.Subscriber) *subscriberDocument {
	return &subscriberDocument{
		ID:            subscriber.ID.String(),
		CreatedAt:     subscriber.CreatedAt.UnixMicro(),
		UpdatedAt:     subscriber.UpdatedAt.UnixMicro(),
		ETag:          subscriber.ETag.String(),
		EnvironmentID: subscriber.EnvironmentID,
		ExternalID:    subscriber.ExternalID,
		Email:         subscriber.Email,
		FirstName:     subscriber.FirstName,
		LastName:      subscriber.LastName,
		Phone:         subscriber.Phone,
		Locale:        subscriber.Locale,
	}
}

func (d *subscriberDocument) toModel() *models.Subscriber {
	return &models.Subscriber{
		SubscriberMetadata: models.SubscriberMetadata{
			ID:        models.SubscriberIDFromResourceID(models.ResourceID(d.ID)),
			CreatedAt: models.NewTime(time.UnixMicro(d.CreatedAt)),
			UpdatedAt: models.NewTime(time.UnixMicro(d.UpdatedAt)),
			ETag:      models.ETag(d.ETag),
		},
		EnvironmentID: d.EnvironmentID,
		ExternalID:    d.ExternalID,
		Email:         d.Email,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Phone:         d.Phone,
		Locale:        d.Locale,
	}
}

// subscriberKey maps subscriber search fields to document keys.
func subscriberKey(field search.FieldName) (string, error) {
	if _, ok := search.SubscriberSchema.Lookup(field); !ok {
		return "", gerror.NewErrInvalidQueryParameter("Unknown field: " + field.String())
	}
	if field == search.SubscriberSchema.IDField() {
		return idKey, nil
	}
	return field.String(), nil
}

func decodeSubscriber(raw bson.Raw) (paging.Entity, error) {
	doc := &subscriberDocument{}
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// SubscriberStore keeps subscribers in a MongoDB collection.
type SubscriberStore struct {
	collection *mongo.Collection
	paginator  *paging.Paginator
	logger.Log
}

func NewSubscriberStore(db *mongo.Database, pagingConfig paging.Config, logFactory logger.LogFactory) *SubscriberStore {
	collection := db.Collection(subscribersCollection)
	source := NewSource(collection, subscriberKey, decodeSubscriber, logFactory)
	return &SubscriberStore{
		collection: collection,
		paginator:  paging.NewPaginator(source, search.SubscriberSchema, pagingConfig, logFactory),
		Log:        logFactory("MongoSubscriberStore"),
	}
}

// EnsureIndexes creates the unique external id index and the indexes backing the default sort order.
func (s *SubscriberStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "environment_id", Value: 1}, {Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "environment_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: idKey, Value: -1}},
		},
		{
			Keys: bson.D{{Key: "environment_id", Value: 1}, {Key: "email", Value: 1}, {Key: idKey, Value: 1}},
		},
	})
	if err != nil {
		return errors.Wrap(err, "error creating subscriber indexes")
	}
	return nil
}

func (s *SubscriberStore) Create(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	if err := subscriber.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	eTag, err := store.MakeETag(subscriber)
	if err != nil {
		return err
	}
	doc := newSubscriberDocument(subscriber)
	doc.ETag = eTag.String()
	_, err = s.collection.InsertOne(ctx, doc)
	if err != nil {
		return MakeStandardMongoError(err)
	}
	subscriber.ETag = eTag
	return nil
}

func (s *SubscriberStore) Read(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) (*models.Subscriber, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{idKey: id.String()})
}

func (s *SubscriberStore) ReadByExternalID(ctx context.Context, txOrNil *store.Tx, environmentID string, externalID string) (*models.Subscriber, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"environment_id": environmentID, "external_id": externalID})
}

func (s *SubscriberStore) findOne(ctx context.Context, filter bson.M) (*models.Subscriber, error) {
	doc := &subscriberDocument{}
	err := s.collection.FindOne(ctx, filter).Decode(doc)
	if err != nil {
		return nil, MakeStandardMongoError(err)
	}
	return doc.toModel(), nil
}

// Update replaces a subscriber, applying optimistic locking on its etag.
// Returns gerror.ErrOptimisticLockFailed if the stored etag differs.
func (s *SubscriberStore) Update(ctx context.Context, txOrNil *store.Tx, subscriber *models.Subscriber) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	if err := subscriber.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Resource is invalid").Wrap(err)
	}
	eTag, err := store.MakeETag(subscriber)
	if err != nil {
		return err
	}
	filter := bson.M{idKey: subscriber.ID.String()}
	if subscriber.ETag != models.ETagAny {
		filter["etag"] = subscriber.ETag.String()
	}
	doc := newSubscriberDocument(subscriber)
	doc.ETag = eTag.String()
	update := bson.M{"$set": bson.M{
		"updated_at":     doc.UpdatedAt,
		"etag":           doc.ETag,
		"environment_id": doc.EnvironmentID,
		"external_id":    doc.ExternalID,
		"email":          doc.Email,
		"first_name":     doc.FirstName,
		"last_name":      doc.LastName,
		"phone":          doc.Phone,
		"locale":         doc.Locale,
	}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return MakeStandardMongoError(err)
	}
	if result.MatchedCount == 0 {
		if _, err := s.findOne(ctx, bson.M{idKey: subscriber.ID.String()}); err != nil {
			return err
		}
		return gerror.NewErrOptimisticLockFailed("ETag does not match")
	}
	subscriber.ETag = eTag
	return nil
}

// Delete permanently and idempotently deletes a subscriber.
func (s *SubscriberStore) Delete(ctx context.Context, txOrNil *store.Tx, id models.SubscriberID) error {
	if err := checkNoTx(txOrNil); err != nil {
		return err
	}
	_, err := s.collection.DeleteOne(ctx, bson.M{idKey: id.String()})
	if err != nil {
		return MakeStandardMongoError(err)
	}
	return nil
}

func (s *SubscriberStore) Search(ctx context.Context, txOrNil *store.Tx, environmentID string, query search.Query) ([]*models.Subscriber, *models.Cursor, error) {
	if err := checkNoTx(txOrNil); err != nil {
		return nil, nil, err
	}
	return store.SearchSubscribers(ctx, s.paginator, environmentID, query)
}

func checkNoTx(txOrNil *store.Tx) error {
	if txOrNil != nil {
		return gerror.NewErrNotSupported("MongoDB stores do not support SQL transactions")
	}
	return nil
}
