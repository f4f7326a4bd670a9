package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
)

// Decoder decodes one document into an entity.
type Decoder func(raw bson.Raw) (paging.Entity, error)

// Source answers the paginator's queries from a MongoDB collection.
type Source struct {
	collection *mongo.Collection
	key        FieldMapper
	decode     Decoder
	logger.Log
}

func NewSource(collection *mongo.Collection, key FieldMapper, decode Decoder, logFactory logger.LogFactory) *Source {
	return &Source{
		collection: collection,
		key:        key,
		decode:     decode,
		Log:        logFactory(collection.Name() + "_collection"),
	}
}

func (s *Source) FindOne(ctx context.Context, filter search.Filter) (paging.Entity, error) {
	doc, err := FilterDocument(filter, s.key)
	if err != nil {
		return nil, err
	}
	s.WithField("filter", doc).Trace("find one")
	opts := options.FindOne().SetSort(bson.D{{Key: idKey, Value: 1}})
	raw, err := s.collection.FindOne(ctx, doc, opts).Raw()
	if err != nil {
		return nil, MakeStandardMongoError(err)
	}
	return s.decode(raw)
}

func (s *Source) FindRange(ctx context.Context, filter search.Filter, orderBy []search.SortField, limit int) ([]paging.Entity, error) {
	if limit == 0 {
		return []paging.Entity{}, nil
	}
	doc, err := FilterDocument(filter, s.key)
	if err != nil {
		return nil, err
	}
	sort, err := SortDocument(orderBy, s.key)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	s.WithFields(logger.Fields{"filter": doc, "sort": sort, "limit": limit}).Trace("find range")
	cursor, err := s.collection.Find(ctx, doc, opts)
	if err != nil {
		return nil, MakeStandardMongoError(err)
	}
	defer cursor.Close(ctx)
	var entities []paging.Entity
	for cursor.Next(ctx) {
		entity, err := s.decode(cursor.Current)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := cursor.Err(); err != nil {
		return nil, MakeStandardMongoError(err)
	}
	return entities, nil
}

// MakeStandardMongoError converts missing document and duplicate key errors into gerror errors.
// Other errors are returned unchanged.
func MakeStandardMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return gerror.NewErrNotFound("Not Found").Wrap(err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return gerror.NewErrAlreadyExists("Resource already exists").Wrap(err)
	}
	return err
}
