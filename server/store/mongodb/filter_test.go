package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

func TestFilterDocumentOperators(t *testing.T) {
	tests := []struct {
		operator search.Operator
		mongoOp  string
	}{
		{search.Equal, "$eq"},
		{search.NotEqual, "$ne"},
		{search.GreaterThan, "$gt"},
		{search.GreaterThanOrEqualTo, "$gte"},
		{search.LessThan, "$lt"},
		{search.LessThanOrEqualTo, "$lte"},
	}
	for _, test := range tests {
		doc, err := FilterDocument(search.NewFieldFilter(models.SubscriberFieldEmail, test.operator, "a@example.com"), subscriberKey)
		require.NoError(t, err)
		require.Equal(t, bson.M{"email": bson.M{test.mongoOp: "a@example.com"}}, doc)
	}
}

func TestFilterDocumentMapsIDAndTime(t *testing.T) {
	id := models.ResourceID("subscriber:0190a3f0-0000-7000-8000-000000000001")
	doc, err := FilterDocument(search.NewFieldFilter(models.SubscriberFieldID, search.GreaterThan, id), subscriberKey)
	require.NoError(t, err)
	require.Equal(t, bson.M{"_id": bson.M{"$gt": id.String()}}, doc)

	created := models.NewTime(time.Date(2024, 3, 1, 9, 0, 0, 1000, time.UTC))
	doc, err = FilterDocument(search.NewFieldFilter(models.SubscriberFieldCreatedAt, search.LessThan, created), subscriberKey)
	require.NoError(t, err)
	require.Equal(t, bson.M{"created_at": bson.M{"$lt": created.UnixMicro()}}, doc)
}

func TestFilterDocumentStartsWith(t *testing.T) {
	doc, err := FilterDocument(search.NewFieldFilter(models.SubscriberFieldLastName, search.StartsWith, "o'b.+"), subscriberKey)
	require.NoError(t, err)
	require.Equal(t, bson.M{"last_name": bson.M{"$regex": primitive.Regex{Pattern: `^o'b\.\+`, Options: "i"}}}, doc)
}

func TestFilterDocumentComposites(t *testing.T) {
	doc, err := FilterDocument(search.AllOf(
		search.NewFieldFilter(models.SubscriberFieldEnvironmentID, search.Equal, "env-a"),
		search.AnyOf(
			search.NewFieldFilter(models.SubscriberFieldEmail, search.Equal, "a@example.com"),
			search.NewFieldFilter(models.SubscriberFieldEmail, search.Equal, "b@example.com"),
		),
	), subscriberKey)
	require.NoError(t, err)
	require.Equal(t, bson.M{"$and": bson.A{
		bson.M{"environment_id": bson.M{"$eq": "env-a"}},
		bson.M{"$or": bson.A{
			bson.M{"email": bson.M{"$eq": "a@example.com"}},
			bson.M{"email": bson.M{"$eq": "b@example.com"}},
		}},
	}}, doc)

	doc, err = FilterDocument(nil, subscriberKey)
	require.NoError(t, err)
	require.Empty(t, doc)

	doc, err = FilterDocument(&search.Or{}, subscriberKey)
	require.NoError(t, err)
	require.Equal(t, matchNothing, doc)
}

func TestFilterDocumentUnknownField(t *testing.T) {
	_, err := FilterDocument(search.NewFieldFilter("colour", search.Equal, "blue"), subscriberKey)
	require.True(t, gerror.IsInvalidQueryParameter(err))
}

func TestSortDocument(t *testing.T) {
	sort, err := SortDocument([]search.SortField{
		{Field: models.SubscriberFieldCreatedAt, Direction: search.Descending},
		{Field: models.SubscriberFieldID, Direction: search.Descending},
	}, subscriberKey)
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, sort)
}

func TestSubscriberDocumentRoundTrip(t *testing.T) {
	subscriber := models.NewSubscriber(models.NewTime(time.Date(2024, 3, 1, 9, 0, 0, 123456000, time.UTC)),
		"env-a", "sub-1", "ann@example.com", "Ann", "Lee", "+15550100", "en_US")
	subscriber.ETag = `"abc"`
	raw, err := bson.Marshal(newSubscriberDocument(subscriber))
	require.NoError(t, err)
	entity, err := decodeSubscriber(raw)
	require.NoError(t, err)
	require.Equal(t, subscriber, entity)
}

func TestDocumentValue(t *testing.T) {
	at := models.NewTime(time.Date(2024, 3, 1, 9, 0, 0, 1000, time.UTC))
	require.Equal(t, at.UnixMicro(), DocumentValue(at))
	require.Equal(t, at.UnixMicro(), DocumentValue(&at))

	var missing *models.Time
	require.Nil(t, DocumentValue(missing))
	require.Equal(t, "en_GB", DocumentValue("en_GB"))
}
