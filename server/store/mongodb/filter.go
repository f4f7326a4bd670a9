package mongodb

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
)

const idKey = "_id"

// FieldMapper maps a search field to the document key that stores it.
type FieldMapper func(field search.FieldName) (string, error)

// matchNothing is a query document no document satisfies.
var matchNothing = bson.M{"$nor": bson.A{bson.M{}}}

// FilterDocument converts a search filter into a MongoDB query document. A nil filter, or an And
// with no children, matches every document; an Or with no children matches none.
func FilterDocument(filter search.Filter, key FieldMapper) (bson.M, error) {
	switch f := filter.(type) {
	case nil:
		return bson.M{}, nil
	case *search.FieldFilter:
		k, err := key(f.Field)
		if err != nil {
			return nil, err
		}
		condition, err := fieldCondition(f.Operator, f.Value)
		if err != nil {
			return nil, err
		}
		return bson.M{k: condition}, nil
	case *search.And:
		if len(f.Filters) == 0 {
			return bson.M{}, nil
		}
		children, err := childDocuments(f.Filters, key)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": children}, nil
	case *search.Or:
		if len(f.Filters) == 0 {
			return matchNothing, nil
		}
		children, err := childDocuments(f.Filters, key)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": children}, nil
	default:
		return nil, fmt.Errorf("error unsupported filter type %T", filter)
	}
}

func childDocuments(filters []search.Filter, key FieldMapper) (bson.A, error) {
	children := make(bson.A, 0, len(filters))
	for _, child := range filters {
		doc, err := FilterDocument(child, key)
		if err != nil {
			return nil, err
		}
		children = append(children, doc)
	}
	return children, nil
}

func fieldCondition(operator search.Operator, value interface{}) (interface{}, error) {
	v := DocumentValue(value)
	switch operator {
	case search.Equal:
		return bson.M{"$eq": v}, nil
	case search.NotEqual:
		return bson.M{"$ne": v}, nil
	case search.GreaterThan:
		return bson.M{"$gt": v}, nil
	case search.GreaterThanOrEqualTo:
		return bson.M{"$gte": v}, nil
	case search.LessThan:
		return bson.M{"$lt": v}, nil
	case search.LessThanOrEqualTo:
		return bson.M{"$lte": v}, nil
	case search.StartsWith:
		prefix, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("error operator %s requires a string value, found %T", operator, value)
		}
		return bson.M{"$regex": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix), Options: "i"}}, nil
	default:
		return nil, fmt.Errorf("error unsupported operator: %s", operator)
	}
}

// DocumentValue converts a field value to the representation stored in documents. Times are
// stored as microseconds since the epoch, which keeps the full precision of models.Time.
func DocumentValue(value interface{}) interface{} {
	switch v := value.(type) {
	case models.Time:
		return v.UnixMicro()
	case *models.Time:
		if v == nil {
			return nil
		}
		return v.UnixMicro()
	case models.ResourceID:
		return v.String()
	case models.SubscriberID:
		return v.ResourceID.String()
	default:
		return value
	}
}

// SortDocument converts a sort order into a MongoDB sort document.
func SortDocument(orderBy []search.SortField, key FieldMapper) (bson.D, error) {
	sort := make(bson.D, 0, len(orderBy))
	for _, sortField := range orderBy {
		k, err := key(sortField.Field)
		if err != nil {
			return nil, err
		}
		direction := 1
		if sortField.Direction == search.Descending {
			direction = -1
		}
		sort = append(sort, bson.E{Key: k, Value: direction})
	}
	return sort, nil
}
