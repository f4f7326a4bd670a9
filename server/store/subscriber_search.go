package store

import (
	"context"
	"fmt"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/paging"
)

// EnvironmentScope restricts subscriber queries to a single environment.
func EnvironmentScope(environmentID string) search.Filter {
	return search.NewFieldFilter(models.SubscriberFieldEnvironmentID, search.Equal, environmentID)
}

// SearchSubscribers reads the page of subscribers in an environment described by query. It is shared
// by every SubscriberStore backend; the backend supplies the paginator over its own storage.
func SearchSubscribers(
	ctx context.Context,
	paginator *paging.Paginator,
	environmentID string,
	query search.Query,
) ([]*models.Subscriber, *models.Cursor, error) {
	filter, err := query.Filter(search.SubscriberSchema)
	if err != nil {
		return nil, nil, err
	}
	sort := query.SortOrDefault(search.DefaultSubscriberSort)
	limit := query.Limit
	if limit == 0 {
		limit = models.DefaultPaginationLimit
	}
	result, err := paginator.Paginate(ctx, paging.Request{
		Scope:         EnvironmentScope(environmentID),
		Filter:        filter,
		Limit:         limit,
		SortBy:        sort.Field,
		SortDirection: sort.Direction,
		After:         query.After,
		Before:        query.Before,
	})
	if err != nil {
		return nil, nil, err
	}
	subscribers := make([]*models.Subscriber, 0, len(result.Data))
	for _, entity := range result.Data {
		subscriber, ok := entity.(*models.Subscriber)
		if !ok {
			return nil, nil, fmt.Errorf("error expected *models.Subscriber, found %T", entity)
		}
		subscribers = append(subscribers, subscriber)
	}
	return subscribers, result.Cursor(), nil
}
