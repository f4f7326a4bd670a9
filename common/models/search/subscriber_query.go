package search

import (
	"github.com/tidecast/tidecast/common/models"
)

// SubscriberSchema describes the searchable fields of a subscriber.
var SubscriberSchema = NewSchema(
	models.SubscriberFieldID,
	Field{Name: models.SubscriberFieldID, Kind: KindID, Sortable: true},
	Field{Name: models.SubscriberFieldCreatedAt, Kind: KindTime, Sortable: true},
	Field{Name: models.SubscriberFieldUpdatedAt, Kind: KindTime, Sortable: true},
	Field{Name: models.SubscriberFieldEnvironmentID, Kind: KindString},
	Field{Name: models.SubscriberFieldExternalID, Kind: KindString, Sortable: true, Text: true},
	Field{Name: models.SubscriberFieldEmail, Kind: KindString, Sortable: true, Text: true},
	Field{Name: models.SubscriberFieldFirstName, Kind: KindString, Sortable: true, Text: true},
	Field{Name: models.SubscriberFieldLastName, Kind: KindString, Sortable: true, Text: true},
	Field{Name: models.SubscriberFieldPhone, Kind: KindString},
	Field{Name: models.SubscriberFieldLocale, Kind: KindString},
)

// DefaultSubscriberSort lists the newest subscribers first.
var DefaultSubscriberSort = SortField{Field: models.SubscriberFieldCreatedAt, Direction: Descending}

// SubscriberQueryBuilder builds subscriber search queries with typed field helpers.
type SubscriberQueryBuilder struct {
	builder *QueryBuilder
}

func NewSubscriberQueryBuilder(existing ...Query) *SubscriberQueryBuilder {
	return &SubscriberQueryBuilder{builder: NewQueryBuilder(existing...)}
}

func (b *SubscriberQueryBuilder) Term(term Term) *SubscriberQueryBuilder {
	b.builder = b.builder.Term(term)
	return b
}

func (b *SubscriberQueryBuilder) InEmail() *SubscriberQueryBuilder {
	b.builder = b.builder.In(models.SubscriberFieldEmail)
	return b
}

func (b *SubscriberQueryBuilder) InName() *SubscriberQueryBuilder {
	b.builder = b.builder.In(models.SubscriberFieldFirstName).In(models.SubscriberFieldLastName)
	return b
}

func (b *SubscriberQueryBuilder) WhereExternalID(operator Operator, externalID string) *SubscriberQueryBuilder {
	b.builder = b.builder.Where(models.SubscriberFieldExternalID, operator, externalID)
	return b
}

func (b *SubscriberQueryBuilder) WhereLocale(operator Operator, locale string) *SubscriberQueryBuilder {
	b.builder = b.builder.Where(models.SubscriberFieldLocale, operator, locale)
	return b
}

func (b *SubscriberQueryBuilder) WhereCreatedAt(operator Operator, t models.Time) *SubscriberQueryBuilder {
	b.builder = b.builder.Where(models.SubscriberFieldCreatedAt, operator, t)
	return b
}

func (b *SubscriberQueryBuilder) SortCreatedAt(direction ...SortDirection) *SubscriberQueryBuilder {
	b.builder = b.builder.Sort(models.SubscriberFieldCreatedAt, direction...)
	return b
}

func (b *SubscriberQueryBuilder) SortID(direction ...SortDirection) *SubscriberQueryBuilder {
	b.builder = b.builder.Sort(models.SubscriberFieldID, direction...)
	return b
}

func (b *SubscriberQueryBuilder) SortEmail(direction ...SortDirection) *SubscriberQueryBuilder {
	b.builder = b.builder.Sort(models.SubscriberFieldEmail, direction...)
	return b
}

func (b *SubscriberQueryBuilder) Limit(limit int) *SubscriberQueryBuilder {
	b.builder = b.builder.Limit(limit)
	return b
}

func (b *SubscriberQueryBuilder) After(id models.SubscriberID) *SubscriberQueryBuilder {
	b.builder = b.builder.After(id.ResourceID)
	return b
}

func (b *SubscriberQueryBuilder) Before(id models.SubscriberID) *SubscriberQueryBuilder {
	b.builder = b.builder.Before(id.ResourceID)
	return b
}

func (b *SubscriberQueryBuilder) Compile() Query {
	return b.builder.Compile()
}
