package models

import (
	"net/mail"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const SubscriberResourceKind ResourceKind = "subscriber"

// Field names of a subscriber, as used in search queries, sort options and cursors.
const (
	SubscriberFieldID            = "id"
	SubscriberFieldCreatedAt     = "created_at"
	SubscriberFieldUpdatedAt     = "updated_at"
	SubscriberFieldEnvironmentID = "environment_id"
	SubscriberFieldExternalID    = "external_id"
	SubscriberFieldEmail         = "email"
	SubscriberFieldFirstName     = "first_name"
	SubscriberFieldLastName      = "last_name"
	SubscriberFieldPhone         = "phone"
	SubscriberFieldLocale        = "locale"
)

type SubscriberID struct {
	ResourceID
}

func NewSubscriberID() SubscriberID {
	return SubscriberID{ResourceID: NewResourceID(SubscriberResourceKind)}
}

func SubscriberIDFromResourceID(id ResourceID) SubscriberID {
	return SubscriberID{ResourceID: id}
}

type SubscriberMetadata struct {
	ID        SubscriberID `json:"id" goqu:"skipupdate" db:"subscriber_id"`
	CreatedAt Time         `json:"created_at" goqu:"skipupdate" db:"subscriber_created_at"`
	UpdatedAt Time         `json:"updated_at" db:"subscriber_updated_at"`
	ETag      ETag         `json:"etag" db:"subscriber_etag" hash:"ignore"`
}

// Subscriber is a recipient of notifications within an environment.
type Subscriber struct {
	SubscriberMetadata
	// EnvironmentID scopes the subscriber; every query against subscribers is made within one environment.
	EnvironmentID string `json:"environment_id" db:"subscriber_environment_id"`
	// ExternalID is the caller's own identifier for the subscriber, unique within the environment.
	ExternalID string `json:"external_id" db:"subscriber_external_id"`
	Email      string `json:"email" db:"subscriber_email"`
	FirstName  string `json:"first_name" db:"subscriber_first_name"`
	LastName   string `json:"last_name" db:"subscriber_last_name"`
	Phone      string `json:"phone" db:"subscriber_phone"`
	Locale     string `json:"locale" db:"subscriber_locale"`
}

func NewSubscriber(
	now Time,
	environmentID string,
	externalID string,
	email string,
	firstName string,
	lastName string,
	phone string,
	locale string,
) *Subscriber {
	return &Subscriber{
		SubscriberMetadata: SubscriberMetadata{
			ID:        NewSubscriberID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		EnvironmentID: environmentID,
		ExternalID:    externalID,
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         phone,
		Locale:        locale,
	}
}

func (m *Subscriber) GetKind() ResourceKind {
	return SubscriberResourceKind
}

func (m *Subscriber) GetCreatedAt() Time {
	return m.CreatedAt
}

func (m *Subscriber) GetID() ResourceID {
	return m.ID.ResourceID
}

func (m *Subscriber) GetUpdatedAt() Time {
	return m.UpdatedAt
}

func (m *Subscriber) SetUpdatedAt(t Time) {
	m.UpdatedAt = t
}

func (m *Subscriber) GetETag() ETag {
	return m.ETag
}

func (m *Subscriber) SetETag(eTag ETag) {
	m.ETag = eTag
}

func (m *Subscriber) GetFieldValue(field string) (interface{}, error) {
	switch field {
	case SubscriberFieldID:
		return m.ID.ResourceID, nil
	case SubscriberFieldCreatedAt:
		return m.CreatedAt, nil
	case SubscriberFieldUpdatedAt:
		return m.UpdatedAt, nil
	case SubscriberFieldEnvironmentID:
		return m.EnvironmentID, nil
	case SubscriberFieldExternalID:
		return m.ExternalID, nil
	case SubscriberFieldEmail:
		return m.Email, nil
	case SubscriberFieldFirstName:
		return m.FirstName, nil
	case SubscriberFieldLastName:
		return m.LastName, nil
	case SubscriberFieldPhone:
		return m.Phone, nil
	case SubscriberFieldLocale:
		return m.Locale, nil
	default:
		return nil, errors.Errorf("error subscriber has no field %q", field)
	}
}

func (m *Subscriber) Validate() error {
	var result *multierror.Error
	if !m.ID.Valid() {
		result = multierror.Append(result, errors.New("error id must be set"))
	}
	if m.CreatedAt.IsZero() {
		result = multierror.Append(result, errors.New("error created at must be set"))
	}
	if m.UpdatedAt.IsZero() {
		result = multierror.Append(result, errors.New("error updated at must be set"))
	}
	if m.EnvironmentID == "" {
		result = multierror.Append(result, errors.New("error environment id must be set"))
	}
	if m.ExternalID == "" {
		result = multierror.Append(result, errors.New("error external id must be set"))
	}
	if strings.TrimSpace(m.ExternalID) != m.ExternalID {
		result = multierror.Append(result, errors.New("error external id must not have leading or trailing whitespace"))
	}
	if m.Email != "" {
		if _, err := mail.ParseAddress(m.Email); err != nil {
			result = multierror.Append(result, errors.Errorf("error email %q is invalid", m.Email))
		}
	}
	return result.ErrorOrNil()
}
