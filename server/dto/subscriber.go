package dto

import "github.com/tidecast/tidecast/common/models"

type CreateSubscriber struct {
	EnvironmentID string
	ExternalID    string
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	Locale        string
}

// UpdateSubscriber changes the mutable properties of a subscriber. Nil fields are left unchanged.
type UpdateSubscriber struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Locale    *string
	ETag      models.ETag
}
