package server_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/server/dto"
)

// CreateSubscriber creates a new subscriber for use during a test. Any errors will cause failure of the test.
// If email is left blank then an address derived from externalID will be used.
func CreateSubscriber(t *testing.T, ctx context.Context, app *TestServer, environmentID string, externalID string, email string) *models.Subscriber {
	if email == "" {
		email = fmt.Sprintf("%s@example.com", externalID)
	}
	subscriber, err := app.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{
		EnvironmentID: environmentID,
		ExternalID:    externalID,
		Email:         email,
		FirstName:     "Test",
		LastName:      externalID,
		Locale:        "en_GB",
	})
	require.NoError(t, err)
	return subscriber
}

// CreateSubscribers creates n subscribers in an environment, advancing the test clock by a second
// before each one so that every subscriber has a distinct creation time.
// External ids are "<prefix>-<i>", zero padded so that they sort in creation order.
func CreateSubscribers(t *testing.T, ctx context.Context, app *TestServer, environmentID string, prefix string, n int) []*models.Subscriber {
	var created []*models.Subscriber
	for i := 0; i < n; i++ {
		app.Clock.Add(time.Second)
		created = append(created, CreateSubscriber(t, ctx, app, environmentID, fmt.Sprintf("%s-%03d", prefix, i), ""))
	}
	return created
}
