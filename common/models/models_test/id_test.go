package models_test

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tidecast/tidecast/common/models"
)

func TestSubscriberIDJSON(t *testing.T) {
	id := models.NewSubscriberID()
	data, err := json.Marshal(id)
	require.Nil(t, err)
	id2 := models.SubscriberID{}
	err = json.Unmarshal(data, &id2)
	require.Nil(t, err)
	require.Equal(t, id, id2)
	require.Equal(t, models.SubscriberResourceKind, id2.Kind())
}

func TestResourceIDsSortInCreationOrder(t *testing.T) {
	var ids []string
	for i := 0; i < 50; i++ {
		ids = append(ids, models.NewResourceID(models.SubscriberResourceKind).String())
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestParseResourceID(t *testing.T) {
	id := models.NewSubscriberID()
	parsed, err := models.ParseResourceID(id.String())
	require.NoError(t, err)
	require.Equal(t, id.ResourceID, parsed)

	for _, bad := range []string{"", "subscriber", ":0190b0a4-8c5e-7000-8000-000000000000", "subscriber:not-a-uuid"} {
		_, err = models.ParseResourceID(bad)
		require.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestTimeStorageRoundTrip(t *testing.T) {
	original := models.NewTime(time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.FixedZone("CET", 3600)))
	require.Equal(t, 123457000, original.Nanosecond(), "times should be rounded to microseconds")

	value, err := original.Value()
	require.NoError(t, err)
	var scanned models.Time
	require.NoError(t, scanned.Scan(value))
	require.Equal(t, original, scanned)

	require.NoError(t, scanned.Scan(original.Time))
	require.Equal(t, original, scanned)
}
