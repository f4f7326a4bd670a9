package subscribers

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/cli"
)

func setListFlags(t *testing.T, query string, sort string, direction string, after string, before string) {
	saved := listCmdConfig
	t.Cleanup(func() { listCmdConfig = saved })
	listCmdConfig.limit = 10
	listCmdConfig.query = query
	listCmdConfig.sort = sort
	listCmdConfig.direction = direction
	listCmdConfig.after = after
	listCmdConfig.before = before
}

func TestMakeListQuery(t *testing.T) {
	setListFlags(t, "ada in:email locale:en_GB", "", "", "subscriber:abc", "")
	query, err := makeListQuery()
	require.NoError(t, err)
	require.Equal(t, 10, query.Limit)
	require.NotNil(t, query.Term)
	require.Equal(t, "ada", query.Term.String())
	require.Equal(t, []search.FieldName{"email"}, query.Fields)
	require.Len(t, query.Filters, 1)
	require.Nil(t, query.Sort, "No sort flags and no sort in the query should leave the default sort")
	require.Equal(t, models.ResourceID("subscriber:abc"), *query.After)
	require.Nil(t, query.Before)
}

func TestMakeListQuerySortFlags(t *testing.T) {
	setListFlags(t, "sort:email-asc", "", "desc", "", "")
	query, err := makeListQuery()
	require.NoError(t, err)
	require.Equal(t, search.SortField{Field: "email", Direction: search.Descending}, *query.Sort)

	setListFlags(t, "", "last_name", "", "", "")
	query, err = makeListQuery()
	require.NoError(t, err)
	require.Equal(t, search.SortField{Field: "last_name", Direction: search.Descending}, *query.Sort)

	setListFlags(t, "", "", "sideways", "", "")
	_, err = makeListQuery()
	require.True(t, gerror.IsInvalidArgument(err))
}

func TestMakeListQueryRejectsBothCursors(t *testing.T) {
	setListFlags(t, "", "", "", "subscriber:a", "subscriber:b")
	_, err := makeListQuery()
	require.True(t, gerror.IsInvalidArgument(err))
}

func TestListOutputFormats(t *testing.T) {
	now := models.NewTime(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	subscriber := models.NewSubscriber(now, "env-a", "ada", "ada@example.com", "Ada", "Lovelace", "", "en_GB")
	next := subscriber.GetID()
	out := makeListOutput([]*models.Subscriber{subscriber}, &models.Cursor{Next: &next})

	buf := &bytes.Buffer{}
	require.NoError(t, cli.WriteStructured(buf, cli.OutputJSON, out))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, next.String(), decoded["next"])
	require.Nil(t, decoded["previous"])
	listed := decoded["subscribers"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "ada", listed["external_id"])
	require.Equal(t, "2024-03-01T09:00:00Z", listed["created_at"])
	require.NotContains(t, listed, "phone", "Empty optional fields should be omitted")

	buf.Reset()
	require.NoError(t, cli.WriteStructured(buf, cli.OutputYAML, out))
	var decodedYAML listOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decodedYAML))
	require.Equal(t, *out, decodedYAML)

	require.Error(t, cli.WriteStructured(buf, "xml", out))
}

func TestMakeExportKey(t *testing.T) {
	saved := exportCmdConfig
	t.Cleanup(func() { exportCmdConfig = saved })

	exportCmdConfig.key = ""
	now := time.Date(2024, 3, 1, 9, 30, 15, 0, time.FixedZone("CET", 3600))
	require.Equal(t, "exports/env-a/20240301T083015Z.ndjson", makeExportKey("env-a", now))

	exportCmdConfig.key = "backups/latest.ndjson"
	require.Equal(t, "backups/latest.ndjson", makeExportKey("env-a", now))
}
