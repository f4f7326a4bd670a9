package server_test

import (
	"testing"

	"github.com/tidecast/tidecast/server/app"
	"github.com/tidecast/tidecast/server/paging"
	"github.com/tidecast/tidecast/server/services/blob"
)

// TestConfig returns a server config for tests. The database itself is chosen by store_test.Connect,
// based on environment variables. Exports go to a local blob store in a temporary directory.
func TestConfig(t *testing.T) *app.ServerConfig {
	return &app.ServerConfig{
		BackendConfig: app.BackendConfig{
			BackendType: app.SQLBackendType.String(),
		},
		BlobStoreConfig: app.BlobStoreConfig{
			BlobStoreType:           blob.LocalBlobStoreType,
			LocalBlobStoreDirectory: blob.LocalBlobStoreDirectory(t.TempDir()),
		},
		PagingConfig: paging.Config{MaxLimit: 100},
		LogLevels:    "",
	}
}
