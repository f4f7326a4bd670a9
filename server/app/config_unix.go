//go:build !windows
// +build !windows

package app

const (
	defaultSQLiteConnectionString  = "file:/var/lib/tidecast/db/sqlite.db?cache=shared"
	defaultLocalBlobStoreDirectory = "/var/lib/tidecast/exports"
)
