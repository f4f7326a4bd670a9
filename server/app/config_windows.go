//go:build windows
// +build windows

package app

const (
	defaultSQLiteConnectionString  = "file:C:\\ProgramData\\tidecast\\db\\sqlite.db?cache=shared"
	defaultLocalBlobStoreDirectory = "C:\\ProgramData\\tidecast\\exports"
)
