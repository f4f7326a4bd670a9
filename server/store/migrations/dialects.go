package migrations

import (
	"fmt"

	"github.com/tidecast/tidecast/server/store"
)

var dialectTemplates = map[store.DBDriver]DialectTemplate{
	store.Postgres: {
		Binary:            "BYTEA",
		IntegerPrimaryKey: "SERIAL PRIMARY KEY",
		TextPatternOps:    "text_pattern_ops",
	},
	store.Sqlite: {
		Binary:            "BLOB",
		IntegerPrimaryKey: "integer NOT NULL PRIMARY KEY AUTOINCREMENT",
		// sqlite has no operator classes; a plain expression index serves LIKE when case_sensitive_like is off
		TextPatternOps: "",
	},
}

// GetDialectForDriver returns the values substituted into migration templates for driver.
func GetDialectForDriver(driver store.DBDriver) (*DialectTemplate, error) {
	template, ok := dialectTemplates[driver]
	if !ok {
		return nil, fmt.Errorf("error unsupported database driver: %s", driver)
	}
	return &template, nil
}
