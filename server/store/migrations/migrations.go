package migrations

// DialectTemplate is used as the templating control for differing SQL syntax between our supported databases
type DialectTemplate struct {
	Binary            string
	IntegerPrimaryKey string
	// TextPatternOps is the operator class that lets an index on a text expression serve LIKE 'prefix%' predicates.
	TextPatternOps string
}

// MigrationSet provides a set of migrations that can be applied to a database.
type MigrationSet []MigrationData

// MigrationData provides the data for a single migration, including Up and Down SQL.
// Templated values are supported and will be substituted for database-specific values
// before the migrations are applied.
type MigrationData struct {
	SequenceNumber int64
	Name           string
	UpSQL          string
	DownSQL        string
}

// ServerMigrations is the set of migrations to set up the database for the tidecast server.
var ServerMigrations = MigrationSet{
	{
		SequenceNumber: 1,
		Name:           "create_subscribers",
		UpSQL: `CREATE TABLE IF NOT EXISTS subscribers
				(
					subscriber_id text NOT NULL PRIMARY KEY,
					subscriber_created_at timestamp without time zone NOT NULL,
					subscriber_updated_at timestamp without time zone NOT NULL,
					subscriber_etag text NOT NULL,
					subscriber_environment_id text NOT NULL,
					subscriber_external_id text NOT NULL,
					subscriber_email text NOT NULL,
					subscriber_first_name text NOT NULL,
					subscriber_last_name text NOT NULL,
					subscriber_phone text NOT NULL,
					subscriber_locale text NOT NULL
				);
				CREATE UNIQUE INDEX IF NOT EXISTS subscribers_environment_external_id_unique_index ON subscribers(
					subscriber_environment_id,
					subscriber_external_id);
				CREATE UNIQUE INDEX IF NOT EXISTS subscribers_environment_created_at_id_unique_index ON subscribers(
					subscriber_environment_id,
					subscriber_created_at DESC,
					subscriber_id DESC);`,
		DownSQL: `DROP INDEX subscribers_environment_created_at_id_unique_index;
				  DROP INDEX subscribers_environment_external_id_unique_index;
				  DROP TABLE subscribers;`,
	},
	{
		SequenceNumber: 2,
		Name:           "index_subscriber_sort_fields",
		UpSQL: `CREATE INDEX IF NOT EXISTS subscribers_environment_email_id_index ON subscribers(
					subscriber_environment_id,
					subscriber_email,
					subscriber_id);
				CREATE INDEX IF NOT EXISTS subscribers_environment_last_name_id_index ON subscribers(
					subscriber_environment_id,
					subscriber_last_name,
					subscriber_id);`,
		DownSQL: `DROP INDEX subscribers_environment_last_name_id_index;
				  DROP INDEX subscribers_environment_email_id_index;`,
	},
	{
		SequenceNumber: 3,
		Name:           "index_subscriber_text_prefixes",
		UpSQL: `CREATE INDEX IF NOT EXISTS subscribers_environment_lower_email_index ON subscribers(
					subscriber_environment_id,
					LOWER(subscriber_email) {{ .TextPatternOps }});
				CREATE INDEX IF NOT EXISTS subscribers_environment_lower_external_id_index ON subscribers(
					subscriber_environment_id,
					LOWER(subscriber_external_id) {{ .TextPatternOps }});`,
		DownSQL: `DROP INDEX subscribers_environment_lower_external_id_index;
				  DROP INDEX subscribers_environment_lower_email_index;`,
	},
}
