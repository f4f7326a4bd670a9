package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tidecast/tidecast/common/logger"
	"github.com/tidecast/tidecast/common/util"
	"github.com/tidecast/tidecast/common/version"
	"github.com/tidecast/tidecast/server/app"
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/cli"
	"github.com/tidecast/tidecast/server/services/blob"
	"github.com/tidecast/tidecast/server/store"
)

const (
	ConfigDirName  = ".tidecast"
	ConfigFileName = "tools"
	EnvPrefix      = "TIDECAST"
)

// Keys of the settings that may come from flags, the config file or TIDECAST_* environment variables.
const (
	backendKey                  = "backend"
	databaseDriverKey           = "database-driver"
	databaseConnectionStringKey = "database-connection-string"
	databaseMaxIdleKey          = "database-max-idle-connections"
	databaseMaxOpenKey          = "database-max-open-connections"
	mongoDBURIKey               = "mongodb-uri"
	mongoDBDatabaseKey          = "mongodb-database"
	maxPageLimitKey             = "max-page-limit"
	logLevelsKey                = "log-levels"
	blobStoreKey                = "blob-store"
	blobStoreDirectoryKey       = "blob-store-directory"
	s3BucketKey                 = "s3-bucket"
	s3RegionKey                 = "s3-region"
	s3EndpointKey               = "s3-endpoint"
	s3AccessKeyIDKey            = "s3-access-key-id"
	s3SecretAccessKeyKey        = "s3-secret-access-key"
)

// logSafeFlags are the flags whose values may be printed by LogArgs, in addition to app.LogSafeFlags.
var logSafeFlags = []string{
	"config",
	"debug",
	"environment",
	"limit",
	"sort",
	"direction",
	"after",
	"before",
	"output",
	"count",
	"prefix",
	"external-id",
	"page-size",
	"key",
	"skip-confirmation",
}

type GlobalConfig struct {
	Debug          bool
	ConfigFilePath string
}

var Global = &GlobalConfig{}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := app.DefaultServerConfig()
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(
		&Global.ConfigFilePath,
		"config",
		"c",
		"",
		fmt.Sprintf("The config file to use (default $HOME/%s/%s.yaml)", ConfigDirName, ConfigFileName))
	flags.BoolVarP(
		&Global.Debug,
		"debug",
		"d",
		false,
		"Enable debug-level log output.")
	flags.String(logLevelsKey, "",
		fmt.Sprintf("A comma separated list of name=level pairs where name is the name of the logger and level is one of: %s", logger.ListLogLevels()))

	flags.String(backendKey, defaults.BackendConfig.BackendType,
		fmt.Sprintf("Where subscribers are stored. Options: %s", strings.Join(app.BackendTypes(), ", ")))
	flags.String(databaseDriverKey, defaults.DatabaseConfig.Driver.String(),
		"The Database Driver to use with the sql backend (i.e sqlite3|postgres)")
	flags.String(databaseConnectionStringKey, defaults.DatabaseConfig.ConnectionString.String(),
		"The connection string for the database used by the sql backend")
	flags.Int(databaseMaxIdleKey, defaults.DatabaseConfig.MaxIdleConnections,
		"The maximum number of idle database connections to use")
	flags.Int(databaseMaxOpenKey, defaults.DatabaseConfig.MaxOpenConnections,
		"The maximum number of open database connections to use")
	flags.String(mongoDBURIKey, "",
		"The mongodb:// connection string used by the mongodb backend")
	flags.String(mongoDBDatabaseKey, defaults.BackendConfig.MongoDBConfig.Database,
		"The MongoDB database holding the subscribers collection")
	flags.Int(maxPageLimitKey, defaults.PagingConfig.MaxLimit,
		"The largest page size a listing may request")

	flags.String(blobStoreKey, defaults.BlobStoreConfig.BlobStoreType.String(),
		fmt.Sprintf("Where exports are written. Options: %s", strings.Join(blob.BlobStoreTypes(), ", ")))
	flags.String(blobStoreDirectoryKey, defaults.BlobStoreConfig.LocalBlobStoreDirectory.String(),
		"The directory exports are written to when using the LOCAL blob store")
	flags.String(s3BucketKey, "", "The bucket exports are written to when using the AWS_S3 blob store")
	flags.String(s3RegionKey, "", "The AWS region of the bucket (default from the AWS environment)")
	flags.String(s3EndpointKey, "", "A custom S3 endpoint, for S3 compatible stores")
	flags.String(s3AccessKeyIDKey, "", "The AWS access key id (default from the AWS environment)")
	flags.String(s3SecretAccessKeyKey, "", "The AWS secret access key (default from the AWS environment)")

	err := viper.BindPFlags(flags)
	if err != nil {
		panic(err)
	}
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cli.Exit(RootCmd.Execute())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if Global.ConfigFilePath != "" {
		viper.SetConfigFile(Global.ConfigFilePath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ConfigDirName))
		}
		viper.SetConfigName(ConfigFileName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil {
		Global.ConfigFilePath = viper.ConfigFileUsed()
		cli.Stderr.Printf("Using config file: %s", viper.ConfigFileUsed())
		return
	}
	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		cli.Exit(fmt.Errorf("error loading config file (%s): %s", viper.ConfigFileUsed(), err))
	}
}

// ServerConfig builds the server config from flags, the config file and the environment.
func ServerConfig() *app.ServerConfig {
	config := app.DefaultServerConfig()
	config.BackendConfig.BackendType = viper.GetString(backendKey)
	config.BackendConfig.MongoDBConfig.URI = viper.GetString(mongoDBURIKey)
	config.BackendConfig.MongoDBConfig.Database = viper.GetString(mongoDBDatabaseKey)
	config.DatabaseConfig.Driver = store.DBDriver(viper.GetString(databaseDriverKey))
	config.DatabaseConfig.ConnectionString = store.DatabaseConnectionString(viper.GetString(databaseConnectionStringKey))
	config.DatabaseConfig.MaxIdleConnections = viper.GetInt(databaseMaxIdleKey)
	config.DatabaseConfig.MaxOpenConnections = viper.GetInt(databaseMaxOpenKey)
	config.PagingConfig.MaxLimit = viper.GetInt(maxPageLimitKey)
	config.BlobStoreConfig.BlobStoreType = blob.BlobStoreType(viper.GetString(blobStoreKey))
	config.BlobStoreConfig.LocalBlobStoreDirectory = blob.LocalBlobStoreDirectory(viper.GetString(blobStoreDirectoryKey))
	config.BlobStoreConfig.S3BlobStoreConfig = blob.S3BlobStoreConfig{
		BucketName:      viper.GetString(s3BucketKey),
		Region:          viper.GetString(s3RegionKey),
		Endpoint:        viper.GetString(s3EndpointKey),
		AccessKeyID:     viper.GetString(s3AccessKeyIDKey),
		SecretAccessKey: viper.GetString(s3SecretAccessKeyKey),
	}
	config.LogLevels = LogLevels()
	return config
}

// LogLevels returns the configured log levels, defaulting everything to debug when --debug is set.
func LogLevels() logger.LogLevelConfig {
	levels := viper.GetString(logLevelsKey)
	if levels == "" && Global.Debug {
		levels = "*=debug"
	}
	return logger.LogLevelConfig(levels)
}

// LogFactory makes a log factory writing to stderr, so that stdout only carries command output.
func LogFactory() (logger.LogFactory, error) {
	logRegistry, err := logger.NewLogRegistry(LogLevels())
	if err != nil {
		return nil, err
	}
	return logger.MakeLogrusLogFactoryStdErr(logRegistry), nil
}

var RootCmd = &cobra.Command{
	Use:     "tidecast-tools command",
	Short:   "Tidecast tools",
	Long:    `Tidecast tools for managing the subscriber database`,
	Version: version.VersionToString(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		LogArgs()
	},
}

// LogArgs prints the command line when --debug is set, masking the values of flags that may hold credentials.
// Subcommands with their own persistent pre-run should call it themselves.
func LogArgs() {
	if Global.Debug {
		cli.Stderr.Printf("Starting with args: %v", util.FilterOSArgs(os.Args, append(logSafeFlags, app.LogSafeFlags...)))
	}
}
