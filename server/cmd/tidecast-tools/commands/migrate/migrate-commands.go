package migrate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/cli"
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/commands"
	"github.com/tidecast/tidecast/server/store"
	"github.com/tidecast/tidecast/server/store/migrations"
)

func init() {
	migrateRootCmd.PersistentFlags().BoolVarP(
		&migrateCmdConfig.skipConfirmation,
		"skip-confirmation",
		"",
		false,
		"Skip interactive confirmation and automatically answer Yes to confirmation questions")

	commands.RootCmd.AddCommand(migrateRootCmd)
	migrateRootCmd.AddCommand(migrateUpCmd)
	migrateRootCmd.AddCommand(migrateDownCmd)
	migrateRootCmd.AddCommand(migrateGotoCmd)
	migrateRootCmd.AddCommand(migrateForceCmd)
	migrateRootCmd.AddCommand(migrateVersionCmd)
}

var migrateCmdConfig = struct {
	skipConfirmation bool
	databaseConfig   store.DatabaseConfig
	migrationRunner  *migrations.GolangMigrateRunner
}{}

var migrateRootCmd = &cobra.Command{
	Use:   "migrate up|down|goto|force|version",
	Short: "Migrates the SQL database up to the latest version, down to empty, or to a specific version number",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		commands.LogArgs()
		logFactory, err := commands.LogFactory()
		if err != nil {
			return err
		}
		migrateCmdConfig.databaseConfig = commands.ServerConfig().DatabaseConfig
		migrateCmdConfig.migrationRunner = migrations.NewServerMigrateRunner(logFactory)
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:           "up",
	Short:         "Migrates the database up to the latest version",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := migrateCmdConfig.migrationRunner.Up(
			context.Background(),
			migrateCmdConfig.databaseConfig.Driver,
			migrateCmdConfig.databaseConfig.ConnectionString,
		)
		if err != nil {
			return fmt.Errorf("error running 'up' migration: %w", err)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:           "down",
	Short:         "Migrates the database down to being empty",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed := cli.AskForConfirmation("Running a Down migration will remove ALL subscribers from this database. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Down migration cancelled.")
			return nil
		}
		err := migrateCmdConfig.migrationRunner.Down(
			context.Background(),
			migrateCmdConfig.databaseConfig.Driver,
			migrateCmdConfig.databaseConfig.ConnectionString,
		)
		if err != nil {
			return fmt.Errorf("error running 'down' migration: %w", err)
		}
		return nil
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:           "goto V",
	Short:         "Migrates the database up or down as required to be at specific version V",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Goto migration will sometimes REMOVE data from this database. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Goto migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Goto(
			context.Background(),
			migrateCmdConfig.databaseConfig.Driver,
			migrateCmdConfig.databaseConfig.ConnectionString,
			version,
		)
		if err != nil {
			return fmt.Errorf("error running 'goto' migration: %w", err)
		}
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:           "force V",
	Short:         "Marks the database as being clean and in version V, but don't run migrations",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		confirmed := cli.AskForConfirmation("Running a Force migration should only be performed after the database has been manually checked and fixed. Are you sure?", migrateCmdConfig.skipConfirmation)
		if !confirmed {
			cli.Stdout.Printf("Force migration cancelled.")
			return nil
		}
		err = migrateCmdConfig.migrationRunner.Force(
			context.Background(),
			migrateCmdConfig.databaseConfig.Driver,
			migrateCmdConfig.databaseConfig.ConnectionString,
			version)
		if err != nil {
			return fmt.Errorf("error running 'force' operation: %w", err)
		}
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:           "version",
	Short:         "Prints the current migration version of the database",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, dirty, err := migrateCmdConfig.migrationRunner.Version(
			context.Background(),
			migrateCmdConfig.databaseConfig.Driver,
			migrateCmdConfig.databaseConfig.ConnectionString,
		)
		if err != nil {
			return fmt.Errorf("error reading migration version: %w", err)
		}
		if dirty {
			cli.Stdout.Printf("%d (dirty; fix the database then run 'force %d')", version, version)
		} else {
			cli.Stdout.Printf("%d", version)
		}
		return nil
	},
}

func parseVersion(arg string) (uint, error) {
	version, err := strconv.Atoi(arg)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("error: version must be a valid number")
	}
	return uint(version), nil
}
