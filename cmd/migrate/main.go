package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"familyreads/internal/config"
	"familyreads/internal/storage/ch"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the ClickHouse activity journal schema",
	Long: `Apply, roll back and inspect the schema migrations of the activity journal.
Connection settings are read from CLICKHOUSE_* environment variables or a .env file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if it exists
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, using existing environment variables")
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			if err := ch.MigrateUp(db); err != nil {
				return err
			}
			log.Println("Migrations completed successfully")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			if err := ch.MigrateDown(db); err != nil {
				return err
			}
			log.Println("Rollback completed successfully")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(ch.MigrationStatus)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			version, err := ch.MigrationVersion(db)
			if err != nil {
				return err
			}
			log.Printf("Current migration version: %d", version)
			return nil
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create <migration_name>",
	Short: "Create a new SQL migration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goose.SetSequential(true)
		if err := goose.Create(nil, migrationsDir, args[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		log.Printf("Created migration: %s", args[0])
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&migrationsDir, "dir", "./migrations", "directory to write the migration to")

	// Running without a subcommand applies pending migrations
	rootCmd.RunE = upCmd.RunE

	rootCmd.AddCommand(upCmd, downCmd, statusCmd, versionCmd, createCmd)
}

// withDB opens the journal database for the duration of fn
func withDB(fn func(db *sql.DB) error) error {
	cfg, err := config.LoadClickHouseFromEnv()
	if err != nil {
		return err
	}

	db, err := ch.OpenSQL(ch.DSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.UseTLS))
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Connected to ClickHouse successfully")
	return fn(db)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
