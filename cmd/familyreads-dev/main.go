package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"familyreads/internal/app"
	"familyreads/internal/storage/ch"
)

const (
	devUser     = "default"
	devPassword = "devpassword"
	devDatabase = "default"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Load .env first so TELEGRAM_BOT_TOKEN and ALLOWED_USER_IDS are available
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:latest",
		clickhouse.WithUsername(devUser),
		clickhouse.WithPassword(devPassword),
		clickhouse.WithDatabase(devDatabase),
	)
	if err != nil {
		return fmt.Errorf("failed to start ClickHouse container: %w", err)
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return fmt.Errorf("failed to get container port: %w", err)
	}

	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	// Apply the journal schema
	db, err := ch.OpenSQL(ch.DSN(host, port.Int(), devDatabase, devUser, devPassword, false))
	if err != nil {
		return err
	}
	err = ch.MigrateUp(db)
	db.Close()
	if err != nil {
		return err
	}
	log.Println("Migrations applied")

	// Set environment variables for the application
	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", devDatabase)
	os.Setenv("CLICKHOUSE_USER", devUser)
	os.Setenv("CLICKHOUSE_PASSWORD", devPassword)
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("USE_MOCK_DB", "false")
	if os.Getenv("LOG_DEVELOPMENT") == "" {
		os.Setenv("LOG_DEVELOPMENT", "true")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("⚠️  TELEGRAM_BOT_TOKEN not set. Please set it in your .env file or environment.")
	}
	if os.Getenv("ALLOWED_USER_IDS") == "" {
		log.Println("⚠️  ALLOWED_USER_IDS not set. Please set it in your .env file or environment.")
	}

	log.Println("Starting application with ClickHouse backend...")

	application, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Run blocks until SIGINT/SIGTERM
	return application.Run()
}
