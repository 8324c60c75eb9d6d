package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"familyreads/internal/bot"
	"familyreads/internal/catalog"
	"familyreads/internal/config"
	"familyreads/internal/state"
	"familyreads/internal/storage"
	"familyreads/internal/storage/ch"
	"familyreads/internal/storage/stubs"
)

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger
	seed   *catalog.Seed
	store  *state.Store
	db     storage.Storage
	bot    *bot.Bot
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Family Reads bot...")

	if err := app.initState(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initBot(); err != nil {
		app.db.Close()
		return nil, err
	}

	return app, nil
}

// NewLogger builds a zap logger for the given level name
func NewLogger(level string, development bool) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomicLevel

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// initState loads the seed data into a fresh store
func (a *App) initState() error {
	seed, err := catalog.Load(a.config.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	a.seed = seed
	a.store = state.NewStore(seed.Snapshot())

	a.logger.Info("Family state loaded",
		zap.String("seed_file", a.config.SeedFile),
		zap.Int("readers", len(seed.Readers)),
		zap.Int("books", len(seed.Books)),
		zap.Int("challenges", len(seed.Challenges)),
	)
	return nil
}

// initDatabase initializes the activity journal
func (a *App) initDatabase() error {
	var db storage.Storage
	if a.config.UseMockDB {
		a.logger.Info("Using mock database")
		db = stubs.NewMockDB()
	} else {
		chCfg := a.config.ClickHouse
		a.logger.Info("Connecting to ClickHouse",
			zap.String("host", chCfg.Host),
			zap.Int("port", chCfg.Port),
			zap.String("database", chCfg.Database),
			zap.String("user", chCfg.User),
			zap.Bool("tls", chCfg.UseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(chCfg.Host, chCfg.Port, chCfg.Database, chCfg.User, chCfg.Password, chCfg.UseTLS)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	}

	if err := db.Initialize(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.store, a.seed, a.db, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.bot.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
		runErr = <-errChan
	case runErr = <-errChan:
		if runErr != nil {
			a.logger.Error("Bot stopped with error", zap.Error(runErr))
		}
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	defer a.logger.Sync()

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
