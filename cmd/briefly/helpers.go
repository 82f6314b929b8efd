package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/brieflyhq/briefly/internal/common"
	"github.com/brieflyhq/briefly/internal/config"
	"github.com/brieflyhq/briefly/internal/crypto"
	"github.com/brieflyhq/briefly/internal/engine"
	"github.com/brieflyhq/briefly/internal/llm"
	"github.com/brieflyhq/briefly/internal/mail"
	"github.com/brieflyhq/briefly/internal/storage"
)

// openStorage opens the database with proper path expansion and the
// credential cipher, without applying migrations.
func openStorage() (*storage.SQLiteStorage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/briefly/briefly.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	key := viper.GetString("database.encryption_key")
	if key == "" {
		key = os.Getenv("BRIEFLY_ENCRYPTION_KEY")
	}
	if key == "" {
		return nil, common.NewUserError(
			"credential encryption key not found. Set database.encryption_key in config or the BRIEFLY_ENCRYPTION_KEY environment variable",
			common.ErrMissingConfig)
	}

	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential cipher: %w", err)
	}

	return storage.NewSQLiteStorage(dbPath, cipher)
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier builds the LLM classifier from config.
func initClassifier() (*llm.Classifier, error) {
	cfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, err
	}
	return llm.NewClassifier(cfg, slog.Default())
}

// initMailSource builds the Gmail-backed mail source from config.
func initMailSource() (*mail.GmailSource, error) {
	oauthConfig, err := config.LoadGoogleConfig()
	if err != nil {
		return nil, err
	}
	return mail.NewGmailSource(oauthConfig, slog.Default()), nil
}

// initEngine wires storage, mail source and classifier into a scan engine.
// The returned cleanup releases the classifier's rate limiter and the
// database handle.
func initEngine(ctx context.Context) (*engine.ScanEngine, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := initClassifier()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	source, err := initMailSource()
	if err != nil {
		classifier.Close()
		_ = store.Close()
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	if v := viper.GetInt("scan.max_workers"); v > 0 {
		cfg.MaxWorkers = v
	}
	if v := viper.GetInt("scan.fetch_limit"); v > 0 {
		cfg.FetchLimit = v
	}
	if v := viper.GetDuration("scan.timeout"); v > 0 {
		cfg.ScanTimeout = v
	}

	eng := engine.NewWithConfig(store, source, classifier, slog.Default(), cfg)

	cleanup := func() {
		classifier.Close()
		_ = store.Close()
	}
	return eng, cleanup, nil
}

// formatDuration renders a scan duration for terminal output.
func formatDuration(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
