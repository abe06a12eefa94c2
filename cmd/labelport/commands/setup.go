package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/labelport/internal/config"
	"github.com/rpggio/labelport/internal/sqlite"
)

// setup loads configuration and builds the logger shared by all commands.
// Logs go to stderr so command output stays pipeable.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return cfg, logger, nil
}

// openStore opens the task database and applies migrations. The returned
// func closes the database.
func openStore(cfg config.Config) (*sqlite.TaskStore, func(), error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return sqlite.NewTaskStore(db), func() { db.Close() }, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
