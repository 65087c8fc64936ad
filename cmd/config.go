package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"db-migrate/internal/dialect"
	"db-migrate/internal/migration"
	"db-migrate/internal/registry"
	"db-migrate/internal/schema"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for .env lookups and plan output.
var AppFs = afero.NewOsFs()

func setDefaults() {
	viper.SetDefault("target.host", "localhost")
	viper.SetDefault("target.port", migration.DefaultPort)
	viper.SetDefault("target.database", "postgres")
	viper.SetDefault("target.sslmode", migration.DefaultSSLMode)
	viper.SetDefault("target.driver", migration.DefaultDriver)
	viper.SetDefault("migration.batch_size", 0)
	viper.SetDefault("migration.verify", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// loadEnvFiles loads .env, then .env.local over it. Both are optional.
func loadEnvFiles() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// activeSourceConfig returns the databases entry marked active.
func activeSourceConfig() (*registry.Config, error) {
	var configs []registry.Config
	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}
	return registry.SelectActive(configs)
}

func targetConfig() migration.TargetConfig {
	return migration.TargetConfig{
		Host:     viper.GetString("target.host"),
		Port:     viper.GetInt("target.port"),
		User:     viper.GetString("target.user"),
		Password: viper.GetString("target.password"),
		Database: viper.GetString("target.database"),
		SSLMode:  viper.GetString("target.sslmode"),
		Driver:   viper.GetString("target.driver"),
	}
}

// sourceDatabaseName returns source.database, or asks the source for its
// current database when unset.
func sourceDatabaseName(ctx context.Context, db schema.Querier, d dialect.Dialect) (string, error) {
	if name := strings.TrimSpace(viper.GetString("source.database")); name != "" {
		return name, nil
	}

	rows, err := db.QueryContext(ctx, d.CurrentDatabaseQuery())
	if err != nil {
		return "", fmt.Errorf("failed to get database name: %w", err)
	}
	defer rows.Close()

	var name string
	if rows.Next() {
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("failed to get database name: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to get database name: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("no database selected in DSN (set source.database or --database)")
	}
	return name, nil
}

// newLogger builds the process logger from log.level and log.format.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(viper.GetString("log.format")) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log.format %q (text or json)", viper.GetString("log.format"))
	}
}

// openSource connects the active source through a fresh registry. The caller
// closes the registry.
func openSource(ctx context.Context, logger *slog.Logger) (*registry.Registry, *registry.Connection, error) {
	cfg, err := activeSourceConfig()
	if err != nil {
		return nil, nil, err
	}

	reg := registry.New(registry.WithLogger(logger))
	conn, err := reg.Connect(ctx, *cfg)
	if err != nil {
		reg.Close()
		return nil, nil, err
	}
	return reg, conn, nil
}
