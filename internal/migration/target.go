package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPort    = 5432
	DefaultSSLMode = "disable"
	DefaultDriver  = "postgres"
)

// TargetConfig locates the target PostgreSQL server. Database is the
// administrative database used for the first connection; the migrated
// database is named after the source database.
type TargetConfig struct {
	User     string `mapstructure:"user"`
	Host     string `mapstructure:"host"`
	Database string `mapstructure:"database"`
	Password string `mapstructure:"password"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	// Driver is the database/sql driver: "postgres" (lib/pq) or "pgx".
	Driver string `mapstructure:"driver"`
}

// Validate checks the required fields.
func (c TargetConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("target user is required"))
	}
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("target host is required"))
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("target database is required"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("target password is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("target port %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// WithDefaults fills Port, SSLMode and Driver when unset.
func (c TargetConfig) WithDefaults() TargetConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.SSLMode) == "" {
		c.SSLMode = DefaultSSLMode
	}
	if strings.TrimSpace(c.Driver) == "" {
		c.Driver = DefaultDriver
	}
	return c
}

// DSN builds a postgres:// URL for database, accepted by both lib/pq and pgx.
func (c TargetConfig) DSN(database string) string {
	c = c.WithDefaults()
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(strings.TrimSpace(c.User), c.Password),
		Host:     net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port)),
		Path:     "/" + database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connector opens target handles. The orchestrator owns what it returns and
// closes it.
type Connector interface {
	Connect(ctx context.Context, cfg TargetConfig, database string) (*sql.DB, error)
}

// SQLConnector opens handles with database/sql and checks them with a ping.
type SQLConnector struct{}

func (SQLConnector) Connect(ctx context.Context, cfg TargetConfig, database string) (*sql.DB, error) {
	cfg = cfg.WithDefaults()
	db, err := sql.Open(cfg.Driver, cfg.DSN(database))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}
