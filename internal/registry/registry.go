package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Config is one named source connection from the databases list.
type Config struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// SelectActive returns the single entry marked active.
func SelectActive(configs []Config) (*Config, error) {
	var active *Config
	count := 0

	for i := range configs {
		if configs[i].Active {
			active = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}
	return active, nil
}

// OpenFunc opens and verifies a handle; it matches sql.Open followed by a ping.
type OpenFunc func(ctx context.Context, driver, dsn string) (*sql.DB, error)

// Connection is a registered handle and the config it came from.
type Connection struct {
	Config Config
	DB     *sql.DB
}

// Registry holds named source connections for one command invocation.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*Connection
	active string
	open   OpenFunc
	logger *slog.Logger
}

type Option func(*Registry)

func WithOpener(fn OpenFunc) Option {
	return func(r *Registry) {
		if fn != nil {
			r.open = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		conns:  map[string]*Connection{},
		open:   Open,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// Open is the default OpenFunc.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return db, nil
}

// Connect opens cfg and registers it under cfg.Name. An existing connection
// with the same name is returned as is. The first connection, or one whose
// config is marked active, becomes the active connection.
func (r *Registry) Connect(ctx context.Context, cfg Config) (*Connection, error) {
	if cfg.Name == "" {
		return nil, errors.New("connection name is required")
	}
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, fmt.Errorf("connection %q: driver and dsn are required", cfg.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[cfg.Name]; ok {
		return c, nil
	}

	db, err := r.open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", cfg.Name, err)
	}
	c := &Connection{Config: cfg, DB: db}
	r.conns[cfg.Name] = c
	if r.active == "" || cfg.Active {
		r.active = cfg.Name
	}
	r.logger.Info("connected", "name", cfg.Name, "driver", cfg.Driver)
	return c, nil
}

func (r *Registry) Get(name string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[name]
	return c, ok
}

// Active returns the active connection.
func (r *Registry) Active() (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" {
		return nil, errors.New("no active connection")
	}
	return r.conns[r.active], nil
}

func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[name]; !ok {
		return fmt.Errorf("unknown connection %q", name)
	}
	r.active = name
	return nil
}

// Close closes every registered handle and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, c := range r.conns {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	r.conns = map[string]*Connection{}
	r.active = ""
	return errors.Join(errs...)
}
