package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"db-migrate/internal/ddl"
	"db-migrate/internal/dialect"
	"db-migrate/internal/engine"
	"db-migrate/internal/schema"

	"github.com/lib/pq"
)

// CompletedMessage is the message of every successful Outcome.
const CompletedMessage = "migration completed"

// Outcome is the only result a caller sees. It is built once at the end of a run.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`

	// Phase is the phase the run stopped in; PhaseCompleted on success.
	Phase  Phase                        `json:"-"`
	Err    error                        `json:"-"`
	Tables []engine.TableTransferResult `json:"-"`

	// Verification is set only when the migrator runs with WithVerify.
	Verification []engine.RowCountCheck `json:"-"`
}

// ProgressFunc is called after each table of the transfer phase.
type ProgressFunc func(done, total int, res engine.TableTransferResult)

type Option func(*Migrator)

func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithConnector(c Connector) Option {
	return func(m *Migrator) {
		if c != nil {
			m.connector = c
		}
	}
}

// WithBatchSize caps the rows per INSERT; 0 sends each table in one statement.
func WithBatchSize(n int) Option {
	return func(m *Migrator) {
		m.batchSize = n
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(m *Migrator) {
		m.progress = fn
	}
}

// WithVerify recounts every transferred table on the target once the copy
// is done. Mismatches are logged and reported but never fail the run.
func WithVerify(on bool) Option {
	return func(m *Migrator) {
		m.verify = on
	}
}

// Migrator sequences introspection, DDL, constraints and data copy from one
// source engine into a PostgreSQL target.
type Migrator struct {
	dialect   dialect.Dialect
	connector Connector
	logger    *slog.Logger
	batchSize int
	progress  ProgressFunc
	verify    bool
}

func New(d dialect.Dialect, opts ...Option) *Migrator {
	m := &Migrator{
		dialect:   d,
		connector: SQLConnector{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "migrator")
	return m
}

// run is the state owned by a single PerformMigration call.
type run struct {
	phase   Phase
	results []engine.TableTransferResult
	checks  []engine.RowCountCheck
}

// PerformMigration copies the schema and rows of databaseName, read through
// source, into a database of the same name on the target server, creating it
// if needed. Phases run strictly in order and each statement waits for the
// previous one. Two runs into the same target database are not serialized
// against each other; callers must not start them concurrently.
func (m *Migrator) PerformMigration(ctx context.Context, source schema.Querier, databaseName string, cfg TargetConfig) (out Outcome) {
	r := &run{phase: PhaseIdle}

	defer func() {
		if p := recover(); p != nil {
			out = m.failed(r, phaseError(r.phase, ErrUnexpected, fmt.Errorf("%v", p)))
		}
	}()

	if err := m.migrate(ctx, r, source, databaseName, cfg); err != nil {
		return m.failed(r, err)
	}

	r.enter(m.logger, PhaseCompleted)
	return Outcome{
		Success:      true,
		Message:      CompletedMessage,
		Phase:        PhaseCompleted,
		Tables:       r.results,
		Verification: r.checks,
	}
}

func (r *run) enter(logger *slog.Logger, p Phase) {
	r.phase = p
	logger.Info("phase", "phase", p.String())
}

func (m *Migrator) migrate(ctx context.Context, r *run, source schema.Querier, databaseName string, cfg TargetConfig) error {
	r.enter(m.logger, PhaseConnectingTarget)
	if err := errors.Join(cfg.Validate(), validateDatabaseName(databaseName)); err != nil {
		return phaseError(r.phase, ErrConnection, err)
	}
	admin, err := m.connector.Connect(ctx, cfg, cfg.Database)
	if err != nil {
		return phaseError(r.phase, ErrConnection, err)
	}
	adminOpen := true
	defer func() {
		if adminOpen {
			admin.Close()
		}
	}()

	r.enter(m.logger, PhaseEnsuringDatabase)
	if err := m.ensureDatabase(ctx, admin, databaseName); err != nil {
		return phaseError(r.phase, ErrProvisioning, err)
	}

	r.enter(m.logger, PhaseReconnectedToTargetDatabase)
	adminOpen = false
	if err := admin.Close(); err != nil {
		m.logger.Warn("failed to close administrative connection", "error", err)
	}
	target, err := m.connector.Connect(ctx, cfg, databaseName)
	if err != nil {
		return phaseError(r.phase, ErrConnection, err)
	}
	defer target.Close()

	r.enter(m.logger, PhaseCreatingSchema)
	introspector := schema.NewIntrospector(source, m.dialect, m.logger)
	columns, err := introspector.ExtractColumns(ctx, databaseName)
	if err != nil {
		return phaseError(r.phase, ErrSchema, err)
	}
	foreignKeys := introspector.ExtractForeignKeys(ctx, databaseName)
	if err := m.createSchema(ctx, target, columns); err != nil {
		return phaseError(r.phase, ErrSchema, err)
	}

	r.enter(m.logger, PhaseApplyingConstraints)
	m.applyConstraints(ctx, target, foreignKeys)

	r.enter(m.logger, PhaseTransferringData)
	tables := schema.GroupByTable(columns)
	transferer := engine.NewTransferer(source, m.dialect, target, m.logger)
	transferer.BatchSize = m.batchSize

	done := 0
	results, err := transferer.TransferAll(ctx, tables, func(res engine.TableTransferResult) {
		done++
		if m.progress != nil {
			m.progress(done, len(tables), res)
		}
	})
	r.results = results
	if err != nil {
		return phaseError(r.phase, ErrData, err)
	}

	if m.verify {
		r.checks = m.verifyRowCounts(ctx, target, results)
	}
	return nil
}

func (m *Migrator) verifyRowCounts(ctx context.Context, target engine.RowCounter, results []engine.TableTransferResult) []engine.RowCountCheck {
	checks := engine.VerifyRowCounts(ctx, target, results)
	bad := 0
	for _, c := range checks {
		if !c.OK() {
			bad++
			m.logger.Warn("row count check failed", "table", c.Table.String(), "status", c.Status)
		}
	}
	m.logger.Info("row counts verified", "tables", len(checks), "failed", bad)
	return checks
}

func validateDatabaseName(name string) error {
	if name == "" {
		return errors.New("source database name is required")
	}
	return nil
}

// ensureDatabase creates databaseName unless it already exists. An existing
// database is left as it is.
func (m *Migrator) ensureDatabase(ctx context.Context, admin *sql.DB, databaseName string) error {
	var one int
	err := admin.QueryRowContext(ctx, `SELECT 1 FROM pg_database WHERE datname = $1`, databaseName).Scan(&one)
	switch {
	case err == nil:
		m.logger.Info("target database exists", "database", databaseName)
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check database %q: %w", databaseName, err)
	}

	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(databaseName)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", databaseName, err)
	}
	m.logger.Info("target database created", "database", databaseName)
	return nil
}

// createSchema runs CREATE SCHEMA then CREATE TABLE statements one by one and
// stops at the first failure. Tables created before it are kept.
func (m *Migrator) createSchema(ctx context.Context, target engine.Execer, columns []schema.ColumnDescriptor) error {
	for _, stmt := range ddl.BuildCreateSchemaStatements(columns) {
		if _, err := target.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	for _, c := range columns {
		if _, ok := ddl.LookupType(c.SourceType); !ok {
			m.logger.Debug("unmapped source type, using "+ddl.DefaultType,
				"table", c.Table().String(), "column", c.ColumnName, "type", c.SourceType)
		}
	}

	tables := schema.GroupByTable(columns)
	stmts := ddl.BuildCreateTableStatements(columns)
	for i, stmt := range stmts {
		if _, err := target.ExecContext(ctx, stmt); err != nil {
			m.logger.Error("failed to create table", "index", i+1, "table", tables[i].Identity.String(), "error", err)
			return fmt.Errorf("failed to create table %d of %d (%s): %w", i+1, len(stmts), tables[i].Identity, err)
		}
		m.logger.Debug("table created", "table", tables[i].Identity.String())
	}
	m.logger.Info("schema created", "tables", len(stmts))
	return nil
}

// applyConstraints attempts every statement; failures are logged only.
func (m *Migrator) applyConstraints(ctx context.Context, target engine.Execer, foreignKeys []schema.ForeignKeyDescriptor) {
	applied := 0
	stmts := ddl.BuildForeignKeyStatements(foreignKeys)
	for i, stmt := range stmts {
		if _, err := target.ExecContext(ctx, stmt); err != nil {
			m.logger.Warn("could not add foreign key constraint",
				"constraint", foreignKeys[i].ConstraintName,
				"error", phaseError(PhaseApplyingConstraints, ErrConstraint, err))
			continue
		}
		applied++
	}
	m.logger.Info("constraints applied", "applied", applied, "failed", len(stmts)-applied)
}

func (m *Migrator) failed(r *run, err error) Outcome {
	failedIn := r.phase
	cause := err
	var pe *PhaseError
	if errors.As(err, &pe) {
		failedIn = pe.Phase
		cause = pe.Err
	}
	r.phase = PhaseFailed

	m.logger.Error("migration failed", "phase", failedIn.String(), "error", err)
	return Outcome{
		Success: false,
		Message: fmt.Sprintf("migration failed during %s: %v", failedIn, err),
		Error:   cause.Error(),
		Phase:   failedIn,
		Err:     err,
		Tables:  r.results,
	}
}
