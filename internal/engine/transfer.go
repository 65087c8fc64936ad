package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"db-migrate/internal/ddl"
	"db-migrate/internal/dialect"
	"db-migrate/internal/schema"
)

// Execer is the write side of a target handle.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TableTransferResult reports the copy of one table.
type TableTransferResult struct {
	Table        schema.TableIdentity
	RowsInserted int
	Success      bool
	Message      string
}

// Transferer copies table rows from a source handle into a target handle.
type Transferer struct {
	source schema.Querier
	d      dialect.Dialect
	target Execer
	logger *slog.Logger

	// BatchSize caps the rows per INSERT statement; 0 puts a whole table in one statement.
	BatchSize int
}

func NewTransferer(source schema.Querier, d dialect.Dialect, target Execer, logger *slog.Logger) *Transferer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transferer{
		source: source,
		d:      d,
		target: target,
		logger: logger.With("component", "transfer"),
	}
}

// TransferAll copies tables one at a time, in order, and stops at the first
// failure. Tables copied before the failure keep their rows. onTable, when
// set, is called after every table, failed or not.
func (t *Transferer) TransferAll(ctx context.Context, tables []schema.Table, onTable func(TableTransferResult)) ([]TableTransferResult, error) {
	var results []TableTransferResult

	for _, table := range tables {
		res, err := t.TransferTable(ctx, table)
		results = append(results, res)
		if onTable != nil {
			onTable(res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// TransferTable reads every row of table from the source and inserts them into
// the target with multi-row INSERT statements.
func (t *Transferer) TransferTable(ctx context.Context, table schema.Table) (TableTransferResult, error) {
	res := TableTransferResult{Table: table.Identity}
	t.logger.Info("copying table", "table", table.Identity.String())

	rows, err := t.fetchRows(ctx, table)
	if err != nil {
		res.Message = err.Error()
		return res, fmt.Errorf("failed to read rows of %s: %w", table.Identity, err)
	}
	t.logger.Debug("rows fetched", "table", table.Identity.String(), "rows", len(rows))

	if len(rows) == 0 {
		res.Success = true
		res.Message = "no data to copy"
		return res, nil
	}

	stmts, err := BuildInsertStatements(table, rows, t.BatchSize)
	if err != nil {
		res.Message = err.Error()
		return res, fmt.Errorf("failed to serialize rows of %s: %w", table.Identity, err)
	}

	for _, batch := range stmts {
		if _, err := t.target.ExecContext(ctx, batch.SQL); err != nil {
			res.Message = fmt.Sprintf("insert failed after %d of %d rows: %v", res.RowsInserted, len(rows), err)
			return res, fmt.Errorf("failed to insert rows into %s: %w", table.Identity, err)
		}
		res.RowsInserted += batch.Rows
	}

	res.Success = true
	res.Message = fmt.Sprintf("copied %d rows", res.RowsInserted)
	t.logger.Info("table copied", "table", table.Identity.String(), "rows", res.RowsInserted)
	return res, nil
}

func (t *Transferer) fetchRows(ctx context.Context, table schema.Table) ([][]any, error) {
	query := t.d.SelectRowsQuery(table.Identity.Schema, table.Identity.Name, table.ColumnNames())
	rows, err := t.source.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values := make([]any, len(table.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, c := range table.Columns {
			values[i] = t.d.DecodeValue(c.SourceType, values[i])
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertStatement is one INSERT and the number of rows it carries.
type InsertStatement struct {
	SQL  string
	Rows int
}

// BuildInsertStatements serializes rows (aligned with table.Columns) into
// multi-row INSERT statements of at most batchSize rows each; batchSize <= 0
// yields a single statement.
func BuildInsertStatements(table schema.Table, rows [][]any, batchSize int) ([]InsertStatement, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}

	kinds := make([]ValueKind, len(table.Columns))
	for i, c := range table.Columns {
		kinds[i] = KindFor(c.SourceType)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", ddl.QualifiedName(table.Identity), ddl.QuoteColumns(table.ColumnNames()))

	var stmts []InsertStatement
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		tuples := make([]string, 0, end-start)
		for r := start; r < end; r++ {
			tuple, err := rowLiteral(table, kinds, rows[r])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+1, err)
			}
			tuples = append(tuples, tuple)
		}
		stmts = append(stmts, InsertStatement{SQL: prefix + strings.Join(tuples, ", "), Rows: end - start})
	}
	return stmts, nil
}

func rowLiteral(table schema.Table, kinds []ValueKind, row []any) (string, error) {
	if len(row) != len(kinds) {
		return "", fmt.Errorf("expected %d values, got %d", len(kinds), len(row))
	}
	literals := make([]string, len(row))
	for i, raw := range row {
		lit, err := FormatLiteral(kinds[i], raw)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", table.Columns[i].ColumnName, err)
		}
		literals[i] = lit
	}
	return "(" + strings.Join(literals, ", ") + ")", nil
}
