package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"db-migrate/internal/dialect"
)

// Querier is the read side of a source handle. *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Introspector reads column and foreign-key metadata from a source catalog.
type Introspector struct {
	db     Querier
	d      dialect.Dialect
	logger *slog.Logger
}

func NewIntrospector(db Querier, d dialect.Dialect, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{db: db, d: d, logger: logger.With("component", "introspector")}
}

// ExtractColumns returns every user column of databaseName ordered by schema,
// table and ordinal. Any failure is returned: there is nothing to migrate
// without it.
func (i *Introspector) ExtractColumns(ctx context.Context, databaseName string) ([]ColumnDescriptor, error) {
	query, args := i.d.ColumnsQuery(databaseName)
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []ColumnDescriptor
	for rows.Next() {
		var sName, tName, cName, dType sql.NullString
		var ordinal, isPK sql.NullInt64

		if err := rows.Scan(&sName, &tName, &cName, &dType, &ordinal, &isPK); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}

		columns = append(columns, ColumnDescriptor{
			SchemaName:      sName.String,
			TableName:       tName.String,
			ColumnName:      cName.String,
			SourceType:      i.d.NormalizeType(dType.String),
			OrdinalPosition: int(ordinal.Int64),
			IsPrimaryKey:    isPK.Int64 != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	i.logger.Info("columns extracted", "database", databaseName, "columns", len(columns))
	return columns, nil
}

// ExtractForeignKeys returns the foreign-key column pairs of databaseName
// ordered by constraint name and column ordinal. A failure is logged and
// yields an empty list: the schema can still be created without relationships.
func (i *Introspector) ExtractForeignKeys(ctx context.Context, databaseName string) []ForeignKeyDescriptor {
	fks, err := i.foreignKeys(ctx, databaseName)
	if err != nil {
		i.logger.Warn("foreign key extraction failed, continuing without constraints",
			"database", databaseName, "error", err)
		return []ForeignKeyDescriptor{}
	}
	i.logger.Info("foreign keys extracted", "database", databaseName, "foreign_keys", len(fks))
	return fks
}

func (i *Introspector) foreignKeys(ctx context.Context, databaseName string) ([]ForeignKeyDescriptor, error) {
	query, args := i.d.ForeignKeysQuery(databaseName)
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []ForeignKeyDescriptor{}
	for rows.Next() {
		var name, pSchema, pTable, pCol, rSchema, rTable, rCol sql.NullString
		if err := rows.Scan(&name, &pSchema, &pTable, &pCol, &rSchema, &rTable, &rCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, ForeignKeyDescriptor{
			ConstraintName:   name.String,
			ParentSchema:     pSchema.String,
			ParentTable:      pTable.String,
			ParentColumn:     pCol.String,
			ReferencedSchema: rSchema.String,
			ReferencedTable:  rTable.String,
			ReferencedColumn: rCol.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return fks, nil
}
