package dialect

// GetDialect returns the source Dialect for a database/sql driver name.
func GetDialect(driver string) Dialect {
	switch driver {
	case "postgres", "pgx":
		return &PostgresDialect{}
	case "mysql":
		return &MysqlDialect{}
	case "oracle":
		return &OracleDialect{}
	default: // sqlserver, mssql
		return &MSSQLDialect{}
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
