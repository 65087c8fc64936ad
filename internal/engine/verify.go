package engine

import (
	"context"
	"database/sql"
	"fmt"

	"db-migrate/internal/ddl"
	"db-migrate/internal/schema"
)

// RowCounter is the read side of a target handle used after a transfer.
type RowCounter interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RowCountCheck compares what a transfer reported with what the target holds.
type RowCountCheck struct {
	Table    schema.TableIdentity
	Expected int
	Actual   int
	Status   string
}

// OK reports whether the target count matched the inserted count.
func (c RowCountCheck) OK() bool { return c.Status == "OK" }

// VerifyRowCounts counts the rows of every successfully transferred table on
// the target. Failed tables are skipped since their counts mean nothing.
func VerifyRowCounts(ctx context.Context, target RowCounter, results []TableTransferResult) []RowCountCheck {
	var checks []RowCountCheck
	for _, res := range results {
		if !res.Success {
			continue
		}
		var actual int
		err := target.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ddl.QualifiedName(res.Table)).Scan(&actual)

		status := "OK"
		switch {
		case err != nil:
			status = fmt.Sprintf("VERIFY_FAIL: %v", err)
		case actual != res.RowsInserted:
			status = fmt.Sprintf("MISMATCH: %d/%d", actual, res.RowsInserted)
		}
		checks = append(checks, RowCountCheck{
			Table:    res.Table,
			Expected: res.RowsInserted,
			Actual:   actual,
			Status:   status,
		})
	}
	return checks
}
