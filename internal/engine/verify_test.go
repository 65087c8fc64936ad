package engine

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"db-migrate/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestVerifyRowCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	customersID := schema.TableIdentity{Schema: "sales", Name: "Customers"}
	ordersID := schema.TableIdentity{Schema: "sales", Name: "Orders"}
	notesID := schema.TableIdentity{Name: "notes"}
	brokenID := schema.TableIdentity{Schema: "sales", Name: "Broken"}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "sales"."Customers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "sales"."Orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "notes"`)).
		WillReturnError(errors.New("relation does not exist"))

	checks := VerifyRowCounts(context.Background(), db, []TableTransferResult{
		{Table: customersID, RowsInserted: 2, Success: true},
		{Table: ordersID, RowsInserted: 3, Success: true},
		{Table: notesID, RowsInserted: 1, Success: true},
		{Table: brokenID, Success: false, Message: "boom"},
	})

	if len(checks) != 3 {
		t.Fatalf("Expected 3 checks (failed table skipped), got %+v", checks)
	}
	if !checks[0].OK() || checks[0].Actual != 2 {
		t.Errorf("Expected matching count for Customers, got %+v", checks[0])
	}
	if checks[1].OK() || checks[1].Status != "MISMATCH: 5/3" {
		t.Errorf("Expected mismatch for Orders, got %+v", checks[1])
	}
	if !strings.HasPrefix(checks[2].Status, "VERIFY_FAIL: ") || checks[2].Table != notesID {
		t.Errorf("Expected verify failure for notes, got %+v", checks[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
