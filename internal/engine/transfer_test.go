package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"db-migrate/internal/dialect"
	"db-migrate/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
)

func customers() schema.Table {
	id := schema.TableIdentity{Schema: "sales", Name: "Customers"}
	return schema.Table{
		Identity: id,
		Columns: []schema.ColumnDescriptor{
			{SchemaName: "sales", TableName: "Customers", ColumnName: "id", SourceType: "int", OrdinalPosition: 1, IsPrimaryKey: true},
			{SchemaName: "sales", TableName: "Customers", ColumnName: "name", SourceType: "nvarchar", OrdinalPosition: 2},
			{SchemaName: "sales", TableName: "Customers", ColumnName: "vip", SourceType: "bit", OrdinalPosition: 3},
		},
	}
}

func newMocks(t *testing.T) (src, tgt sqlmock.Sqlmock, tr *Transferer) {
	t.Helper()
	srcDB, src, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	tgtDB, tgt, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		srcDB.Close()
		tgtDB.Close()
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return src, tgt, NewTransferer(srcDB, &dialect.MSSQLDialect{}, tgtDB, logger)
}

const selectCustomers = "SELECT [id], [name], [vip] FROM [sales].[Customers]"

func TestTransferTable_MultiRowInsert(t *testing.T) {
	src, tgt, tr := newMocks(t)

	src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}).
			AddRow(int64(1), "Ann", true).
			AddRow(int64(2), "O'Brien", nil))
	tgt.ExpectExec(regexp.QuoteMeta(`INSERT INTO "sales"."Customers" ("id", "name", "vip") VALUES (1, 'Ann', TRUE), (2, 'O''Brien', NULL)`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := tr.TransferTable(context.Background(), customers())
	if err != nil {
		t.Fatalf("TransferTable: %v", err)
	}
	if !res.Success || res.RowsInserted != 2 {
		t.Errorf("Expected success with 2 rows, got %+v", res)
	}
	if err := src.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
	if err := tgt.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransferTable_EmptyTableIssuesNoInsert(t *testing.T) {
	src, tgt, tr := newMocks(t)

	src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}))

	res, err := tr.TransferTable(context.Background(), customers())
	if err != nil {
		t.Fatalf("TransferTable: %v", err)
	}
	if !res.Success || res.RowsInserted != 0 || res.Message == "" {
		t.Errorf("Expected success with 0 rows and a message, got %+v", res)
	}
	// any unexpected Exec on the target would have failed above
	if err := tgt.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransferTable_Batches(t *testing.T) {
	src, tgt, tr := newMocks(t)
	tr.BatchSize = 2

	src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}).
			AddRow(int64(1), "a", false).
			AddRow(int64(2), "b", false).
			AddRow(int64(3), "c", true))
	tgt.ExpectExec(regexp.QuoteMeta(`VALUES (1, 'a', FALSE), (2, 'b', FALSE)`)).WillReturnResult(sqlmock.NewResult(0, 2))
	tgt.ExpectExec(regexp.QuoteMeta(`VALUES (3, 'c', TRUE)`)).WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := tr.TransferTable(context.Background(), customers())
	if err != nil {
		t.Fatalf("TransferTable: %v", err)
	}
	if res.RowsInserted != 3 {
		t.Errorf("Expected 3 rows, got %d", res.RowsInserted)
	}
	if err := tgt.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransferTable_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(src, tgt sqlmock.Sqlmock)
	}{
		{
			name: "fetch error",
			setup: func(src, tgt sqlmock.Sqlmock) {
				src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).WillReturnError(errors.New("invalid object name"))
			},
		},
		{
			name: "insert error",
			setup: func(src, tgt sqlmock.Sqlmock) {
				src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}).AddRow(int64(1), "a", false))
				tgt.ExpectExec("INSERT INTO").WillReturnError(errors.New("duplicate key"))
			},
		},
		{
			name: "unserializable value",
			setup: func(src, tgt sqlmock.Sqlmock) {
				src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}).AddRow("not a number", "a", false))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, tgt, tr := newMocks(t)
			tt.setup(src, tgt)

			res, err := tr.TransferTable(context.Background(), customers())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if res.Success {
				t.Errorf("Expected failed result, got %+v", res)
			}
			if res.Table.String() != "sales.Customers" {
				t.Errorf("Result should name the table, got %s", res.Table)
			}
		})
	}
}

func TestTransferAll_StopsAtFirstFailure(t *testing.T) {
	src, tgt, tr := newMocks(t)

	orders := schema.Table{
		Identity: schema.TableIdentity{Schema: "sales", Name: "Orders"},
		Columns:  []schema.ColumnDescriptor{{SchemaName: "sales", TableName: "Orders", ColumnName: "id", SourceType: "int", OrdinalPosition: 1}},
	}
	staff := schema.Table{
		Identity: schema.TableIdentity{Schema: "hr", Name: "Staff"},
		Columns:  []schema.ColumnDescriptor{{SchemaName: "hr", TableName: "Staff", ColumnName: "id", SourceType: "int", OrdinalPosition: 1}},
	}

	src.ExpectQuery(regexp.QuoteMeta(selectCustomers)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "vip"}).AddRow(int64(1), "a", false))
	tgt.ExpectExec(regexp.QuoteMeta(`INSERT INTO "sales"."Customers"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	src.ExpectQuery(regexp.QuoteMeta("FROM [sales].[Orders]")).WillReturnError(errors.New("timeout"))

	var seen []string
	results, err := tr.TransferAll(context.Background(), []schema.Table{customers(), orders, staff}, func(r TableTransferResult) {
		seen = append(seen, r.Table.String())
	})

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if len(results) != 2 || !results[0].Success || results[1].Success {
		t.Errorf("Unexpected results: %+v", results)
	}
	if strings.Join(seen, ",") != "sales.Customers,sales.Orders" {
		t.Errorf("Unexpected callbacks: %v", seen)
	}
	// hr.Staff never queried
	if err := src.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransferTable_GuidColumnsAsText(t *testing.T) {
	src, tgt, tr := newMocks(t)

	devices := schema.Table{
		Identity: schema.TableIdentity{Schema: "dbo", Name: "Devices"},
		Columns: []schema.ColumnDescriptor{
			{SchemaName: "dbo", TableName: "Devices", ColumnName: "id", SourceType: "uniqueidentifier", OrdinalPosition: 1, IsPrimaryKey: true},
			{SchemaName: "dbo", TableName: "Devices", ColumnName: "firmware", SourceType: "varbinary", OrdinalPosition: 2},
		},
	}
	guid := []byte{0xFF, 0x19, 0x96, 0x6F, 0x86, 0x8B, 0x11, 0xD0, 0xB4, 0x2D, 0x00, 0xC0, 0x4F, 0xC9, 0x64, 0xFF}

	src.ExpectQuery(regexp.QuoteMeta("SELECT [id], [firmware] FROM [dbo].[Devices]")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "firmware"}).AddRow(guid, []byte("a\x00b")))
	tgt.ExpectExec(regexp.QuoteMeta(`INSERT INTO "dbo"."Devices" ("id", "firmware") VALUES ('6F9619FF-8B86-D011-B42D-00C04FC964FF', '\x610062')`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := tr.TransferTable(context.Background(), devices)
	if err != nil {
		t.Fatalf("TransferTable: %v", err)
	}
	if res.RowsInserted != 1 {
		t.Errorf("Expected 1 row, got %d", res.RowsInserted)
	}
	if err := tgt.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
