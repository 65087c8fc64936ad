package registry

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name    string
		configs []Config
		want    string
		wantErr string
	}{
		{
			name:    "single active",
			configs: []Config{{Name: "a"}, {Name: "b", Active: true}},
			want:    "b",
		},
		{
			name:    "none active",
			configs: []Config{{Name: "a"}},
			wantErr: "no active database",
		},
		{
			name:    "empty",
			wantErr: "no active database",
		},
		{
			name:    "two active",
			configs: []Config{{Name: "a", Active: true}, {Name: "b", Active: true}},
			wantErr: "multiple active databases",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectActive(tt.configs)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.Name)
			}
		})
	}
}

type mockOpener struct {
	mocks  map[string]sqlmock.Sqlmock
	opened []string
}

func (m *mockOpener) open(_ context.Context, driver, dsn string) (*sql.DB, error) {
	if dsn == "unreachable" {
		return nil, errors.New("dial tcp: connection refused")
	}
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}
	mock.ExpectClose()
	m.mocks[dsn] = mock
	m.opened = append(m.opened, driver+":"+dsn)
	return db, nil
}

func newTestRegistry() (*Registry, *mockOpener) {
	o := &mockOpener{mocks: map[string]sqlmock.Sqlmock{}}
	return New(WithOpener(o.open), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), o
}

func TestRegistry_ConnectAndActive(t *testing.T) {
	r, o := newTestRegistry()
	ctx := context.Background()

	if _, err := r.Active(); err == nil {
		t.Error("Expected error from empty registry")
	}

	if _, err := r.Connect(ctx, Config{Name: "legacy", Driver: "sqlserver", DSN: "mssql-dsn"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Connect(ctx, Config{Name: "crm", Driver: "mysql", DSN: "mysql-dsn", Active: true}); err != nil {
		t.Fatal(err)
	}

	active, err := r.Active()
	if err != nil {
		t.Fatal(err)
	}
	if active.Config.Name != "crm" {
		t.Errorf("Expected crm to be active, got %s", active.Config.Name)
	}

	// same name returns the existing handle without reopening
	again, err := r.Connect(ctx, Config{Name: "crm", Driver: "mysql", DSN: "other"})
	if err != nil {
		t.Fatal(err)
	}
	if again != active || len(o.opened) != 2 {
		t.Errorf("Expected reuse of crm handle, opened %v", o.opened)
	}

	if err := r.SetActive("legacy"); err != nil {
		t.Fatal(err)
	}
	if c, _ := r.Active(); c.Config.Name != "legacy" {
		t.Errorf("Expected legacy active, got %s", c.Config.Name)
	}
	if err := r.SetActive("missing"); err == nil {
		t.Error("Expected error for unknown connection")
	}

	if _, ok := r.Get("legacy"); !ok {
		t.Error("Expected legacy to be registered")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for dsn, mock := range o.mocks {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("%s: %v", dsn, err)
		}
	}
	if _, ok := r.Get("legacy"); ok {
		t.Error("Expected registry to be empty after Close")
	}
}

func TestRegistry_ConnectErrors(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := r.Connect(ctx, Config{Driver: "mysql", DSN: "x"}); err == nil {
		t.Error("Expected error for missing name")
	}
	if _, err := r.Connect(ctx, Config{Name: "a", DSN: "x"}); err == nil {
		t.Error("Expected error for missing driver")
	}
	_, err := r.Connect(ctx, Config{Name: "down", Driver: "mysql", DSN: "unreachable"})
	if err == nil || !strings.Contains(err.Error(), `connection "down"`) {
		t.Errorf("Expected wrapped open error, got %v", err)
	}
	if _, ok := r.Get("down"); ok {
		t.Error("Failed connection must not be registered")
	}
}
