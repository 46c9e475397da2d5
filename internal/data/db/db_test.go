package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := Open(logger.Nop(), Config{Driver: DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, m := range tutor.Models() {
		if !gdb.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.Nop(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	got := PostgresDSN("db", "5432", "u", "p", "summit")
	want := "postgres://u:p@db:5432/summit?sslmode=disable"
	if got != want {
		t.Fatalf("dsn: got=%q want=%q", got, want)
	}
}
