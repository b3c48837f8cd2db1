// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/pkg/db"
)

// InitTestDB opens a private in-memory sqlite database with foreign keys on
// and all tables migrated.
func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	if err := db.Migrate(ctx, gdb, db.DriverSQLite, ""); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return gdb
}
