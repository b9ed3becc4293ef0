// Package testutil holds fixtures shared by package tests
package testutil

import (
	"fmt"
	"testing"

	"wallet-backend/internal/db"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory sqlite database private to the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// one connection keeps the shared-cache database alive and avoids table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return database
}
