package db

import (
	"path/filepath"
	"testing"

	"github.com/5399ai/backend/internal/models"
)

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestMigrateSeedsSessionState(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var state models.SessionState
	if errFind := conn.First(&state, models.SessionStateID).Error; errFind != nil {
		t.Fatalf("session state row missing after migrate: %v", errFind)
	}
	if state.TrialExpiry != nil {
		t.Fatalf("fresh session state must carry no trial, got expiry %v", state.TrialExpiry)
	}

	// Migrate must be idempotent.
	if errAgain := Migrate(conn); errAgain != nil {
		t.Fatalf("second migrate: %v", errAgain)
	}
	var count int64
	if errCount := conn.Model(&models.SessionState{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count session states: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected exactly one session state row, got %d", count)
	}
}
