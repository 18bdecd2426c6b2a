package trial

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/5399ai/backend/internal/db"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "trial.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

var start = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)

func TestStartAndGet(t *testing.T) {
	m := NewManager(testDB(t), func() time.Time { return start })
	ctx := context.Background()

	rec, err := m.Start(ctx, plans.Gratuito)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !rec.Expiry.Equal(start.Add(time.Hour)) {
		t.Fatalf("expiry=%v, want start+1h", rec.Expiry)
	}

	loaded, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a stored record")
	}
	if loaded.OriginalPlan != plans.Gratuito || !loaded.Expiry.Equal(rec.Expiry) {
		t.Fatalf("loaded=%+v, want %+v", loaded, rec)
	}
}

func TestStartOverwritesWithoutStacking(t *testing.T) {
	now := start
	m := NewManager(testDB(t), func() time.Time { return now })
	ctx := context.Background()

	if _, err := m.Start(ctx, plans.Gratuito); err != nil {
		t.Fatalf("first start: %v", err)
	}

	now = start.Add(30 * time.Minute)
	second, err := m.Start(ctx, plans.PRO)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	loaded, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.OriginalPlan != plans.PRO {
		t.Fatalf("originalPlan=%s, want the newer record", loaded.OriginalPlan)
	}
	if !loaded.Expiry.Equal(second.Expiry) {
		t.Fatalf("expiry=%v, want the newer expiry %v", loaded.Expiry, second.Expiry)
	}
}

func TestClear(t *testing.T) {
	m := NewManager(testDB(t), func() time.Time { return start })
	ctx := context.Background()

	if _, err := m.Start(ctx, plans.VIP); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	loaded, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected no record after clear, got %+v", loaded)
	}
	// Clearing an empty state is a no-op.
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestRecordExpiry(t *testing.T) {
	rec := Record{OriginalPlan: plans.Gratuito, Expiry: start.Add(time.Hour)}

	if rec.Expired(start.Add(59 * time.Minute)) {
		t.Fatal("trial must not expire before its end")
	}
	if !rec.Expired(start.Add(time.Hour + time.Second)) {
		t.Fatal("trial must expire after its end")
	}
	if remaining := rec.Remaining(start.Add(45 * time.Minute)); remaining != 15*time.Minute {
		t.Fatalf("remaining=%s, want 15m", remaining)
	}
}
