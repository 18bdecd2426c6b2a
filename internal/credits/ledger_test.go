package credits

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/5399ai/backend/internal/db"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "credits.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var noon = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.Local)

func TestLoadInitializesFullAllowance(t *testing.T) {
	conn := testDB(t)
	ledger := NewLedger(conn, fixedClock(noon))
	user := &models.User{ID: "u1", Email: "a@x.com", Plan: plans.Gratuito}

	entry, err := ledger.Load(context.Background(), user)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	allowance := plans.AllowanceFor(plans.Gratuito)
	if entry.Video != allowance.Video || entry.Audio != allowance.Audio {
		t.Fatalf("entry=%+v, want full allowance %+v", entry, allowance)
	}
	if !entry.LastReset.Equal(noon) {
		t.Fatalf("lastReset=%v, want %v", entry.LastReset, noon)
	}
}

func TestLoadResetsStaleEntry(t *testing.T) {
	conn := testDB(t)
	user := &models.User{ID: "u1", Email: "a@x.com", Plan: plans.PRO}

	yesterday := noon.AddDate(0, 0, -1)
	stale := models.UserCredits{UserID: "u1", Video: 0, Audio: 3, LastReset: yesterday}
	if errSeed := conn.Create(&stale).Error; errSeed != nil {
		t.Fatalf("seed stale entry: %v", errSeed)
	}

	ledger := NewLedger(conn, fixedClock(noon))
	entry, err := ledger.Load(context.Background(), user)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	allowance := plans.AllowanceFor(plans.PRO)
	if entry.Video != allowance.Video || entry.Audio != allowance.Audio {
		t.Fatalf("stale entry not reset: %+v", entry)
	}
	if !sameDay(entry.LastReset, noon) {
		t.Fatalf("lastReset=%v, want today", entry.LastReset)
	}
}

func TestLoadKeepsSameDayEntry(t *testing.T) {
	conn := testDB(t)
	user := &models.User{ID: "u1", Email: "a@x.com", Plan: plans.PRO}

	morning := time.Date(2025, time.June, 4, 8, 0, 0, 0, time.Local)
	seeded := models.UserCredits{UserID: "u1", Video: 5, Audio: 2, LastReset: morning}
	if errSeed := conn.Create(&seeded).Error; errSeed != nil {
		t.Fatalf("seed entry: %v", errSeed)
	}

	ledger := NewLedger(conn, fixedClock(noon))
	entry, err := ledger.Load(context.Background(), user)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry.Video != 5 || entry.Audio != 2 {
		t.Fatalf("same-day entry was reset: %+v", entry)
	}
}

func TestUseDecrementsUntilExhausted(t *testing.T) {
	conn := testDB(t)
	user := &models.User{ID: "u1", Email: "a@x.com", Plan: plans.Gratuito}

	seeded := models.UserCredits{UserID: "u1", Video: 1, Audio: 0, LastReset: noon}
	if errSeed := conn.Create(&seeded).Error; errSeed != nil {
		t.Fatalf("seed entry: %v", errSeed)
	}
	ledger := NewLedger(conn, fixedClock(noon))
	ctx := context.Background()

	ok, err := ledger.Use(ctx, user, Video)
	if err != nil || !ok {
		t.Fatalf("first use: ok=%v err=%v, want success", ok, err)
	}
	ok, err = ledger.Use(ctx, user, Video)
	if err != nil {
		t.Fatalf("second use: %v", err)
	}
	if ok {
		t.Fatal("expected exhaustion after the last credit")
	}

	// Audio was already exhausted.
	ok, err = ledger.Use(ctx, user, Audio)
	if err != nil {
		t.Fatalf("audio use: %v", err)
	}
	if ok {
		t.Fatal("expected audio exhaustion")
	}
}

func TestUseUnlimitedNeverTouchesLedger(t *testing.T) {
	conn := testDB(t)
	user := &models.User{ID: "u1", Email: "a@x.com", Plan: plans.PREMIUM}
	ledger := NewLedger(conn, fixedClock(noon))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := ledger.Use(ctx, user, Video)
		if err != nil || !ok {
			t.Fatalf("unlimited use %d: ok=%v err=%v", i, ok, err)
		}
	}

	entry, err := ledger.Entry(ctx, "u1")
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry != nil {
		t.Fatalf("unlimited plan must not create ledger rows, got %+v", entry)
	}
}

func TestUseFailsClosed(t *testing.T) {
	conn := testDB(t)
	ledger := NewLedger(conn, fixedClock(noon))
	ctx := context.Background()

	// No user.
	if ok, err := ledger.Use(ctx, nil, Video); err != nil || ok {
		t.Fatalf("nil user: ok=%v err=%v, want closed", ok, err)
	}
	// User without a loaded entry.
	user := &models.User{ID: "ghost", Email: "g@x.com", Plan: plans.PRO}
	if ok, err := ledger.Use(ctx, user, Video); err != nil || ok {
		t.Fatalf("missing entry: ok=%v err=%v, want closed", ok, err)
	}
	// Unknown resource.
	if ok, err := ledger.Use(ctx, user, Resource("imagem")); err != nil || ok {
		t.Fatalf("unknown resource: ok=%v err=%v, want closed", ok, err)
	}
}

func TestSameDayHonorsLocation(t *testing.T) {
	// 23:30 and next-day 00:30 in the same zone are different days.
	late := time.Date(2025, time.June, 4, 23, 30, 0, 0, time.Local)
	early := time.Date(2025, time.June, 5, 0, 30, 0, 0, time.Local)
	if sameDay(late, early) {
		t.Fatal("midnight crossing must count as a new day")
	}
	if !sameDay(late, late.Add(10*time.Minute)) {
		t.Fatal("same evening must be the same day")
	}
}
