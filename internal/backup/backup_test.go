package backup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/db"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/plans"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "backup.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedAccount(t *testing.T, conn *gorm.DB, id, email string, plan plans.Name, secret string) {
	t.Helper()
	if errUser := conn.Create(&models.User{ID: id, Email: email, Plan: plan}).Error; errUser != nil {
		t.Fatalf("seed user: %v", errUser)
	}
	if errSecret := conn.Create(&models.UserSecret{UserID: id, Secret: secret}).Error; errSecret != nil {
		t.Fatalf("seed secret: %v", errSecret)
	}
}

func TestExportRoundTrip(t *testing.T) {
	source := testDB(t)
	ctx := context.Background()

	reset := time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)
	seedAccount(t, source, "id-1", "a@x.com", plans.PRO, "segredo")
	entry := models.UserCredits{UserID: "id-1", Video: 7, Audio: 20, LastReset: reset}
	if errSeed := source.Create(&entry).Error; errSeed != nil {
		t.Fatalf("seed credits: %v", errSeed)
	}

	doc, err := NewCodec(source).Export(ctx, "id-1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc == nil {
		t.Fatal("expected a document")
	}
	if doc.PasswordHash != "segredo" {
		t.Fatalf("password_hash=%q, want the raw secret", doc.PasswordHash)
	}

	// The file format survives an encode/decode cycle.
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Restore into an empty store reconstructs the account in full.
	target := testDB(t)
	restored, err := NewCodec(target).Restore(ctx, decoded)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID != "id-1" || restored.Email != "a@x.com" || restored.Plan != plans.PRO {
		t.Fatalf("restored=%+v", restored)
	}

	var secret models.UserSecret
	if errFind := target.First(&secret, "user_id = ?", "id-1").Error; errFind != nil {
		t.Fatalf("restored secret missing: %v", errFind)
	}
	if secret.Secret != "segredo" {
		t.Fatalf("restored secret=%q, want %q", secret.Secret, "segredo")
	}

	var credits models.UserCredits
	if errFind := target.First(&credits, "user_id = ?", "id-1").Error; errFind != nil {
		t.Fatalf("restored credits missing: %v", errFind)
	}
	if credits.Video != 7 || credits.Audio != 20 || !credits.LastReset.Equal(reset) {
		t.Fatalf("restored credits=%+v", credits)
	}

	// Restore logs the account in.
	current, err := account.SessionUser(ctx, target)
	if err != nil {
		t.Fatalf("session user: %v", err)
	}
	if current == nil || current.ID != "id-1" {
		t.Fatalf("expected restored account as session identity, got %+v", current)
	}
}

func TestExportMissingUserOrSecret(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	codec := NewCodec(conn)

	doc, err := codec.Export(ctx, "ghost")
	if err != nil {
		t.Fatalf("export unknown user: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document for unknown user, got %+v", doc)
	}

	// A user row without its secret is incomplete and must not export.
	if errUser := conn.Create(&models.User{ID: "id-1", Email: "a@x.com", Plan: plans.Gratuito}).Error; errUser != nil {
		t.Fatalf("seed user: %v", errUser)
	}
	doc, err = codec.Export(ctx, "id-1")
	if err != nil {
		t.Fatalf("export secretless user: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document without a secret, got %+v", doc)
	}
}

func TestDecodeToleratesBadLastReset(t *testing.T) {
	// Old or hand-edited exports may carry a broken lastReset; the entry
	// survives and simply reads as stale on the next ledger load.
	cases := []string{
		`{"user":{"id":"id-1","email":"a@x.com","plan":"Gratuito"},"password_hash":"segredo","credits":{"video":7,"audio":20,"lastReset":"ontem"}}`,
		`{"user":{"id":"id-1","email":"a@x.com","plan":"Gratuito"},"password_hash":"segredo","credits":{"video":7,"audio":20}}`,
	}
	for i, raw := range cases {
		doc, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if doc.Credits == nil || doc.Credits.Video != 7 || doc.Credits.Audio != 20 {
			t.Fatalf("case %d: credits lost: %+v", i, doc.Credits)
		}
		if !doc.Credits.LastReset.IsZero() {
			t.Fatalf("case %d: bad lastReset must degrade to the zero time, got %v", i, doc.Credits.LastReset)
		}
	}
}

func TestRestoreRejectsIncompleteDocuments(t *testing.T) {
	codec := NewCodec(testDB(t))
	ctx := context.Background()

	cases := []*Document{
		nil,
		{},
		{User: &models.User{ID: "id-1", Email: "a@x.com", Plan: plans.Gratuito}},
		{PasswordHash: "segredo"},
	}
	for i, doc := range cases {
		if _, err := codec.Restore(ctx, doc); !errors.Is(err, ErrInvalidBackup) {
			t.Fatalf("case %d: expected ErrInvalidBackup, got %v", i, err)
		}
	}
}

func TestRestoreEmailConflict(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	seedAccount(t, conn, "other-id", "a@x.com", plans.Gratuito, "outro")

	doc := &Document{
		User:         &models.User{ID: "id-1", Email: "a@x.com", Plan: plans.PRO},
		PasswordHash: "segredo",
	}
	if _, err := NewCodec(conn).Restore(ctx, doc); !errors.Is(err, ErrAccountConflict) {
		t.Fatalf("expected ErrAccountConflict, got %v", err)
	}
}

func TestRestoreOverwritesSameAccount(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	seedAccount(t, conn, "id-1", "a@x.com", plans.Gratuito, "antigo")

	stale := models.UserCredits{UserID: "id-1", Video: 1, Audio: 1, LastReset: time.Now().UTC()}
	if errSeed := conn.Create(&stale).Error; errSeed != nil {
		t.Fatalf("seed credits: %v", errSeed)
	}

	reset := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	doc := &Document{
		User:         &models.User{ID: "id-1", Email: "a@x.com", Plan: plans.VIP},
		PasswordHash: "novo",
		Credits:      &models.UserCredits{Video: 30, Audio: 30, LastReset: reset},
	}
	restored, err := NewCodec(conn).Restore(ctx, doc)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Plan != plans.VIP {
		t.Fatalf("restored plan=%s, want VIP", restored.Plan)
	}

	var secret models.UserSecret
	if errFind := conn.First(&secret, "user_id = ?", "id-1").Error; errFind != nil {
		t.Fatalf("secret: %v", errFind)
	}
	if secret.Secret != "novo" {
		t.Fatalf("secret=%q, want overwritten value", secret.Secret)
	}

	// The ledger entry is a full overwrite, not a merge.
	var credits models.UserCredits
	if errFind := conn.First(&credits, "user_id = ?", "id-1").Error; errFind != nil {
		t.Fatalf("credits: %v", errFind)
	}
	if credits.Video != 30 || credits.Audio != 30 || !credits.LastReset.Equal(reset) {
		t.Fatalf("credits=%+v, want the backup's values", credits)
	}
}
