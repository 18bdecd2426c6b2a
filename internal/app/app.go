// Package app wires configuration, storage, the session orchestrator and
// the HTTP surfaces into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/backup"
	"github.com/5399ai/backend/internal/config"
	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/db"
	"github.com/5399ai/backend/internal/genai"
	"github.com/5399ai/backend/internal/http/api/admin"
	"github.com/5399ai/backend/internal/http/api/front"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/ratelimit"
	"github.com/5399ai/backend/internal/security"
	"github.com/5399ai/backend/internal/session"
	"github.com/5399ai/backend/internal/trial"
	"github.com/5399ai/backend/internal/usage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(cfg config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// BuildEngine assembles the gin engine with all routes wired. Split from
// RunServer so tests can drive the full surface in-process.
func BuildEngine(cfg config.Config, conn *gorm.DB) (*gin.Engine, *session.Session) {
	store := account.NewStore(conn, cfg.Latency, nil)
	ledger := credits.NewLedger(conn, nil)
	trials := trial.NewManager(conn, nil)
	codec := backup.NewCodec(conn)
	sess := session.New(store, ledger, trials, codec, nil)

	limiter := ratelimit.NewManager(func() config.RateLimit { return cfg.RateLimit }, nil, nil)
	gateway := genai.NewGateway(sess, genai.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey))
	recorder := usage.NewRecorder(conn, nil)

	engine := gin.New()
	engine.Use(gin.Recovery())

	front.RegisterFrontRoutes(engine, front.Deps{
		DB:         conn,
		Session:    sess,
		Gateway:    gateway,
		Limiter:    limiter,
		Recorder:   recorder,
		JWT:        cfg.JWT,
		UploadsDir: cfg.UploadsDir,
	})
	admin.RegisterAdminRoutes(engine, conn, cfg.JWT, store, ledger, recorder, nil)

	return engine, sess
}

// RunServer boots the API server and blocks until ctx is cancelled or the
// listener fails.
func RunServer(ctx context.Context, cfg config.Config, port int) error {
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := SeedAdmin(conn, cfg.Admin); errSeed != nil {
		return errSeed
	}

	engine, sess := BuildEngine(cfg, conn)
	defer sess.Close()

	// Persisted identity survives restarts; reconcile it before serving.
	if errReload := sess.Reload(ctx); errReload != nil {
		return fmt.Errorf("reload session: %w", errReload)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		log.Info("server stopped")
		return nil
	case errServe := <-errCh:
		return errServe
	}
}

// SeedAdmin creates the configured operator account when it does not exist
// yet. An empty configuration seeds nothing.
func SeedAdmin(conn *gorm.DB, adminCfg config.Admin) error {
	username := strings.TrimSpace(adminCfg.Username)
	if username == "" || adminCfg.Password == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.Admin{}).
		Where("username = ?", username).
		Count(&count).Error; errCount != nil {
		return fmt.Errorf("count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(adminCfg.Password)
	if errHash != nil {
		return errHash
	}
	if errCreate := conn.Create(&models.Admin{Username: username, Password: hash}).Error; errCreate != nil {
		return fmt.Errorf("seed admin: %w", errCreate)
	}
	log.WithField("username", username).Info("operator account seeded")
	return nil
}
