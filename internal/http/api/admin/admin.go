// Package admin registers the operator API routes.
package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/5399ai/backend/internal/account"
	"github.com/5399ai/backend/internal/config"
	"github.com/5399ai/backend/internal/credits"
	"github.com/5399ai/backend/internal/http/api/admin/handlers"
	"github.com/5399ai/backend/internal/models"
	"github.com/5399ai/backend/internal/security"
	"github.com/5399ai/backend/internal/usage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers operator routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWT, store *account.Store, ledger *credits.Ledger, recorder *usage.Recorder, now func() time.Time) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg, now)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	userHandler := handlers.NewUserHandler(db, store, ledger)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.GET("/users/:id/credits", userHandler.Credits)
	authed.PUT("/users/:id/plan", userHandler.UpdatePlan)
	authed.GET("/payments", userHandler.Receipts)

	usageHandler := handlers.NewUsageHandler(recorder)
	authed.GET("/usage", usageHandler.List)
}

// adminAuthMiddleware validates operator tokens and loads operator context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Next()
	}
}
