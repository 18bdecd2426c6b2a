// Package front registers the browser-facing API routes.
package front

import (
	"net/http"
	"strings"
	"time"

	"github.com/5399ai/backend/internal/config"
	"github.com/5399ai/backend/internal/genai"
	"github.com/5399ai/backend/internal/http/api/front/handlers"
	"github.com/5399ai/backend/internal/ratelimit"
	"github.com/5399ai/backend/internal/security"
	"github.com/5399ai/backend/internal/session"
	"github.com/5399ai/backend/internal/usage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the front routes need.
type Deps struct {
	DB         *gorm.DB
	Session    *session.Session
	Gateway    *genai.Gateway
	Limiter    *ratelimit.Manager
	Recorder   *usage.Recorder
	JWT        config.JWT
	UploadsDir string
	Now        func() time.Time
}

// RegisterFrontRoutes registers the browser-facing routes, middleware, and
// handlers.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.Session == nil {
		return
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	api := r.Group("/v0")

	accountHandler := handlers.NewAccountHandler(deps.Session, deps.JWT, deps.Now)
	api.POST("/auth/register", accountHandler.Register)
	api.POST("/auth/login", accountHandler.Login)
	api.POST("/auth/recover", accountHandler.Recover)

	planHandler := handlers.NewPlanFrontHandler(deps.Now)
	api.GET("/plans", planHandler.List)

	backupHandler := handlers.NewBackupHandler(deps.Session, deps.JWT, deps.Now)
	// Restore works logged out: it is how an account moves to a new browser.
	api.POST("/backup/restore", backupHandler.Restore)

	authed := api.Group("")
	authed.Use(userAuthMiddleware(deps.Session, deps.JWT))

	authed.POST("/auth/logout", accountHandler.Logout)
	authed.GET("/auth/me", accountHandler.Me)

	creditsHandler := handlers.NewCreditsHandler(deps.Session)
	authed.GET("/credits", creditsHandler.Get)

	trialHandler := handlers.NewTrialHandler(deps.Session, deps.Now)
	authed.POST("/trial", trialHandler.Start)
	authed.GET("/trial", trialHandler.Status)

	authed.GET("/backup", backupHandler.Download)

	paymentHandler := handlers.NewPaymentHandler(deps.DB, deps.Session, deps.UploadsDir, deps.Now)
	authed.POST("/payments", paymentHandler.Create)
	authed.GET("/payments", paymentHandler.List)

	generate := authed.Group("/generate")
	generate.Use(rateLimitMiddleware(deps.Limiter))

	generateHandler := handlers.NewGenerateHandler(deps.Gateway, deps.Recorder)
	generate.POST("/chat", generateHandler.Chat)
	generate.POST("/image", generateHandler.Image)
	generate.POST("/video", generateHandler.Video)
	generate.POST("/audio", generateHandler.Audio)
	generate.POST("/study", generateHandler.Study)
	generate.POST("/creator", generateHandler.Creator)
}

// userAuthMiddleware validates session tokens and checks they still name
// the session's current identity.
func userAuthMiddleware(sess *session.Session, jwtCfg config.JWT) gin.HandlerFunc {
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

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user := sess.User()
		if user == nil || user.ID != claims.UserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session closed"})
			return
		}

		handlers.SetUserID(c, user.ID)
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-account cap on generation calls.
func rateLimitMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := ratelimit.KeyForUser(handlers.GetUserID(c))
		result, errAllow := limiter.Allow(c.Request.Context(), key)
		if errAllow != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
