package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mr-Documents/SpaceThreadsBlog/internal/config"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/service"
	"github.com/Mr-Documents/SpaceThreadsBlog/internal/session"
)

const (
	sessionKey         = "session"
	sessionUnavailable = "session_unavailable"
)

var startedAt = time.Now()

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.CORSOrigin))
	router.Use(sessionLoader(services.Auth, cfg.Session, log))

	cookies := newCookieJar(cfg.Session)

	// Handlers
	authHandler := NewAuthHandler(services, cookies, log)
	postHandler := NewPostHandler(services, cookies, log)
	commentHandler := NewCommentHandler(services, cookies, log)
	previewHandler := NewPreviewHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services, log))

	// Server-rendered thread fragment
	router.GET("/posts/:id/comments", commentHandler.Fragment)

	// API v1
	v1 := router.Group("/v1")
	{
		v1.POST("/preview", previewHandler.Preview)
		v1.POST("/format", previewHandler.Format)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email", authHandler.VerifyEmail)
			auth.GET("/profile", requireSession(), authHandler.Profile)
			auth.POST("/change-password", requireSession(), authHandler.ChangePassword)
		}

		feed := v1.Group("/feed")
		{
			feed.GET("", postHandler.Feed)
			feed.GET("/search", postHandler.Search)
			feed.GET("/popular", postHandler.Popular)
			feed.GET("/recent", postHandler.Recent)
		}

		v1.GET("/slugs/:slug", postHandler.GetBySlug)
		v1.GET("/profiles/:username", postHandler.Profile)
		v1.GET("/dashboard", requireSession(), postHandler.Dashboard)

		posts := v1.Group("/posts")
		{
			posts.POST("", requireSession(), postHandler.Create)
			posts.GET("/:id", postHandler.Get)
			posts.PUT("/:id", requireSession(), postHandler.Update)
			posts.DELETE("/:id", requireSession(), postHandler.Delete)
			posts.POST("/:id/like", requireSession(), postHandler.Like)

			comments := posts.Group("/:id/comments")
			{
				comments.GET("", commentHandler.List)
				comments.POST("", requireSession(), commentHandler.Submit)
				comments.PUT("/reply", requireSession(), commentHandler.StartReply)
				comments.DELETE("/reply", requireSession(), commentHandler.CancelReply)
				comments.POST("/:commentId/edit", requireSession(), commentHandler.BeginEdit)
				comments.DELETE("/:commentId/edit", requireSession(), commentHandler.CancelEdit)
				comments.PUT("/:commentId", requireSession(), commentHandler.Save)
				comments.DELETE("/:commentId", requireSession(), commentHandler.Delete)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "spacethreads-gateway",
	})
}

// metricsHandler returns session and uptime metrics
func metricsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := services.Auth.ActiveSessions(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to count sessions")
			active = -1
		}

		c.JSON(http.StatusOK, gin.H{
			"sessions": gin.H{
				"active": active,
			},
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"timestamp":      time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("username", currentSession(c).Username()).
			Msg("Request completed")
	}
}

// corsMiddleware allows the browser app at origin to call the gateway with cookies.
// An empty origin disables CORS headers.
func corsMiddleware(origin string) gin.HandlerFunc {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return func(c *gin.Context) { c.Next() }
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}

// sessionLoader attaches the session named by the cookie, if it is still live
func sessionLoader(auth service.AuthService, cfg config.SessionConfig, log zerolog.Logger) gin.HandlerFunc {
	cookies := newCookieJar(cfg)
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		// A store failure says nothing about the session, so the cookie is kept and
		// the request goes on anonymously
		sess, err := auth.Session(c.Request.Context(), id)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("Failed to load session")
			c.Set(sessionUnavailable, true)
		case sess == nil:
			cookies.clear(c)
		default:
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// requireSession rejects requests without a signed-in session
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(sessionUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Sessions are temporarily unavailable. Please try again."})
			return
		}
		if currentSession(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in to continue"})
			return
		}
		c.Next()
	}
}

// currentSession returns the session of the request, nil for anonymous requests
func currentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// cookieJar writes the session cookie
type cookieJar struct {
	name   string
	secure bool
}

func newCookieJar(cfg config.SessionConfig) cookieJar {
	return cookieJar{name: cfg.CookieName, secure: cfg.CookieSecure}
}

func (j cookieJar) set(c *gin.Context, sess *session.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(j.name, sess.ID, maxAge, "/", "", j.secure, true)
}

func (j cookieJar) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(j.name, "", -1, "/", "", j.secure, true)
}
