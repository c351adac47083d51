package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/respond"
)

// Pinger reports store liveness for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Logger      *slog.Logger
	Tokens      middleware.TokenParser
	Accounts    middleware.AccountFinder
	DB          Pinger
	CORSOrigins []string
	Metrics     bool
	// AuthLimiter throttles signup and token exchange; nil disables it.
	AuthLimiter *middleware.IPRateLimiter

	Auth       *AuthHandler
	Users      *UserHandler
	Categories *CategoryHandler
	Genres     *GenreHandler
	Titles     *TitleHandler
	Reviews    *ReviewHandler
	Comments   *CommentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	respond.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics {
		r.Use(middleware.Metrics())
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.GET("/healthz", healthz(cfg.DB))
	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Tokens, cfg.Accounts))

	authGroup := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		authGroup.Use(middleware.RateLimit(cfg.AuthLimiter))
	}
	authGroup.POST("/signup/", cfg.Auth.Signup)
	authGroup.POST("/token/", cfg.Auth.Token)

	api.GET("/categories/", cfg.Categories.List)
	api.POST("/categories/", cfg.Categories.Create)
	api.DELETE("/categories/:slug/", cfg.Categories.Delete)

	api.GET("/genres/", cfg.Genres.List)
	api.POST("/genres/", cfg.Genres.Create)
	api.DELETE("/genres/:slug/", cfg.Genres.Delete)

	titles := api.Group("/titles")
	titles.GET("/", cfg.Titles.List)
	titles.POST("/", cfg.Titles.Create)
	titles.GET("/:title_id/", cfg.Titles.Get)
	titles.PATCH("/:title_id/", cfg.Titles.Update)
	titles.DELETE("/:title_id/", cfg.Titles.Delete)

	reviews := titles.Group("/:title_id/reviews")
	reviews.GET("/", cfg.Reviews.List)
	reviews.POST("/", cfg.Reviews.Create)
	reviews.GET("/:review_id/", cfg.Reviews.Get)
	reviews.PATCH("/:review_id/", cfg.Reviews.Update)
	reviews.DELETE("/:review_id/", cfg.Reviews.Delete)

	comments := reviews.Group("/:review_id/comments")
	comments.GET("/", cfg.Comments.List)
	comments.POST("/", cfg.Comments.Create)
	comments.GET("/:comment_id/", cfg.Comments.Get)
	comments.PATCH("/:comment_id/", cfg.Comments.Update)
	comments.DELETE("/:comment_id/", cfg.Comments.Delete)

	// every user route needs a caller; the service decides the rest
	users := api.Group("/users", middleware.RequireAuthenticated())
	users.GET("/", cfg.Users.List)
	users.POST("/", cfg.Users.Create)
	users.GET("/:username/", cfg.Users.Get)
	users.PATCH("/:username/", cfg.Users.Update)
	users.DELETE("/:username/", cfg.Users.Delete)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
