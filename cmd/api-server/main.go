package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"yamdb/database"
	"yamdb/internal/cache"
	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/rbac"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api_server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("database_close_failed", "error", err.Error())
		}
	}()
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ratingCache := cache.NewRatingCache(nil, cfg.CacheTTL)
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			// ratings fall back to the database
			logger.Warn("redis_unavailable", "error", err.Error())
		} else {
			defer rdb.Close()
			ratingCache = cache.NewRatingCache(rdb, cfg.CacheTTL)
			logger.Info("redis_connected")
		}
	}

	notifier := mailer.NewNotifier(newMailer(cfg, logger), notifierConfig(cfg), logger)

	policy, err := rbac.NewPolicy(logger)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.JWTIssuer)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(routerConfig(cfg, logger, db, sqlDB.PingContext, tokens, policy, ratingCache, notifier))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting_api_server", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received_shutdown_signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// let in-flight confirmation mails finish
		if err := notifier.Wait(shutdownCtx); err != nil {
			logger.Warn("pending_mail_dropped", "error", err.Error())
		}
		logger.Info("server_stopped_gracefully")
		return nil
	})
	return g.Wait()
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func routerConfig(
	cfg *config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	ping pingFunc,
	tokens *auth.TokenIssuer,
	policy *rbac.Policy,
	ratingCache *cache.RatingCache,
	notifier *mailer.Notifier,
) handler.RouterConfig {
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepo(db)
	genres := repository.NewGenreRepo(db)
	titles := repository.NewTitleRepo(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	rc := handler.RouterConfig{
		Logger:      logger,
		Tokens:      tokens,
		Accounts:    users,
		DB:          ping,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     cfg.PrometheusEnabled,

		Auth:       handler.NewAuthHandler(service.NewAuthService(users, tokens, notifier, logger)),
		Users:      handler.NewUserHandler(service.NewUserService(users, reviews, ratingCache, policy, logger)),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(categories, policy)),
		Genres:     handler.NewGenreHandler(service.NewGenreService(genres, policy)),
		Titles:     handler.NewTitleHandler(service.NewTitleService(titles, categories, genres, reviews, ratingCache, policy, logger)),
		Reviews:    handler.NewReviewHandler(service.NewReviewService(reviews, titles, ratingCache, policy, logger)),
		Comments:   handler.NewCommentHandler(service.NewCommentService(comments, reviews, policy)),
	}
	if cfg.AuthRateLimit > 0 {
		rc.AuthLimiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	}
	return rc
}

func newMailer(cfg *config.Config, logger *slog.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("smtp_not_configured", "fallback", "log")
		return mailer.NewLogMailer(logger)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}

func notifierConfig(cfg *config.Config) mailer.NotifierConfig {
	nc := mailer.DefaultNotifierConfig()
	if cfg.MailTimeout > 0 {
		nc.SendTimeout = cfg.MailTimeout
	}
	return nc
}
