package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-platform/internal/config"
	"github.com/iliyamo/course-platform/internal/database"
	"github.com/iliyamo/course-platform/internal/handler"
	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/queue"
	"github.com/iliyamo/course-platform/internal/repository"
	"github.com/iliyamo/course-platform/internal/router"
	"github.com/iliyamo/course-platform/internal/service"
	"github.com/iliyamo/course-platform/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis is optional; without it rate limiting and caching pass through.
	var rdb *redis.Client
	if client, err := config.NewRedisClient(ctx); err != nil {
		logger.Warn(ctx, "redis unavailable, rate limiting and cache disabled", "error", err.Error())
	} else {
		rdb = client
		defer rdb.Close()
	}

	mailCfg := config.LoadMailQueueConfig()
	var mailer service.Mailer = service.NewLogMailer(logger, cfg.FrontendURL)
	if mailCfg.Enabled {
		mailer = service.NewMailPublisher(mailCfg.URL, mailCfg.Queue, cfg.FrontendURL)
		if mailCfg.RunConsumer {
			consumer := &queue.MailConsumer{
				URL:        mailCfg.URL,
				Queue:      mailCfg.Queue,
				OutboxPath: mailCfg.OutboxPath,
				Log:        logger.With("component", "mail_consumer"),
			}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error(ctx, "mail consumer stopped", "error", err.Error())
				}
			}()
		}
	}

	users := repository.NewUserRepo(db)
	auth := service.NewAuthService(users, repository.NewTokenRepo(db), mailer, logger, service.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	})
	catalog := service.NewCatalogService(
		repository.NewCourseRepo(db),
		repository.NewChapterRepo(db),
		repository.NewCategoryRepo(db),
		repository.NewLevelRepo(db),
	)

	var thumbs *handler.ThumbnailHandler
	if s3Cfg := config.LoadS3Config(); s3Cfg.Enabled() {
		presigner, err := storage.NewThumbnailPresigner(ctx, s3Cfg)
		if err != nil {
			log.Fatalf("s3 config: %v", err)
		}
		thumbs = handler.NewThumbnailHandler(catalog, presigner)
	}

	e := router.New(router.Deps{
		Log:         logger,
		FrontendURL: cfg.FrontendURL,
		BodyLimit:   cfg.BodyLimit,
		JWTSecret:   cfg.JWTSecret,
		Users:       users,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
		Auth: handler.NewAuthHandler(auth, handler.CookieConfig{
			Secure:     cfg.IsProduction(),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		}),
		Catalog:    handler.NewCatalogHandler(catalog),
		Thumbnails: thumbs,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", "error", err.Error())
	}
}
