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

	"github.com/escape-finder/api-go/captcha"
	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/middleware"
	"github.com/escape-finder/api-go/routes"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg := config.Load()
	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.RegisterValidators()

	// Initialize database
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	rdb := config.NewRedisClient(logger)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, m, logger)

	var verifier captcha.Verifier = captcha.NewTurnstile(cfg.CaptchaSecret, cfg.CaptchaVerifyURL, 5*time.Second, logger)
	if cfg.CaptchaDisabled {
		logger.Warn("captcha verification disabled")
		verifier = captcha.Noop{}
	}

	var publisher events.Publisher = events.NewLocal(cache, logger, m)
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL)
		go events.NewConsumer(cfg.AMQPURL, cache, logger, m).Run(ctx)
	} else {
		logger.Info("AMQP not configured, handling events in process")
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.Metrics(m),
		middleware.CORS(cfg.CORSOrigins),
	)

	// Initialize routes
	routes.SetupRoutes(r, routes.Deps{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Cache:     cache,
		Catalog:   catalog.MustLoad(),
		CMS:       content.NewClient(cfg.CMSURL, cfg.CMSToken, cfg.CMSTimeout, logger),
		Captcha:   verifier,
		Publisher: publisher,
		Metrics:   m,
		Google:    config.NewGoogleConfig(),
		R2:        config.GetR2Config(),
		Log:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
