package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/phillip/college-events-go/config"
	"github.com/phillip/college-events-go/controllers"
	"github.com/phillip/college-events-go/logger"
	"github.com/phillip/college-events-go/routes"
	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/store"
	"github.com/phillip/college-events-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console")
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := cfg.Connect(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()
	log.Info().Str("db", cfg.DBName).Msg("connected to mongodb")

	db := cfg.Database()
	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}

	images, uploadsDir, err := imageStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("image store")
	}

	var notifier services.Notifier
	if mailer := utils.NewMailer(cfg.ZeptoAPIURL, cfg.ZeptoAPIKey, cfg.EmailFrom); mailer.Configured() {
		notifier = mailer
	}

	users := store.NewUserStore(db)
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	deps := &controllers.Deps{
		Events:         services.NewEventService(store.NewEventStore(db), users),
		Auth:           services.NewAuthService(users, tokens, notifier),
		Images:         images,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Development:    cfg.IsDevelopment(),
		HealthCheck: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: routes.New(cfg, deps, routes.Options{
			Tokens:     tokens,
			Registry:   reg,
			UploadsDir: uploadsDir,
		}),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server crashed")
		return
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
	}
	log.Info().Msg("shutdown complete")
}

// imageStore picks Cloudinary when configured, local disk otherwise. The
// returned directory is non-empty only for disk storage.
func imageStore(cfg *config.Config) (utils.ImageStore, string, error) {
	if cfg.CloudinaryEnabled() {
		s, err := utils.NewCloudinaryImageStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "events")
		return s, "", err
	}
	s, err := utils.NewDiskImageStore(cfg.UploadsDir, "/uploads")
	if err != nil {
		return nil, "", err
	}
	return s, cfg.UploadsDir, nil
}
