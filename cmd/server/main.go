// Package main runs the webinar registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nmrschool/webinar-backend/config"
	"github.com/nmrschool/webinar-backend/internal/calendar"
	"github.com/nmrschool/webinar-backend/internal/diag"
	"github.com/nmrschool/webinar-backend/internal/mailer"
	"github.com/nmrschool/webinar-backend/internal/metrics"
	"github.com/nmrschool/webinar-backend/internal/middleware"
	"github.com/nmrschool/webinar-backend/internal/models"
	"github.com/nmrschool/webinar-backend/internal/registrations"
	"github.com/nmrschool/webinar-backend/pkg/database"
	"github.com/nmrschool/webinar-backend/pkg/storage"
)

// routePrefix is the path the original frontend posts to.
const routePrefix = "/nmrschool"

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("record store", zap.Error(err))
	}
	defer closeStore()

	event := models.DefaultEvent()
	cal := calendar.NewBuilder(event)
	icsURL := resolveICSURL(ctx, cfg, cal, logger)

	m := metrics.New(prometheus.NewRegistry())
	backends := buildBackends(cfg.Email, logger)
	dispatcher := mailer.NewDispatcher(backends, m, logger)
	if len(backends) == 0 {
		logger.Warn("no email backend configured; registrations will fail until one is set")
	}

	svc := registrations.NewService(store, dispatcher, cal, registrations.Options{
		Event:        event,
		TemplatePath: cfg.Template.Path,
		Subject:      cfg.Email.Subject,
		Bcc:          cfg.Email.Bcc,
		ICSURL:       icsURL,
		Policy:       registrations.DeliveryPolicy(cfg.Email.DeliveryPolicy),
	}, m, logger)
	regHandler := registrations.NewHandler(svc, store, cal, logger)
	diagHandler := diag.NewHandler(diag.Info{
		TemplatePath:   cfg.Template.Path,
		HasSMTPUser:    cfg.Email.SMTPUser != "",
		HasSMTPPass:    cfg.Email.SMTPPass != "",
		HasBrevoKey:    cfg.Email.HasBrevo(),
		MailFrom:       cfg.Email.FromAddress,
		ICSURL:         cfg.Template.ICSPublicURL,
		Backends:       dispatcher.Backends(),
		DeliveryPolicy: string(svc.Policy()),
		RecordStore:    cfg.Store.Backend,
	})

	router := newRouter(cfg.Server, regHandler, diagHandler, m, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.Strings("backends", dispatcher.Backends()),
			zap.String("record_store", cfg.Store.Backend),
			zap.String("template", cfg.Template.Path),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// openStore returns the configured record store and a func releasing it.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (registrations.Store, func(), error) {
	if cfg.Backend != "postgres" {
		fs := registrations.OpenFileStore(cfg.DataFile, logger)
		return fs, func() {}, nil
	}
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return registrations.NewRepository(pool), pool.Close, nil
}

// resolveICSURL picks the link placed in the email: explicit config, then a
// fresh S3 upload, then the default hosted copy.
func resolveICSURL(ctx context.Context, cfg *config.Config, cal *calendar.Builder, logger *zap.Logger) string {
	if cfg.Template.ICSPublicURL != "" {
		return cfg.Template.ICSPublicURL
	}
	if cfg.AWS.Bucket == "" {
		return config.DefaultICSPublicURL
	}
	s3, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Bucket:          cfg.AWS.Bucket,
		CalendarKey:     cfg.AWS.CalendarKey,
	}, logger)
	if err != nil {
		logger.Warn("s3 disabled", zap.Error(err))
		return config.DefaultICSPublicURL
	}
	url, err := s3.PublishCalendar(ctx, cal.Build(), calendar.ContentType)
	if err != nil {
		logger.Warn("publish calendar", zap.Error(err))
		return config.DefaultICSPublicURL
	}
	return url
}

// buildBackends returns delivery backends in the order they are tried.
func buildBackends(cfg config.EmailConfig, logger *zap.Logger) []mailer.Backend {
	smtp := func() mailer.Backend {
		return mailer.NewSMTPBackend(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.FromAddress,
			FromName: cfg.FromName,
			Timeout:  cfg.Timeout,
		}, logger)
	}
	brevo := func() mailer.Backend {
		return mailer.NewBrevoBackend(mailer.BrevoConfig{
			APIKey:   cfg.BrevoAPIKey,
			URL:      cfg.BrevoAPIURL,
			From:     cfg.FromAddress,
			FromName: cfg.FromName,
			Timeout:  cfg.Timeout,
		}, logger)
	}

	var out []mailer.Backend
	switch cfg.Backend {
	case "smtp":
		if cfg.HasSMTP() {
			out = append(out, smtp())
		}
	case "brevo":
		if cfg.HasBrevo() {
			out = append(out, brevo())
		}
	default:
		if cfg.HasBrevo() {
			out = append(out, brevo())
		}
		if cfg.HasSMTP() {
			out = append(out, smtp())
		}
	}
	return out
}

func newRouter(cfg config.ServerConfig, reg *registrations.Handler, d *diag.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	for _, g := range []*gin.RouterGroup{&router.RouterGroup, router.Group(routePrefix)} {
		reg.Mount(g)
		g.GET("/healthz", d.Healthz)
		g.GET("/diag", d.Diag)
	}
	router.GET("/metrics", gin.WrapH(m.Handler()))

	if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	} else {
		logger.Info("static dir not found, not serving files", zap.String("dir", cfg.StaticDir))
	}
	return router
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
