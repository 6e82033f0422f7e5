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
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tdpcorpsa/singup/config"
	"github.com/tdpcorpsa/singup/internal/client"
	"github.com/tdpcorpsa/singup/internal/email"
	"github.com/tdpcorpsa/singup/internal/health"
	ctxlog "github.com/tdpcorpsa/singup/internal/log"
	"github.com/tdpcorpsa/singup/internal/metrics"
	"github.com/tdpcorpsa/singup/internal/token"
	httptransport "github.com/tdpcorpsa/singup/internal/transport/http"
	"github.com/tdpcorpsa/singup/internal/transport/http/handler"
	"github.com/tdpcorpsa/singup/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upstreamTimeout := time.Duration(cfg.UpstreamTimeoutSec) * time.Second
	workers := client.NewWorkerRegistry(cfg.WorkersAPIBaseURL, upstreamTimeout)
	users := client.NewUserCreator(cfg.UsersAPIBaseURL, upstreamTimeout)

	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	issuer := token.NewIssuer([]byte(cfg.JWTSecret))
	verifier := token.NewVerifier([]byte(cfg.JWTSecret))
	registrationUC := usecase.NewRegistrationUsecase(issuer, verifier, users, emailSender, cfg.PublicBaseURL)
	registrationHandler := handler.NewRegistrationHandler(registrationUC, workers, cfg.AppBaseURL, logger)

	metrics.Register()
	checker := health.NewChecker(workers, users, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, registrationHandler, checker),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
