package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bloodlink/delivery-api/internal/config"
	"github.com/bloodlink/delivery-api/internal/email"
	"github.com/bloodlink/delivery-api/internal/handler"
	authHandler "github.com/bloodlink/delivery-api/internal/handler/auth"
	deliveryHandler "github.com/bloodlink/delivery-api/internal/handler/delivery"
	issueHandler "github.com/bloodlink/delivery-api/internal/handler/issue"
	staffHandler "github.com/bloodlink/delivery-api/internal/handler/staff"
	"github.com/bloodlink/delivery-api/internal/middleware"
	"github.com/bloodlink/delivery-api/internal/repository/postgres"
	"github.com/bloodlink/delivery-api/internal/router"
	authService "github.com/bloodlink/delivery-api/internal/service/auth"
	deliveryService "github.com/bloodlink/delivery-api/internal/service/delivery"
	eventService "github.com/bloodlink/delivery-api/internal/service/event"
	issueService "github.com/bloodlink/delivery-api/internal/service/issue"
	staffService "github.com/bloodlink/delivery-api/internal/service/staff"
	"github.com/bloodlink/delivery-api/pkg/logger"
	"github.com/bloodlink/delivery-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	staffRepo := postgres.NewStaffRepository(baseRepo)
	deliveryRepo := postgres.NewDeliveryRepository(baseRepo)
	issueRepo := postgres.NewIssueRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	emailSvc := email.NewSMTPService(cfg.SMTP)
	eventSvc := eventService.NewService(outboxRepo)

	staffSvc := staffService.NewService(staffRepo, hasher, emailSvc, eventSvc, appLogger)
	authSvc := authService.NewService(staffRepo, tokenRepo, hasher)
	deliverySvc := deliveryService.NewService(deliveryRepo)
	issueSvc := issueService.NewService(issueRepo, deliveryRepo)

	authMiddleware := middleware.NewAuthMiddleware(authSvc, cfg.Auth.TokenCacheTTL)

	h := handler.NewHandler()
	staffH := staffHandler.NewHandler(staffSvc)
	authH := authHandler.NewHandler(authSvc, authMiddleware.InvalidateToken)
	deliveryH := deliveryHandler.NewHandler(deliverySvc)
	issueH := issueHandler.NewHandler(issueSvc)

	r := router.NewRouter(
		authMiddleware,
		staffH,
		authH,
		deliveryH,
		issueH,
		h,
		router.Config{
			RateLimit:      rate.Limit(cfg.Limits.RPS),
			RateBurst:      cfg.Limits.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "delivery_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
