package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/trailpost/tours-api/internal/http/handlers"
	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/internal/platform/mailer"
	"github.com/trailpost/tours-api/internal/platform/payments"
	"github.com/trailpost/tours-api/internal/platform/token"
	"github.com/trailpost/tours-api/internal/repo/postgres"
	"github.com/trailpost/tours-api/internal/router"
	"github.com/trailpost/tours-api/pkg/config"
	"github.com/trailpost/tours-api/pkg/database"
	"github.com/trailpost/tours-api/pkg/events"
	"github.com/trailpost/tours-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	// rate-limit counters live in Redis when configured, in process
	// memory otherwise
	var counter middleware.Counter = middleware.NewMemoryCounter()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", "error", err)
		}
		counter = &middleware.RedisCounter{Client: redis.NewClient(opts)}
	}

	var bus events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSBus(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("failed to connect to NATS", "error", err)
		}
		defer natsBus.Close()
		bus = natsBus
	}

	var mail mailer.Service = mailer.DevMailer{}
	if !cfg.Email.DevMode {
		m, err := mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.From)
		if err != nil {
			logger.Fatal("failed to configure mailer", "error", err)
		}
		mail = m
	}

	tokens := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	provider := payments.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	validate := validator.New()
	renderer := &response.Renderer{Production: cfg.IsProduction()}

	userRepo := postgres.NewUserRepo(pool)
	tourRepo := postgres.NewTourRepo(pool)
	reviewRepo := postgres.NewReviewRepo(pool)
	bookingRepo := postgres.NewBookingRepo(pool)

	auth := &middleware.Auth{Tokens: tokens, Users: userRepo, Renderer: renderer}
	limiter := &middleware.RateLimiter{
		Counter:  counter,
		Max:      cfg.RateLimit.Max,
		Window:   cfg.RateLimit.Window,
		Renderer: renderer,
	}

	handler := router.New(router.Deps{
		Cfg:      cfg,
		Renderer: renderer,
		Auth:     auth,
		Limiter:  limiter,
		AuthH: &handlers.AuthHandler{
			Users:        userRepo,
			Tokens:       tokens,
			Mail:         mail,
			Bus:          bus,
			Validate:     validate,
			CookieTTL:    cfg.Auth.CookieTTL,
			ResetTTL:     cfg.Auth.ResetTicketTTL,
			BaseURL:      cfg.Server.PublicBaseURL,
			SecureCookie: cfg.IsProduction(),
		},
		UserH:    &handlers.UserHandler{Users: userRepo},
		TourH:    handlers.NewTourHandler(tourRepo, validate),
		ReviewH:  handlers.NewReviewHandler(reviewRepo, validate),
		BookingH: handlers.NewBookingHandler(bookingRepo, tourRepo, userRepo, provider, bus, cfg.Server.PublicBaseURL, validate),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("starting api", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", "error", err)
	}
}
