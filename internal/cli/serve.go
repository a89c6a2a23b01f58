package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"companion-booking-backend/config"
	"companion-booking-backend/internal/api"
	"companion-booking-backend/internal/db"
	"companion-booking-backend/internal/notification"
	"companion-booking-backend/internal/pricing"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
	"companion-booking-backend/internal/sweeper"
	"companion-booking-backend/internal/verification"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification workers and sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Log.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)
	log.Info().Msg("data store initialized")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		log.Warn().Msg("VAPID keys are not configured; web push is disabled")
	}
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	var publisher notification.Publisher
	if cfg.AMQP.URL != "" {
		amqpPublisher := notification.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.QueuePrefix)
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info().Str("queue_prefix", cfg.AMQP.QueuePrefix).Msg("lifecycle events will be published to AMQP")
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, &webpushOptions, publisher)
	workerPool.Start(ctx)

	engine := pricing.NewEngine(time.Now, cfg.Booking.Location)
	svc := reservation.NewService(appStore, engine, workerPool, reservation.Options{
		RequireFullWindow:   cfg.Booking.RequireFullWindow,
		ExactStartConflicts: cfg.Booking.ExactStartConflicts,
		ProbeHours:          decimal.NewFromFloat(cfg.Booking.ProbeHours),
	})

	verifier := verification.NewService(verificationStore(cfg), verification.LogSender{}, verification.Options{
		CodeTTL:  time.Duration(cfg.Verification.CodeTTLSeconds) * time.Second,
		TokenTTL: time.Duration(cfg.Verification.TokenTTLSeconds) * time.Second,
		DevCode:  cfg.Verification.DevCode,
	})

	if cfg.Sweeper.Enabled {
		sw := sweeper.NewService(svc, time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second, time.Now, cfg.Booking.Location)
		go sw.Run(ctx)
	}

	router := api.NewRouter(api.Deps{
		Service:   svc,
		Verifier:  verifier,
		Store:     appStore,
		WebPush:   &webpushOptions,
		JWTSecret: cfg.Auth.JWTSecret,
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		Burst:     cfg.Server.RateLimitBurst,
		CacheTTL:  time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}

// verificationStore picks redis when configured and reachable, else process memory.
func verificationStore(cfg *config.Config) verification.Store {
	if cfg.Verification.Backend == "redis" {
		if client := verification.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("verification codes stored in redis")
			return verification.NewRedisStore(client, "verify:")
		}
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unreachable; verification codes fall back to memory")
	}
	return verification.NewMemoryStore(time.Minute)
}
