package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventshub/config"
	"eventshub/internal/adapters/auth"
	"eventshub/internal/adapters/broker"
	"eventshub/internal/adapters/email"
	"eventshub/internal/adapters/imagestore"
	delivery "eventshub/internal/delivery/http"
	"eventshub/internal/delivery/http/controllers"
	"eventshub/internal/repository/postgres"
	"eventshub/internal/services"
)

// @title           EventsHub API
// @version         1.0
// @description     Event discovery and booking.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.DBUrl, postgres.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		Attempts:        cfg.DB.ConnectAttempts,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	images, err := imagestore.NewS3Store(imagestore.S3Config{
		Bucket:          cfg.ImageStore.Bucket,
		Region:          cfg.ImageStore.Region,
		AccessKeyID:     cfg.ImageStore.AccessKeyID,
		SecretAccessKey: cfg.ImageStore.SecretAccessKey,
		Endpoint:        cfg.ImageStore.Endpoint,
		PublicBaseURL:   cfg.ImageStore.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mail.SESRegion,
			AccessKeyID:        cfg.Mail.SESAccessKeyID,
			SecretAccessKey:    cfg.Mail.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mail.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	publisher, closePublisher, err := broker.NewRabbitPublisher(ctx, broker.RabbitConfig{
		URL:      cfg.Broker.URL,
		Exchange: cfg.Broker.Exchange,
		Attempts: cfg.DB.ConnectAttempts,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Warn("closing broker connection", "err", err)
		}
	}()

	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	eventService := services.NewEventService(eventRepo, images, cfg.ImageStore.Folder, publisher, logger, cfg.RequestTimeout)
	bookingService := services.NewBookingService(eventRepo, bookingRepo, emailService, publisher, logger, cfg.RequestTimeout)

	router := delivery.NewRouter(delivery.RouterConfig{
		Logger:         logger,
		Events:         controllers.NewEventController(logger, eventService, bookingService),
		Bookings:       controllers.NewBookingController(logger, bookingService),
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
