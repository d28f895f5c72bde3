package cmd

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/config"
)

type application struct {
	cfg          *config.Config
	db           *sql.DB
	store        *repository.Store
	reservations *service.ReservationService
	webhooks     *service.WebhookService
	publisher    events.Publisher
}

func (a *application) close() {
	if err := a.publisher.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close event publisher")
	}
	if err := a.db.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close database")
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func mustOpenDatabase(cfg *config.Config) *sql.DB {
	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open database")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}
	return db
}

// mustCreateApp wires the services shared by the server and the jobs. The
// publisher falls back to a no-op when RabbitMQ is not configured or down.
func mustCreateApp() *application {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	store := repository.NewStore(db)

	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			logrus.WithError(err).Warn("RabbitMQ unavailable, reservation events disabled")
		} else {
			publisher = amqpPublisher
		}
	}

	stripeProvider := provider.NewStripeProvider(provider.StripeConfig{
		SecretKey:                 cfg.Stripe.SecretKey,
		WebhookSecret:             cfg.Stripe.WebhookSecret,
		APIBaseURL:                cfg.Stripe.APIBaseURL,
		SignatureToleranceSeconds: cfg.Stripe.SignatureToleranceSeconds,
		HTTPTimeout:               cfg.Stripe.HTTPTimeout,
	})

	ledger := service.NewLedger(store, publisher)
	reservationService, err := service.NewReservationService(store, ledger, stripeProvider, publisher, service.WorkflowConfig{
		Reservations: cfg.Reservations,
		Pricing:      cfg.Pricing,
		Payments:     cfg.Payments,
		SuccessURL:   cfg.Stripe.SuccessURL,
		CancelURL:    cfg.Stripe.CancelURL,
	})
	if err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to create reservation service")
	}

	return &application{
		cfg:          cfg,
		db:           db,
		store:        store,
		reservations: reservationService,
		webhooks:     service.NewWebhookService(store, ledger, stripeProvider),
		publisher:    publisher,
	}
}
