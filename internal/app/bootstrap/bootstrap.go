package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	earningsengine "fleetpay/contexts/finance-core/earnings-engine"
	earningspostgres "fleetpay/contexts/finance-core/earnings-engine/adapters/postgres"
	earningsapp "fleetpay/contexts/finance-core/earnings-engine/application"
	earningsworkers "fleetpay/contexts/finance-core/earnings-engine/application/workers"
	payoutservice "fleetpay/contexts/finance-core/payout-service"
	payoutpostgres "fleetpay/contexts/finance-core/payout-service/adapters/postgres"
	"fleetpay/contexts/finance-core/payout-service/adapters/report"
	payoutworkers "fleetpay/contexts/finance-core/payout-service/application/workers"
	"fleetpay/internal/platform/config"
	"fleetpay/internal/platform/db"
	"fleetpay/internal/platform/httpserver"
	"fleetpay/internal/platform/messaging"
	"fleetpay/internal/shared/money"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	consumer        earningsworkers.DeliveryCompletedConsumer
	scheduler       payoutworkers.WeeklyPayoutJob
	consumerEnabled bool
	schedulerEnabled bool
	pollInterval    time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, earnings, payouts, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(earnings, payouts, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, earnings, payouts, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		consumer: earningsworkers.DeliveryCompletedConsumer{
			Subscriber: kafka,
			Publisher:  kafka,
			Calculator: earnings.Service,
			Cutover:    earningsworkers.DefaultPayoutCutover(),
			Clock:      earningspostgres.SystemClock{},
			IDGen:      earningspostgres.UUIDGenerator{},
			Logger:     logger,
		},
		scheduler: payoutworkers.WeeklyPayoutJob{
			Service: payouts.Service,
			Clock:   payoutpostgres.SystemClock{},
			Logger:  logger,
		},
		consumerEnabled:  cfg.EnableDeliveryConsumer,
		schedulerEnabled: cfg.EnablePayoutScheduler,
		pollInterval:     time.Minute,
		logger:           logger,
	}, nil
}

func buildModules(cfg config.Config, logger *slog.Logger) (*db.Postgres, earningsengine.Module, payoutservice.Module, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, earningsengine.Module{}, payoutservice.Module{}, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, earningsengine.Module{}, payoutservice.Module{}, err
	}
	models := append(earningspostgres.Models(), payoutpostgres.Models()...)
	if err := pg.Migrate(models...); err != nil {
		_ = pg.Close()
		return nil, earningsengine.Module{}, payoutservice.Module{}, err
	}

	tariffConfig := earningsapp.DefaultTariffConfig()
	tariffConfig.Currency = cfg.Currency

	earningsRepo := earningspostgres.NewRepository(pg.DB, logger)
	earnings := earningsengine.NewModule(earningsengine.Dependencies{
		Tariffs:      earningsRepo,
		Calculations: earningsRepo,
		Clock:        earningspostgres.SystemClock{},
		TariffConfig: tariffConfig,
		Logger:       logger,
	})

	payoutRepo := payoutpostgres.NewRepository(pg.DB, logger)
	payouts := payoutservice.NewModule(payoutservice.Dependencies{
		Payouts:       payoutRepo,
		Earnings:      earnings.Service,
		Reports:       report.NewGenerator(cfg.ReportOutputDir, logger),
		Clock:         payoutpostgres.SystemClock{},
		IDGenerator:   payoutpostgres.UUIDGenerator{},
		MinimumPayout: money.New(cfg.MinimumPayout, cfg.Currency),
		Logger:        logger,
	})
	return pg, earnings, payouts, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumerEnabled {
		if err := w.consumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"consumer_enabled", w.consumerEnabled,
		"scheduler_enabled", w.schedulerEnabled,
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.schedulerEnabled {
			if err := w.scheduler.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
