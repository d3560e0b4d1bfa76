package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ballotengine "tally/contexts/community-governance/ballot-engine"
	ballotpostgres "tally/contexts/community-governance/ballot-engine/adapters/postgres"
	ballotentities "tally/contexts/community-governance/ballot-engine/domain/entities"
	communismengine "tally/contexts/finance-core/communism-engine"
	communismpostgres "tally/contexts/finance-core/communism-engine/adapters/postgres"
	ledgerservice "tally/contexts/finance-core/ledger-service"
	ledgerpostgres "tally/contexts/finance-core/ledger-service/adapters/postgres"
	ledgerworkers "tally/contexts/finance-core/ledger-service/application/workers"
	ledgerentities "tally/contexts/finance-core/ledger-service/domain/entities"
	callbackdispatcher "tally/contexts/integrations/callback-dispatcher"
	callbackpostgres "tally/contexts/integrations/callback-dispatcher/adapters/postgres"
	"tally/contexts/integrations/callback-dispatcher/adapters/webhook"
	dispatcherapp "tally/contexts/integrations/callback-dispatcher/application"
	"tally/internal/platform/config"
	"tally/internal/platform/db"
	"tally/internal/platform/httpserver"

	"github.com/google/uuid"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server     *httpserver.Server
	dispatcher *dispatcherapp.Dispatcher
	postgres   *db.Postgres
	logger     *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	reconciler   ledgerworkers.BalanceReconciler
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	callbackRepo := callbackpostgres.NewRepository(pg.DB, logger)
	callbackModule := callbackdispatcher.NewModule(callbackdispatcher.Dependencies{
		Callbacks:   callbackRepo,
		Poster:      webhook.NewPoster(5 * time.Second),
		Clock:       callbackpostgres.SystemClock{},
		IDGenerator: callbackpostgres.UUIDGenerator{},
		Dispatch: dispatcherapp.DispatcherConfig{
			BatchSize:      cfg.CallbackBatchSize,
			FlushInterval:  cfg.CallbackFlushInterval,
			MaxAttempts:    cfg.CallbackMaxAttempts,
			RetryBackoff:   cfg.CallbackRetryBackoff,
			BufferCapacity: cfg.CallbackBufferCapacity,
		},
		Logger: logger,
	})
	publisher := callbackModule.Dispatcher

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := ledgerservice.NewModule(ledgerservice.Dependencies{
		Users:                      ledgerRepo,
		Transactions:               ledgerRepo,
		Publisher:                  publisher,
		Clock:                      ledgerpostgres.SystemClock{},
		IDGenerator:                ledgerpostgres.UUIDGenerator{},
		MaxTransactionAmount:       cfg.MaxTransactionAmount,
		MaxParallelDebtors:         cfg.MaxParallelDebtors,
		MaxSimultaneousConsumption: cfg.MaxSimultaneousConsumption,
		Logger:                     logger,
	})

	if err := seedCommunityUser(ledgerRepo); err != nil {
		_ = pg.Close()
		return nil, err
	}

	communismRepo := communismpostgres.NewRepository(pg.DB, logger)
	communismModule := communismengine.NewModule(communismengine.Dependencies{
		Communisms:  communismRepo,
		Users:       communismRepo,
		Publisher:   publisher,
		Clock:       communismpostgres.SystemClock{},
		IDGenerator: communismpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	ballotRepo := ballotpostgres.NewRepository(pg.DB, logger)
	ballotModule := ballotengine.NewModule(ballotengine.Dependencies{
		Ballots:     ballotRepo,
		Users:       ballotRepo,
		Publisher:   publisher,
		Clock:       ballotpostgres.SystemClock{},
		IDGenerator: ballotpostgres.UUIDGenerator{},
		Refund: ballotentities.Thresholds{
			MinApproves:    int64(cfg.MinRefundApproves),
			MinDisapproves: int64(cfg.MinRefundDisapproves),
		},
		Membership: ballotentities.Thresholds{
			MinApproves:    int64(cfg.MinMembershipApproves),
			MinDisapproves: int64(cfg.MinMembershipDisapproves),
		},
		Logger: logger,
	})

	server := httpserver.New(
		ledgerModule,
		communismModule,
		ballotModule,
		callbackModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:     server,
		dispatcher: callbackModule.Dispatcher,
		postgres:   pg,
		logger:     logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		reconciler: ledgerworkers.BalanceReconciler{
			Transactions: ledgerRepo,
			Logger:       logger,
		},
		pollInterval: cfg.ReconcileInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	go func() {
		_ = a.dispatcher.Run(ctx)
	}()
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.reconciler.RunOnce(ctx); err != nil {
			return err
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

// seedCommunityUser makes sure the distinguished community account exists
// before any consume, communism or refund settlement runs against it.
func seedCommunityUser(repo *ledgerpostgres.Repository) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	_, err := repo.EnsureCommunityUser(ctx, ledgerentities.User{
		UserID:    uuid.NewString(),
		Name:      "community",
		Active:    true,
		Special:   true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
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
