package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/chargedesk/internal/core/config"
	"github.com/vietddude/chargedesk/internal/dashboard"
	"github.com/vietddude/chargedesk/internal/health"
	"github.com/vietddude/chargedesk/internal/infra/chain/evm"
	redisclient "github.com/vietddude/chargedesk/internal/infra/redis"
	"github.com/vietddude/chargedesk/internal/infra/storage"
	"github.com/vietddude/chargedesk/internal/infra/storage/memory"
	"github.com/vietddude/chargedesk/internal/infra/storage/postgres"
	"github.com/vietddude/chargedesk/internal/server"
)

const healthInterval = 10 * time.Second

// App is the main application struct that manages the service lifecycle.
type App struct {
	cfg         *config.AppConfig
	redisClient *redisclient.Client
	db          *postgres.DB
	wallet      *evm.KeyWallet
	approvals   storage.ApprovalRepository
	charges     storage.ChargeRepository
	controller  *dashboard.Controller
	healthMon   *health.Monitor
	server      *server.Server
	grpcHealth  *health.GRPCServer
	log         *slog.Logger
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{cfg: cfg, log: slog.Default()}

	// 1. Record store
	redisClient, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to init record store: %w", err)
	}
	a.redisClient = redisClient
	a.approvals = storage.NewApprovalRepo(redisClient)

	// 2. Charge ledger
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.charges = postgres.NewChargeRepo(db)
		slog.Info("Using PostgreSQL charge ledger")
	} else {
		a.charges = memory.NewChargeRepo(memory.NewMemoryStorage())
		slog.Info("Using Memory charge ledger")
	}

	// 3. Wallet and chain gateway. Without an RPC endpoint every connect
	// reports a missing provider.
	var wallet evm.Wallet
	if cfg.Chain.RPCURL != "" {
		kw, err := evm.DialKeyWallet(ctx, cfg.Chain.RPCURL, cfg.Chain.PrivateKey)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to init wallet: %w", err)
		}
		a.wallet = kw
		wallet = kw
	} else {
		slog.Warn("No chain RPC configured, dashboard connect is disabled")
	}
	gateway := evm.NewGateway(cfg.Chain, wallet)

	// 4. Dashboard
	a.controller = dashboard.NewController(gateway, a.approvals, a.charges, cfg.Dashboard)

	// 5. Health
	a.healthMon = health.NewMonitor(healthInterval)
	a.healthMon.Register("store", health.PingCheck(redisClient, health.StatusCritical))
	a.healthMon.Register("ledger", health.PingCheck(a.charges, health.StatusDegraded))
	a.healthMon.Register("chain", health.SessionCheck(cfg.Chain.RPCURL != "", a.controller.SessionStatus))
	if cfg.Server.GRPCPort > 0 {
		a.grpcHealth = health.NewGRPCServer(a.healthMon, cfg.Server.GRPCPort, healthInterval)
	}

	// 6. HTTP facade
	a.server = server.New(
		server.Config{Port: cfg.Server.Port, CORSOrigins: cfg.Server.CORSOrigins},
		a.approvals,
		a.controller,
		health.NewHandler(a.healthMon),
	)

	return a, nil
}

// Start starts the servers and background collectors. It does not block.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.grpcHealth != nil {
		go func() {
			if err := a.grpcHealth.Start(ctx); err != nil {
				a.log.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("chargedesk started", "port", a.cfg.Server.Port)
	return nil
}

// Stop disconnects the wallet session, drains the servers and closes clients.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping chargedesk...")

	a.controller.Disconnect()

	err := a.server.Stop(ctx)
	if a.grpcHealth != nil {
		a.grpcHealth.Stop()
	}
	a.close()
	return err
}

func (a *App) close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	if a.wallet != nil {
		a.wallet.Close()
	}
}
