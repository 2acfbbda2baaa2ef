package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/vietddude/chargedesk/internal/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds the ledger database settings.
type Config struct {
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = time.Hour
	}
	return c
}

// DB is the charge ledger connection pool.
type DB struct {
	*sqlx.DB
}

// NewDB opens the pool through the pgx driver and pings it once.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	cfg = cfg.withDefaults()

	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxLifetime / 2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger db: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// StartMetricsCollector publishes pool usage every 15s until ctx ends.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.DBConnectionPoolUsage.Set(poolUsage(db.Stats()))
			}
		}
	}()
}

func poolUsage(stats sql.DBStats) float64 {
	if stats.MaxOpenConnections <= 0 {
		return 0
	}
	return float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
}

// Ping reports whether the ledger database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}
