package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

// ChargeRepo implements storage.ChargeRepository using PostgreSQL.
type ChargeRepo struct {
	db *DB
}

// NewChargeRepo creates a new PostgreSQL charge ledger.
func NewChargeRepo(db *DB) *ChargeRepo {
	return &ChargeRepo{db: db}
}

// Add inserts a confirmed charge. ID and CreatedAt are filled in when empty.
func (r *ChargeRepo) Add(ctx context.Context, record *domain.ChargeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO charges (
			id, kind, wallet_address, amount, tx_hash, block_number, chain_id, admin_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tx_hash) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, string(record.Kind), record.WalletAddress, record.Amount,
		record.TransactionHash, record.BlockNumber, record.ChainID, record.Admin,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add charge: %w", err)
	}
	return nil
}

// List returns charges newest first.
func (r *ChargeRepo) List(ctx context.Context, filter storage.ChargeFilter) ([]*domain.ChargeRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.WalletAddress != "" {
		args = append(args, filter.WalletAddress)
		where = append(where, fmt.Sprintf("wallet_address = $%d", len(args)))
	}

	query := `
		SELECT id, kind, wallet_address, amount, tx_hash, block_number, chain_id, admin_address, created_at
		FROM charges`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var records []*domain.ChargeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list charges: %w", err)
	}
	for _, record := range records {
		record.Amount = canonicalAmount(record.Amount)
	}
	return records, nil
}

// Ping checks the ledger database.
func (r *ChargeRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// canonicalAmount drops the NUMERIC column's padding ("1.500000000000000000"
// becomes "1.5") so both ledgers report amounts the same way.
func canonicalAmount(v string) string {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.String()
}
