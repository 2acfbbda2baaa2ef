package storage

import (
	"context"

	"github.com/vietddude/chargedesk/internal/core/domain"
)

// RecordStore is the key-value contract the approval repository is built on.
// Implemented by the Redis client and by the in-memory store.
type RecordStore interface {
	// Get returns the value at key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set writes value at key unconditionally.
	Set(ctx context.Context, key, value string) error

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (existed bool, err error)

	// ScanKeys enumerates keys matching a glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	Ping(ctx context.Context) error
}

// ApprovalRepository handles approval record storage operations
type ApprovalRepository interface {
	// Save writes the record, overwriting any record for the same address
	Save(ctx context.Context, record *domain.ApprovalRecord) error

	// Get returns nil, nil when no record exists for the address
	Get(ctx context.Context, walletAddress string) (*domain.ApprovalRecord, error)

	// Update patches status and, when txHash is non-empty, the transaction hash
	Update(
		ctx context.Context,
		walletAddress string,
		status domain.ApprovalStatus,
		txHash string,
	) (*domain.ApprovalRecord, error)

	// Delete removes the record; domain.ErrNotFound if absent
	Delete(ctx context.Context, walletAddress string) error

	// ListAll returns every decodable record under the approval namespace
	ListAll(ctx context.Context) (*ApprovalList, error)
}

// ApprovalList is the result of ListAll. Skipped holds the addresses whose
// stored value could not be decoded or disappeared during the listing.
type ApprovalList struct {
	Records []*domain.ApprovalRecord
	Skipped []string
}

// ChargeFilter narrows ledger queries. Zero values mean "no filter".
type ChargeFilter struct {
	WalletAddress string
	Limit         int
}

// ChargeRepository is the append-only ledger of confirmed charges.
type ChargeRepository interface {
	Add(ctx context.Context, record *domain.ChargeRecord) error
	List(ctx context.Context, filter ChargeFilter) ([]*domain.ChargeRecord, error)
	Ping(ctx context.Context) error
}
