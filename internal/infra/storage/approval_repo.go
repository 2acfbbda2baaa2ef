package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/metrics"
)

const approvalKeyPrefix = "approval:"

// Key helpers
func approvalKey(walletAddress string) string {
	return approvalKeyPrefix + walletAddress
}

func addressFromKey(key string) string {
	return strings.TrimPrefix(key, approvalKeyPrefix)
}

// ApprovalRepo implements ApprovalRepository on top of a RecordStore.
// Records are stored as JSON under "approval:<walletAddress>".
type ApprovalRepo struct {
	store RecordStore
	log   *slog.Logger
}

// NewApprovalRepo creates a new approval repository.
func NewApprovalRepo(store RecordStore) *ApprovalRepo {
	return &ApprovalRepo{
		store: store,
		log:   slog.Default().With("component", "approval_repo"),
	}
}

// Save writes the record unconditionally.
func (r *ApprovalRepo) Save(ctx context.Context, record *domain.ApprovalRecord) error {
	if record == nil || record.WalletAddress == "" {
		return domain.Validationf("wallet address is required")
	}
	if !record.Status.Valid() {
		return domain.Validationf("invalid status %q", record.Status)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal approval record: %w", err)
	}
	if err := r.store.Set(ctx, approvalKey(record.WalletAddress), string(data)); err != nil {
		return fmt.Errorf("failed to save approval record: %w", err)
	}

	r.log.Debug("Approval record saved", "address", record.WalletAddress, "status", record.Status)
	return nil
}

// Get retrieves the record for walletAddress, or nil if there is none.
func (r *ApprovalRepo) Get(ctx context.Context, walletAddress string) (*domain.ApprovalRecord, error) {
	if walletAddress == "" {
		return nil, domain.Validationf("wallet address is required")
	}
	return r.load(ctx, approvalKey(walletAddress))
}

func (r *ApprovalRepo) load(ctx context.Context, key string) (*domain.ApprovalRecord, error) {
	val, found, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval record: %w", err)
	}
	if !found {
		return nil, nil
	}

	var record domain.ApprovalRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal %s: %v", domain.ErrTransport, key, err)
	}
	return &record, nil
}

// Update patches status and, if txHash is non-empty, the transaction hash.
// This is a plain read-modify-write: a concurrent write to the same address
// between the read and the write is lost.
func (r *ApprovalRepo) Update(
	ctx context.Context,
	walletAddress string,
	status domain.ApprovalStatus,
	txHash string,
) (*domain.ApprovalRecord, error) {
	if !status.Valid() {
		return nil, domain.Validationf("invalid status %q", status)
	}

	record, err := r.Get(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	record.Status = status
	if txHash != "" {
		record.TransactionHash = txHash
	}

	if err := r.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the record for walletAddress.
func (r *ApprovalRepo) Delete(ctx context.Context, walletAddress string) error {
	if walletAddress == "" {
		return domain.Validationf("wallet address is required")
	}

	existed, err := r.store.Delete(ctx, approvalKey(walletAddress))
	if err != nil {
		return fmt.Errorf("failed to delete approval record: %w", err)
	}
	if !existed {
		return domain.ErrNotFound
	}

	r.log.Debug("Approval record deleted", "address", walletAddress)
	return nil
}

// ListAll scans the approval namespace and decodes each record.
// Undecodable or vanished records are skipped and reported; a transport
// failure aborts the listing.
func (r *ApprovalRepo) ListAll(ctx context.Context) (*ApprovalList, error) {
	keys, err := r.store.ScanKeys(ctx, approvalKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list approval keys: %w", err)
	}
	sort.Strings(keys)

	list := &ApprovalList{Records: make([]*domain.ApprovalRecord, 0, len(keys))}
	for _, key := range keys {
		val, found, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get approval record: %w", err)
		}
		if !found {
			// Deleted between SCAN and GET
			list.Skipped = append(list.Skipped, addressFromKey(key))
			continue
		}

		var record domain.ApprovalRecord
		if err := json.Unmarshal([]byte(val), &record); err != nil {
			r.log.Warn("Skipping undecodable approval record", "key", key, "error", err)
			metrics.ApprovalsSkipped.Inc()
			list.Skipped = append(list.Skipped, addressFromKey(key))
			continue
		}
		list.Records = append(list.Records, &record)
	}

	r.log.Debug("Retrieved approval records", "count", len(list.Records), "skipped", len(list.Skipped))
	return list, nil
}
