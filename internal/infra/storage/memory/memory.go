package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

// MemoryStorage is a process-local record store and charge ledger.
// Used in tests and when no ledger database is configured.
type MemoryStorage struct {
	values  map[string]string
	charges []*domain.ChargeRecord
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]string),
	}
}

// -----------------------------------------------------------------------------
// Record Store
// -----------------------------------------------------------------------------

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	delete(s.values, key)
	return ok, nil
}

// ScanKeys supports the pattern shapes the repositories issue: "prefix:*"
// and exact keys. Like Redis SCAN, "*" also matches "/".
func (s *MemoryStorage) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if matchKey(pattern, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func matchKey(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// -----------------------------------------------------------------------------
// Charge Repository
// -----------------------------------------------------------------------------

type ChargeRepo struct {
	store *MemoryStorage
}

func NewChargeRepo(store *MemoryStorage) *ChargeRepo {
	return &ChargeRepo{store: store}
}

func (r *ChargeRepo) Add(ctx context.Context, record *domain.ChargeRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	cp := *record
	r.store.charges = append(r.store.charges, &cp)
	return nil
}

// List returns matching records, newest first.
func (r *ChargeRepo) List(ctx context.Context, filter storage.ChargeFilter) ([]*domain.ChargeRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.ChargeRecord
	for i := len(r.store.charges) - 1; i >= 0; i-- {
		c := r.store.charges[i]
		if filter.WalletAddress != "" && c.WalletAddress != filter.WalletAddress {
			continue
		}
		cp := *c
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *ChargeRepo) Ping(ctx context.Context) error {
	return nil
}
