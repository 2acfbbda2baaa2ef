package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/storage"
)

func TestMemoryStorage_ScanKeys(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	for _, k := range []string{"approval:b", "approval:a", "approval:a/b", "charge:x"} {
		require.NoError(t, s.Set(ctx, k, "v"))
	}

	keys, err := s.ScanKeys(ctx, "approval:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"approval:a", "approval:a/b", "approval:b"}, keys)

	keys, err = s.ScanKeys(ctx, "charge:x")
	require.NoError(t, err)
	assert.Equal(t, []string{"charge:x"}, keys)
}

func TestChargeRepo_ListNewestFirstWithFilter(t *testing.T) {
	repo := NewChargeRepo(NewMemoryStorage())
	ctx := context.Background()

	for i, addr := range []string{"0xA", "0xB", "0xA", "0xA"} {
		require.NoError(t, repo.Add(ctx, &domain.ChargeRecord{
			Kind:            domain.ChargeKindUSDT,
			WalletAddress:   addr,
			Amount:          "1",
			TransactionHash: string(rune('a' + i)),
		}))
	}

	all, err := repo.List(ctx, storage.ChargeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d", all[0].TransactionHash)
	assert.NotEmpty(t, all[0].ID)
	assert.False(t, all[0].CreatedAt.IsZero())

	onlyA, err := repo.List(ctx, storage.ChargeFilter{WalletAddress: "0xA", Limit: 2})
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "d", onlyA[0].TransactionHash)
	assert.Equal(t, "c", onlyA[1].TransactionHash)
}
