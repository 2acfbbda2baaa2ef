package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/storage"
	"github.com/vietddude/chargedesk/internal/infra/storage/memory"
)

type fixture struct {
	ctrl      *Controller
	connector *fakeConnector
	session   *fakeSession
	approvals *storage.ApprovalRepo
	charges   *memory.ChargeRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewMemoryStorage()
	session := newFakeSession()
	f := &fixture{
		connector: &fakeConnector{session: session},
		session:   session,
		approvals: storage.NewApprovalRepo(store),
		charges:   memory.NewChargeRepo(store),
	}
	f.ctrl = NewController(f.connector, f.approvals, f.charges, Config{BalanceWorkers: 2})
	return f
}

func (f *fixture) seed(t *testing.T, address string, status domain.ApprovalStatus) {
	t.Helper()
	require.NoError(t, f.approvals.Save(context.Background(), &domain.ApprovalRecord{
		WalletAddress:  address,
		ApprovalAmount: "100",
		Timestamp:      domain.NowMillis(),
		Status:         status,
	}))
}

func hasNotice(notices []Notice, level NoticeLevel) bool {
	for _, n := range notices {
		if n.Level == level {
			return true
		}
	}
	return false
}

func TestController_ActivateAdmin(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "0xB", domain.ApprovalStatusSuccess)
	f.seed(t, "0xA", domain.ApprovalStatusSuccess)
	f.seed(t, "0xC", domain.ApprovalStatusPending)
	f.seed(t, "0xD", domain.ApprovalStatusFailed)
	f.session.balances[adminAddr] = domain.Balances{
		Address: adminAddr,
		Token:   domain.BalanceOK("50"),
		Native:  domain.BalanceOK("1.2"),
	}

	view, err := f.ctrl.Activate(context.Background())
	require.NoError(t, err)

	assert.True(t, view.Connected)
	assert.True(t, view.IsAdmin)
	assert.Equal(t, adminAddr, view.Account)
	assert.Equal(t, "BSC_TESTNET", view.Network)
	require.Len(t, view.ApprovedUsers, 2)
	assert.Equal(t, "0xA", view.ApprovedUsers[0].WalletAddress)
	assert.Equal(t, "0xB", view.ApprovedUsers[1].WalletAddress)
	require.NotNil(t, view.AdminBalances)
	assert.Equal(t, "50", view.AdminBalances.Token.Value)
}

func TestController_ActivateNonAdmin(t *testing.T) {
	f := newFixture(t)
	f.session.account = "0x0000000000000000000000000000000000000bad"
	f.seed(t, "0xA", domain.ApprovalStatusSuccess)

	view, err := f.ctrl.Activate(context.Background())
	require.NoError(t, err)
	assert.True(t, view.Connected)
	assert.False(t, view.IsAdmin)
	assert.Empty(t, view.ApprovedUsers)
	assert.Nil(t, view.AdminBalances)
	assert.True(t, hasNotice(f.ctrl.Notices(), NoticeError))

	_, err = f.ctrl.SubmitCharge(context.Background(), "0xA", "1", "usdt")
	assert.ErrorIs(t, err, domain.ErrNotAdmin)
	assert.Empty(t, f.session.charged)
}

func TestController_ActivateConnectFailure(t *testing.T) {
	for _, sentinel := range []error{domain.ErrProviderMissing, domain.ErrUserRejected, domain.ErrWrongNetwork} {
		f := newFixture(t)
		f.connector.err = sentinel

		view, err := f.ctrl.Activate(context.Background())
		assert.ErrorIs(t, err, sentinel)
		assert.False(t, view.Connected)
		assert.True(t, hasNotice(f.ctrl.Notices(), NoticeError))
	}
}

func TestController_OperationsRequireSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.CheckBalance(ctx, "0xA")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	_, err = f.ctrl.CheckAllBalances(ctx)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	_, err = f.ctrl.SubmitCharge(ctx, "0xA", "1", "")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	_, err = f.ctrl.Withdraw(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	_, err = f.ctrl.RefreshApprovals(ctx)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestController_Disconnect(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "0xA", domain.ApprovalStatusSuccess)
	_, err := f.ctrl.Activate(context.Background())
	require.NoError(t, err)

	f.ctrl.Disconnect()

	view := f.ctrl.View()
	assert.False(t, view.Connected)
	assert.False(t, view.IsAdmin)
	assert.Empty(t, view.ApprovedUsers)
	assert.True(t, f.session.closed.Load())

	_, err = f.ctrl.CheckBalance(context.Background(), "0xA")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestController_CheckBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	f.session.balances["0xA"] = domain.Balances{
		Address: "0xA",
		Token:   domain.BalanceOK("12.5"),
		Native:  domain.BalanceOK("0"),
	}
	b, err := f.ctrl.CheckBalance(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, "12.5", b.Token.Value)
	assert.Equal(t, b, f.ctrl.View().UserBalances["0xA"])

	_, err = f.ctrl.CheckBalance(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestController_CheckAllBalancesPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		f.seed(t, fmt.Sprintf("0x%d", i), domain.ApprovalStatusSuccess)
	}
	f.session.failToken["0x3"] = true
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	results, err := f.ctrl.CheckAllBalances(ctx)
	require.NoError(t, err)
	require.Len(t, results, 6)

	failed := 0
	for i, b := range results {
		assert.Equal(t, fmt.Sprintf("0x%d", i), b.Address)
		if !b.OK() {
			failed++
			assert.Equal(t, "0x3", b.Address)
			assert.Equal(t, "0", b.Token.Value)
		}
	}
	assert.Equal(t, 1, failed)
	assert.LessOrEqual(t, f.session.maxFlight.Load(), int32(2))
	assert.Len(t, f.ctrl.View().UserBalances, 6)
	assert.True(t, hasNotice(f.ctrl.Notices(), NoticeError))
}

func TestController_SubmitCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "0xA", domain.ApprovalStatusSuccess)
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	record, err := f.ctrl.SubmitCharge(ctx, "0xA", "1.50", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeKindUSDT, record.Kind)
	assert.Equal(t, "0xA", record.WalletAddress)
	assert.Equal(t, int64(97), record.ChainID)
	assert.Equal(t, adminAddr, record.Admin)
	assert.Equal(t, "1.5", record.Amount)
	assert.Equal(t, []string{"chargeUSDT:0xA:1.5"}, f.session.charged)

	ledger, err := f.ctrl.Charges(ctx, storage.ChargeFilter{})
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, record.TransactionHash, ledger[0].TransactionHash)
	assert.Equal(t, "1.5", ledger[0].Amount)
	assert.NotEmpty(t, ledger[0].ID)

	// the approval record is left untouched
	rec, err := f.approvals.Get(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusSuccess, rec.Status)
	assert.Empty(t, rec.TransactionHash)

	assert.True(t, hasNotice(f.ctrl.Notices(), NoticeSuccess))
}

func TestController_SubmitChargeNative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	record, err := f.ctrl.SubmitCharge(ctx, "0xA", "0.1", "BNB")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeKindBNB, record.Kind)
	assert.Equal(t, []string{"chargeBNB:0xA:0.1"}, f.session.charged)
}

func TestController_SubmitChargeRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	for _, amount := range []string{"", "0", "-3", "abc", "1e300000000", "1e-300000000"} {
		_, err := f.ctrl.SubmitCharge(ctx, "0xA", amount, "usdt")
		assert.ErrorIs(t, err, domain.ErrValidation, "amount %q", amount)
	}
	_, err = f.ctrl.SubmitCharge(ctx, "0xA", "1", "eth")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.ctrl.SubmitCharge(ctx, "", "1", "usdt")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, f.session.charged)
}

func TestController_SubmitChargeInsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.session.allowance = "1"
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	_, err = f.ctrl.SubmitCharge(ctx, "0xA", "2", "usdt")
	assert.ErrorIs(t, err, domain.ErrChainCall)
	assert.Empty(t, f.session.charged)
}

func TestController_SubmitChargeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.session.chargeErr = fmt.Errorf("%w: execution reverted", domain.ErrChainCall)
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	_, err = f.ctrl.SubmitCharge(ctx, "0xA", "1", "usdt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChainCall))

	ledger, err := f.ctrl.Charges(ctx, storage.ChargeFilter{})
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.True(t, hasNotice(f.ctrl.Notices(), NoticeError))
}

func TestController_Withdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	record, err := f.ctrl.Withdraw(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeKindWithdrawBNB, record.Kind)
	assert.Equal(t, adminAddr, record.WalletAddress)
	assert.Equal(t, []string{"withdrawBNB:" + adminAddr + ":2"}, f.session.charged)
}

func TestController_RefreshApprovalsClearsBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "0xA", domain.ApprovalStatusSuccess)
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.CheckBalance(ctx, "0xA")
	require.NoError(t, err)

	f.seed(t, "0xB", domain.ApprovalStatusSuccess)
	view, err := f.ctrl.RefreshApprovals(ctx)
	require.NoError(t, err)
	assert.Len(t, view.ApprovedUsers, 2)
	assert.Empty(t, view.UserBalances)
}

func TestController_Contract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)

	summary, err := f.ctrl.Contract(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "10", summary.TotalDeposited)
	assert.Equal(t, "7.25", summary.ContractBalance)
	assert.Empty(t, summary.UserDeposit)

	summary, err = f.ctrl.Contract(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, "0.5", summary.UserDeposit)
	assert.Equal(t, "1000", summary.UserAllowance)
}
