package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	logger "log/slog"

	"github.com/shopspring/decimal"
	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/chain"
	"github.com/vietddude/chargedesk/internal/infra/storage"
	"github.com/vietddude/chargedesk/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Config holds dashboard tuning knobs.
type Config struct {
	NoticeTTL      time.Duration `yaml:"notice_ttl"`
	BalanceWorkers int           `yaml:"balance_workers"`
}

// View is a snapshot of what the operator sees.
type View struct {
	Connected      bool                       `json:"connected"`
	Account        string                     `json:"account,omitempty"`
	ChainID        domain.ChainID             `json:"chainId,omitempty"`
	Network        string                     `json:"network,omitempty"`
	IsAdmin        bool                       `json:"isAdmin"`
	AdminBalances  *domain.Balances           `json:"adminBalances,omitempty"`
	ApprovedUsers  []*domain.ApprovalRecord   `json:"approvedUsers"`
	UserBalances   map[string]domain.Balances `json:"userBalances"`
	SkippedRecords []string                   `json:"skippedRecords,omitempty"`
}

// ContractSummary aggregates the contract's BNB bookkeeping. User fields are
// only filled when a user address was requested.
type ContractSummary struct {
	TotalDeposited  string `json:"totalDeposited"`
	ContractBalance string `json:"contractBalance"`
	User            string `json:"user,omitempty"`
	UserDeposit     string `json:"userDeposit,omitempty"`
	UserAllowance   string `json:"userAllowance,omitempty"`
}

// Controller drives the admin dashboard: connect, admin gate, approved
// users, balance checks and charges.
type Controller struct {
	connector chain.Connector
	approvals storage.ApprovalRepository
	charges   storage.ChargeRepository
	notices   *NoticeBoard
	workers   int
	log       logger.Logger

	// connectMu serializes Activate and Disconnect
	connectMu sync.Mutex

	mu            sync.RWMutex
	session       chain.Session
	isAdmin       bool
	adminBalances *domain.Balances
	approved      []*domain.ApprovalRecord
	skipped       []string
	userBalances  map[string]domain.Balances
}

func NewController(
	connector chain.Connector,
	approvals storage.ApprovalRepository,
	charges storage.ChargeRepository,
	cfg Config,
) *Controller {
	workers := cfg.BalanceWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Controller{
		connector:    connector,
		approvals:    approvals,
		charges:      charges,
		notices:      NewNoticeBoard(cfg.NoticeTTL),
		workers:      workers,
		log:          *logger.Default().With("component", "dashboard"),
		userBalances: make(map[string]domain.Balances),
	}
}

// Activate connects the wallet, checks the admin role and, for the admin,
// loads approved users and the admin's balances. A previous session is
// replaced.
func (c *Controller) Activate(ctx context.Context) (View, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.connector == nil {
		c.fail("Failed to connect wallet", domain.ErrProviderMissing)
		return c.View(), domain.ErrProviderMissing
	}

	session, err := c.connector.Connect(ctx)
	if err != nil {
		c.fail("Failed to connect wallet", err)
		return c.View(), err
	}

	isAdmin := session.IsAdmin(ctx, session.Account())

	var (
		approved []*domain.ApprovalRecord
		skipped  []string
		balances *domain.Balances
	)
	if isAdmin {
		approved, skipped, err = c.loadApproved(ctx)
		if err != nil {
			c.fail("Failed to load approved users", err)
		}
		b := session.AdminBalances(ctx)
		balances = &b
	} else {
		c.notices.Post(NoticeError, "Access denied: connected account is not the contract admin")
	}

	c.mu.Lock()
	if c.session != nil && c.session != session {
		c.session.Close()
	}
	c.session = session
	c.isAdmin = isAdmin
	c.adminBalances = balances
	c.approved = approved
	c.skipped = skipped
	c.userBalances = make(map[string]domain.Balances)
	c.mu.Unlock()

	c.log.Info("Dashboard activated",
		"account", session.Account(),
		"network", session.ChainID().Name(),
		"admin", isAdmin,
		"approved_users", len(approved),
	)
	return c.View(), nil
}

// Disconnect closes the session and clears all view state.
func (c *Controller) Disconnect() {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Close()
	}
	c.session = nil
	c.isAdmin = false
	c.adminBalances = nil
	c.approved = nil
	c.skipped = nil
	c.userBalances = make(map[string]domain.Balances)
}

func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		IsAdmin:        c.isAdmin,
		ApprovedUsers:  append([]*domain.ApprovalRecord{}, c.approved...),
		UserBalances:   make(map[string]domain.Balances, len(c.userBalances)),
		SkippedRecords: append([]string(nil), c.skipped...),
	}
	if c.session != nil && c.session.Connected() {
		v.Connected = true
		v.Account = c.session.Account()
		v.ChainID = c.session.ChainID()
		v.Network = v.ChainID.Name()
	}
	if c.adminBalances != nil {
		b := *c.adminBalances
		v.AdminBalances = &b
	}
	for addr, b := range c.userBalances {
		v.UserBalances[addr] = b
	}
	return v
}

// Connected reports whether a live session is held.
func (c *Controller) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil && c.session.Connected()
}

// RefreshApprovals reloads the approved users and drops cached balances.
func (c *Controller) RefreshApprovals(ctx context.Context) (View, error) {
	if _, err := c.adminSession(); err != nil {
		c.fail("Failed to load approved users", err)
		return c.View(), err
	}

	approved, skipped, err := c.loadApproved(ctx)
	if err != nil {
		c.fail("Failed to load approved users", err)
		return c.View(), err
	}

	c.mu.Lock()
	c.approved = approved
	c.skipped = skipped
	c.userBalances = make(map[string]domain.Balances)
	c.mu.Unlock()
	return c.View(), nil
}

// CheckBalance reads one address's balances and caches the result.
func (c *Controller) CheckBalance(ctx context.Context, address string) (domain.Balances, error) {
	session, err := c.adminSession()
	if err != nil {
		c.fail("Failed to check balance", err)
		return domain.Balances{}, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		err := domain.Validationf("walletAddress is required")
		c.fail("Failed to check balance", err)
		return domain.Balances{}, err
	}

	b := session.GetBalances(ctx, address)
	c.storeBalances(b)
	if !b.OK() {
		c.notices.Post(NoticeError, fmt.Sprintf("Failed to check balance for %s: %s", address, failureReason(b)))
	}
	return b, nil
}

// CheckAllBalances reads balances for every approved user with bounded
// parallelism. Every item is reported; failures never abort the batch.
func (c *Controller) CheckAllBalances(ctx context.Context) ([]domain.Balances, error) {
	session, err := c.adminSession()
	if err != nil {
		c.fail("Failed to check balances", err)
		return nil, err
	}

	c.mu.RLock()
	approved := append([]*domain.ApprovalRecord{}, c.approved...)
	c.mu.RUnlock()

	results := make([]domain.Balances, len(approved))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, rec := range approved {
		g.Go(func() error {
			results[i] = session.GetBalances(gctx, rec.WalletAddress)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, b := range results {
		c.storeBalances(b)
		if !b.OK() {
			failed++
		}
	}
	if failed > 0 {
		c.notices.Post(NoticeError, fmt.Sprintf("Failed to check %d of %d balances", failed, len(results)))
	}
	return results, nil
}

// SubmitCharge charges amount of asset from address. On confirmation the
// charge is recorded in the ledger and the admin balances are re-read.
func (c *Controller) SubmitCharge(ctx context.Context, address, amount, asset string) (*domain.ChargeRecord, error) {
	kind, err := domain.ParseChargeAsset(asset)
	if err != nil {
		c.fail("Failed to charge user", err)
		return nil, err
	}
	session, err := c.adminSession()
	if err != nil {
		c.fail("Failed to charge user", err)
		return nil, err
	}

	address = strings.TrimSpace(address)
	if address == "" {
		err := domain.Validationf("walletAddress is required")
		c.fail("Failed to charge user", err)
		return nil, err
	}
	value, err := parsePositive(amount)
	if err != nil {
		c.fail("Failed to charge user", err)
		return nil, err
	}
	amount = value.String()

	var result *domain.TxResult
	switch kind {
	case domain.ChargeKindBNB:
		result, err = session.ChargeNative(ctx, address, amount)
	default:
		if err = c.checkAllowance(ctx, session, address, value); err == nil {
			result, err = session.Charge(ctx, address, amount)
		}
	}
	metrics.ChargesTotal.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	if err != nil {
		c.fail("Failed to charge user", err)
		return nil, err
	}

	record := c.record(ctx, session, kind, address, amount, result)

	c.refreshAdminBalances(ctx, session)
	c.storeBalances(session.GetBalances(ctx, address))

	c.notices.Post(NoticeSuccess, fmt.Sprintf("Successfully charged %s %s from %s (tx %s)",
		amount, assetLabel(kind), address, result.TxHash))
	return record, nil
}

// Withdraw moves amount of accumulated BNB from the contract to the admin.
func (c *Controller) Withdraw(ctx context.Context, amount string) (*domain.ChargeRecord, error) {
	session, err := c.adminSession()
	if err != nil {
		c.fail("Failed to withdraw", err)
		return nil, err
	}
	value, err := parsePositive(amount)
	if err != nil {
		c.fail("Failed to withdraw", err)
		return nil, err
	}
	amount = value.String()

	result, err := session.Withdraw(ctx, amount)
	metrics.ChargesTotal.WithLabelValues(string(domain.ChargeKindWithdrawBNB), metrics.Result(err)).Inc()
	if err != nil {
		c.fail("Failed to withdraw", err)
		return nil, err
	}

	record := c.record(ctx, session, domain.ChargeKindWithdrawBNB, session.Account(), amount, result)
	c.refreshAdminBalances(ctx, session)
	c.notices.Post(NoticeSuccess, fmt.Sprintf("Successfully withdrew %s BNB (tx %s)", amount, result.TxHash))
	return record, nil
}

// Charges lists ledger entries, newest first.
func (c *Controller) Charges(ctx context.Context, filter storage.ChargeFilter) ([]*domain.ChargeRecord, error) {
	return c.charges.List(ctx, filter)
}

// Contract reads the contract's deposit bookkeeping, and user's deposit and
// token allowance when user is non-empty.
func (c *Controller) Contract(ctx context.Context, user string) (*ContractSummary, error) {
	session, err := c.adminSession()
	if err != nil {
		return nil, err
	}

	summary := &ContractSummary{}
	if summary.TotalDeposited, err = session.TotalDeposited(ctx); err != nil {
		c.fail("Failed to read contract", err)
		return nil, err
	}
	if summary.ContractBalance, err = session.ContractBalance(ctx); err != nil {
		c.fail("Failed to read contract", err)
		return nil, err
	}

	user = strings.TrimSpace(user)
	if user == "" {
		return summary, nil
	}
	summary.User = user
	if summary.UserDeposit, err = session.UserDepositBalance(ctx, user); err != nil {
		c.fail("Failed to read user deposit", err)
		return nil, err
	}
	if summary.UserAllowance, err = session.Allowance(ctx, user); err != nil {
		c.fail("Failed to read user allowance", err)
		return nil, err
	}
	return summary, nil
}

// Notices returns the live notices.
func (c *Controller) Notices() []Notice {
	return c.notices.Active()
}

// SessionStatus reports the held session for health checks.
func (c *Controller) SessionStatus() (connected bool, account string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || !c.session.Connected() {
		return false, ""
	}
	return true, c.session.Account()
}

func (c *Controller) adminSession() (chain.Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || !c.session.Connected() {
		return nil, domain.ErrNotConnected
	}
	if !c.isAdmin {
		return nil, domain.ErrNotAdmin
	}
	return c.session, nil
}

func (c *Controller) loadApproved(ctx context.Context) ([]*domain.ApprovalRecord, []string, error) {
	list, err := c.approvals.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	approved := domain.FilterByStatus(list.Records, domain.ApprovalStatusSuccess)
	sort.Slice(approved, func(i, j int) bool {
		return approved[i].WalletAddress < approved[j].WalletAddress
	})
	if len(list.Skipped) > 0 {
		c.log.Warn("Approval records skipped", "count", len(list.Skipped))
	}
	return approved, list.Skipped, nil
}

// checkAllowance fails early when the user's allowance is known to be too
// small. An unreadable allowance is left for the chain to judge.
func (c *Controller) checkAllowance(ctx context.Context, session chain.Session, user string, want decimal.Decimal) error {
	raw, err := session.Allowance(ctx, user)
	if err != nil {
		c.log.Warn("Allowance read failed", "address", user, "error", err)
		return nil
	}
	allowance, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	if allowance.LessThan(want) {
		return fmt.Errorf("%w: insufficient allowance (%s approved, %s requested)",
			domain.ErrChainCall, allowance.String(), want.String())
	}
	return nil
}

func (c *Controller) record(
	ctx context.Context,
	session chain.Session,
	kind domain.ChargeKind,
	address, amount string,
	result *domain.TxResult,
) *domain.ChargeRecord {
	record := &domain.ChargeRecord{
		Kind:            kind,
		WalletAddress:   address,
		Amount:          amount,
		TransactionHash: result.TxHash,
		BlockNumber:     result.BlockNumber,
		ChainID:         int64(session.ChainID()),
		Admin:           session.Account(),
	}
	if err := c.charges.Add(ctx, record); err != nil {
		// the transaction is confirmed, only the ledger entry is missing
		c.log.Error("Failed to record charge", "tx", result.TxHash, "error", err)
		c.notices.Post(NoticeError, fmt.Sprintf("Charge confirmed in tx %s but could not be recorded: %v", result.TxHash, err))
	}
	return record
}

func (c *Controller) refreshAdminBalances(ctx context.Context, session chain.Session) {
	b := session.AdminBalances(ctx)
	c.mu.Lock()
	c.adminBalances = &b
	c.mu.Unlock()
}

func (c *Controller) storeBalances(b domain.Balances) {
	c.mu.Lock()
	c.userBalances[b.Address] = b
	c.mu.Unlock()
}

func (c *Controller) fail(action string, err error) {
	c.log.Warn(action, "error", err)
	c.notices.Post(NoticeError, fmt.Sprintf("%s: %v", action, err))
}

func parsePositive(amount string) (decimal.Decimal, error) {
	return domain.ParseAmount(amount, domain.TokenDecimals)
}

func failureReason(b domain.Balances) string {
	if b.Token.Failed {
		return b.Token.Reason
	}
	return b.Native.Reason
}

func assetLabel(kind domain.ChargeKind) string {
	if kind == domain.ChargeKindBNB {
		return "BNB"
	}
	return "USDT"
}
