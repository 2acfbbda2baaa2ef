package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/chain"
)

const adminAddr = "0xAdm1n00000000000000000000000000000000001"

type fakeConnector struct {
	session *fakeSession
	err     error
	calls   int
}

func (f *fakeConnector) Connect(ctx context.Context) (chain.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.session.closed.Store(false)
	return f.session, nil
}

type fakeSession struct {
	mu sync.Mutex

	account string
	admin   string
	closed  atomic.Bool

	balances   map[string]domain.Balances
	failToken  map[string]bool
	allowance  string
	chargeErr  error
	txCounter  int
	charged    []string
	balanceHit atomic.Int32
	inFlight   atomic.Int32
	maxFlight  atomic.Int32
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		account:   adminAddr,
		admin:     adminAddr,
		balances:  map[string]domain.Balances{},
		failToken: map[string]bool{},
		allowance: "1000",
	}
}

func (s *fakeSession) Account() string         { return s.account }
func (s *fakeSession) ChainID() domain.ChainID { return domain.ChainIDBSCTestnet }
func (s *fakeSession) Connected() bool         { return !s.closed.Load() }
func (s *fakeSession) Close()                  { s.closed.Store(true) }

func (s *fakeSession) IsAdmin(ctx context.Context, address string) bool {
	return !s.closed.Load() && strings.EqualFold(address, s.admin)
}

func (s *fakeSession) GetBalances(ctx context.Context, address string) domain.Balances {
	s.balanceHit.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxFlight.Load()
		if n <= cur || s.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failToken[address] {
		return domain.Balances{
			Address: address,
			Token:   domain.BalanceFailed(fmt.Errorf("%w: node down", domain.ErrTransport)),
			Native:  domain.BalanceOK("1"),
		}
	}
	if b, ok := s.balances[address]; ok {
		return b
	}
	return domain.ZeroBalances(address)
}

func (s *fakeSession) AdminBalances(ctx context.Context) domain.Balances {
	return s.GetBalances(ctx, s.account)
}

func (s *fakeSession) Allowance(ctx context.Context, owner string) (string, error) {
	return s.allowance, nil
}

func (s *fakeSession) Charge(ctx context.Context, user, amount string) (*domain.TxResult, error) {
	return s.transact("chargeUSDT", user, amount)
}

func (s *fakeSession) ChargeNative(ctx context.Context, user, amount string) (*domain.TxResult, error) {
	return s.transact("chargeBNB", user, amount)
}

func (s *fakeSession) Withdraw(ctx context.Context, amount string) (*domain.TxResult, error) {
	return s.transact("withdrawBNB", s.account, amount)
}

func (s *fakeSession) transact(method, user, amount string) (*domain.TxResult, error) {
	if s.closed.Load() {
		return nil, domain.ErrNotConnected
	}
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCounter++
	s.charged = append(s.charged, fmt.Sprintf("%s:%s:%s", method, user, amount))
	return &domain.TxResult{
		TxHash:      fmt.Sprintf("0x%064x", s.txCounter),
		BlockNumber: uint64(100 + s.txCounter),
	}, nil
}

func (s *fakeSession) UserDepositBalance(ctx context.Context, user string) (string, error) {
	return "0.5", nil
}

func (s *fakeSession) TotalDeposited(ctx context.Context) (string, error) {
	return "10", nil
}

func (s *fakeSession) ContractBalance(ctx context.Context) (string, error) {
	return "7.25", nil
}
