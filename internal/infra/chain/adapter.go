package chain

import (
	"context"

	"github.com/vietddude/chargedesk/internal/core/domain"
)

// Connector opens wallet sessions against the approval contract.
type Connector interface {
	// Connect requests account access from the wallet and binds the
	// contract handles. It fails with domain.ErrProviderMissing,
	// domain.ErrUserRejected or domain.ErrWrongNetwork.
	Connect(ctx context.Context) (Session, error)
}

// Session is the capability returned by Connect. All chain operations go
// through it; after Close every call fails with domain.ErrNotConnected.
type Session interface {
	// Account returns the connected account address
	Account() string

	// ChainID returns the network the session is bound to
	ChainID() domain.ChainID

	// Connected reports whether Close has not been called yet
	Connected() bool

	// IsAdmin compares address with the contract admin, case-insensitively.
	// Any failure yields false.
	IsAdmin(ctx context.Context, address string) bool

	// GetBalances reads token and native balances independently
	GetBalances(ctx context.Context, address string) domain.Balances

	// AdminBalances is GetBalances for the connected account
	AdminBalances(ctx context.Context) domain.Balances

	// Allowance returns how much of owner's token the contract may spend
	Allowance(ctx context.Context, owner string) (string, error)

	// Charge moves amount USDT from user's approved allowance and waits for confirmation
	Charge(ctx context.Context, user, amount string) (*domain.TxResult, error)

	// ChargeNative charges amount from user's deposited BNB
	ChargeNative(ctx context.Context, user, amount string) (*domain.TxResult, error)

	// Withdraw sends amount of accumulated BNB to the admin
	Withdraw(ctx context.Context, amount string) (*domain.TxResult, error)

	UserDepositBalance(ctx context.Context, user string) (string, error)
	TotalDeposited(ctx context.Context) (string, error)
	ContractBalance(ctx context.Context) (string, error)

	// Close drops the bound handles. Safe to call more than once.
	Close()
}
