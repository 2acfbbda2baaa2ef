package evm

import (
	"context"
	"fmt"
	"time"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/infra/chain"
)

const defaultReceiptPoll = 2 * time.Second

var (
	_ chain.Connector = (*Gateway)(nil)
	_ chain.Session   = (*Session)(nil)
)

// Gateway opens sessions against the approval contract through a wallet.
type Gateway struct {
	cfg    Config
	wallet Wallet
	log    logger.Logger
}

// NewGateway builds a gateway. A nil wallet makes every Connect fail with
// domain.ErrProviderMissing.
func NewGateway(cfg Config, wallet Wallet) *Gateway {
	if cfg.ReceiptPoll <= 0 {
		cfg.ReceiptPoll = defaultReceiptPoll
	}
	return &Gateway{
		cfg:    cfg,
		wallet: wallet,
		log:    *logger.Default().With("component", "chain_gateway"),
	}
}

func (g *Gateway) Connect(ctx context.Context) (chain.Session, error) {
	if g.wallet == nil {
		return nil, domain.ErrProviderMissing
	}

	accounts, err := g.wallet.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUserRejected, err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrUserRejected
	}

	backend := g.wallet.Backend()
	id, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", domain.ErrTransport, err)
	}
	chainID := domain.ChainID(id.Int64())
	if !chainID.Accepted() {
		return nil, fmt.Errorf("%w (got chain id %d)", domain.ErrWrongNetwork, id.Int64())
	}

	if !common.IsHexAddress(g.cfg.ContractAddress) || !common.IsHexAddress(g.cfg.TokenAddress) {
		return nil, domain.Validationf("contract and token addresses must be configured")
	}

	s := &Session{
		wallet:         g.wallet,
		backend:        backend,
		account:        accounts[0],
		chainID:        id,
		contract:       boundContract{address: common.HexToAddress(g.cfg.ContractAddress), abi: contractABI},
		token:          boundContract{address: common.HexToAddress(g.cfg.TokenAddress), abi: tokenABI},
		receiptPoll:    g.cfg.ReceiptPoll,
		confirmTimeout: g.cfg.ConfirmTimeout,
		log:            g.log,
	}
	g.log.Info("Wallet connected",
		"account", s.account.Hex(),
		"network", chainID.Name(),
	)
	return s, nil
}
