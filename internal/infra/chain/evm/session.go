package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	logger "log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vietddude/chargedesk/internal/core/domain"
	"github.com/vietddude/chargedesk/internal/metrics"
)

type boundContract struct {
	address common.Address
	abi     abi.ABI
}

// Session is a connected wallet bound to the contract and token.
type Session struct {
	mu      sync.RWMutex
	closed  bool
	// txMu serializes nonce allocation through broadcast.
	txMu    sync.Mutex
	wallet  Wallet
	backend Backend

	account  common.Address
	chainID  *big.Int
	contract boundContract
	token    boundContract

	receiptPoll    time.Duration
	confirmTimeout time.Duration
	log            logger.Logger
}

func (s *Session) Account() string {
	return s.account.Hex()
}

func (s *Session) ChainID() domain.ChainID {
	return domain.ChainID(s.chainID.Int64())
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.backend = nil
	s.wallet = nil
	s.log.Info("Wallet disconnected", "account", s.account.Hex())
}

func (s *Session) handles() (Backend, Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, domain.ErrNotConnected
	}
	return s.backend, s.wallet, nil
}

func (s *Session) IsAdmin(ctx context.Context, address string) bool {
	vals, err := s.call(ctx, s.contract, "getAdmin")
	if err != nil {
		s.log.Warn("Admin lookup failed", "error", err)
		return false
	}
	admin, ok := vals[0].(common.Address)
	if !ok {
		return false
	}
	return strings.EqualFold(admin.Hex(), strings.TrimSpace(address))
}

func (s *Session) GetBalances(ctx context.Context, address string) domain.Balances {
	out := domain.Balances{Address: address}
	if !common.IsHexAddress(address) {
		err := domain.Validationf("invalid address %q", address)
		out.Token = domain.BalanceFailed(err)
		out.Native = domain.BalanceFailed(err)
		return out
	}
	addr := common.HexToAddress(address)

	if v, err := s.callUint(ctx, s.token, "balanceOf", addr); err != nil {
		s.log.Warn("Token balance read failed", "address", address, "error", err)
		out.Token = domain.BalanceFailed(err)
	} else {
		out.Token = domain.BalanceOK(FormatAmount(v, domain.TokenDecimals))
	}

	if v, err := s.nativeBalance(ctx, addr); err != nil {
		s.log.Warn("Native balance read failed", "address", address, "error", err)
		out.Native = domain.BalanceFailed(err)
	} else {
		out.Native = domain.BalanceOK(FormatAmount(v, domain.TokenDecimals))
	}
	return out
}

func (s *Session) AdminBalances(ctx context.Context) domain.Balances {
	return s.GetBalances(ctx, s.account.Hex())
}

func (s *Session) Allowance(ctx context.Context, owner string) (string, error) {
	if !common.IsHexAddress(owner) {
		return "", domain.Validationf("invalid address %q", owner)
	}
	v, err := s.callUint(ctx, s.token, "allowance", common.HexToAddress(owner), s.contract.address)
	if err != nil {
		return "", err
	}
	return FormatAmount(v, domain.TokenDecimals), nil
}

func (s *Session) Charge(ctx context.Context, user, amount string) (*domain.TxResult, error) {
	return s.chargeUser(ctx, "chargeUSDT", user, amount)
}

func (s *Session) ChargeNative(ctx context.Context, user, amount string) (*domain.TxResult, error) {
	return s.chargeUser(ctx, "chargeBNB", user, amount)
}

func (s *Session) chargeUser(ctx context.Context, method, user, amount string) (*domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return nil, domain.Validationf("invalid wallet address %q", user)
	}
	value, err := ParseAmount(amount, domain.TokenDecimals)
	if err != nil {
		return nil, err
	}
	return s.transact(ctx, s.contract, method, common.HexToAddress(user), value)
}

func (s *Session) Withdraw(ctx context.Context, amount string) (*domain.TxResult, error) {
	value, err := ParseAmount(amount, domain.TokenDecimals)
	if err != nil {
		return nil, err
	}
	return s.transact(ctx, s.contract, "withdrawBNB", value)
}

func (s *Session) UserDepositBalance(ctx context.Context, user string) (string, error) {
	if !common.IsHexAddress(user) {
		return "", domain.Validationf("invalid wallet address %q", user)
	}
	v, err := s.callUint(ctx, s.contract, "getUserBNBBalance", common.HexToAddress(user))
	if err != nil {
		return "", err
	}
	return FormatAmount(v, domain.TokenDecimals), nil
}

func (s *Session) TotalDeposited(ctx context.Context) (string, error) {
	v, err := s.callUint(ctx, s.contract, "getTotalDepositedBNB")
	if err != nil {
		return "", err
	}
	return FormatAmount(v, domain.TokenDecimals), nil
}

func (s *Session) ContractBalance(ctx context.Context) (string, error) {
	v, err := s.callUint(ctx, s.contract, "getContractBalance")
	if err != nil {
		return "", err
	}
	return FormatAmount(v, domain.TokenDecimals), nil
}

func (s *Session) nativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	backend, _, err := s.handles()
	if err != nil {
		return nil, err
	}
	v, err := backend.BalanceAt(ctx, addr, nil)
	metrics.ChainCallsTotal.WithLabelValues("eth_getBalance", metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: eth_getBalance: %v", domain.ErrTransport, err)
	}
	return v, nil
}

// call runs a read-only contract method and returns its unpacked outputs.
func (s *Session) call(ctx context.Context, c boundContract, method string, args ...any) ([]any, error) {
	backend, _, err := s.handles()
	if err != nil {
		return nil, err
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	to := c.address
	raw, err := backend.CallContract(ctx, ethereum.CallMsg{From: s.account, To: &to, Data: data}, nil)
	metrics.ChainCallsTotal.WithLabelValues(method, metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTransport, method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data (no contract at %s?)", domain.ErrTransport, method, to.Hex())
	}

	vals, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", domain.ErrTransport, method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: %s returned no values", domain.ErrTransport, method)
	}
	return vals, nil
}

func (s *Session) callUint(ctx context.Context, c boundContract, method string, args ...any) (*big.Int, error) {
	vals, err := s.call(ctx, c, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T", domain.ErrTransport, method, vals[0])
	}
	return v, nil
}

// transact signs and sends a contract call, then waits for its receipt.
func (s *Session) transact(ctx context.Context, c boundContract, method string, args ...any) (*domain.TxResult, error) {
	backend, wallet, err := s.handles()
	if err != nil {
		return nil, err
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", domain.ErrChainCall, method, err)
	}
	to := c.address

	signed, err := s.send(ctx, backend, wallet, method, to, data)
	if err != nil {
		return nil, err
	}

	receipt, err := s.waitMined(ctx, backend, signed.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for %s: %v", domain.ErrChainCall, signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s reverted in tx %s", domain.ErrChainCall, method, signed.Hash().Hex())
	}

	result := &domain.TxResult{TxHash: signed.Hash().Hex()}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	s.log.Info("Transaction confirmed", "method", method, "tx", result.TxHash, "block", result.BlockNumber)
	return result, nil
}

// send signs and broadcasts one transaction. The pending nonce is read and
// consumed under txMu, so concurrent writes from one session never share it.
func (s *Session) send(
	ctx context.Context,
	backend Backend,
	wallet Wallet,
	method string,
	to common.Address,
	data []byte,
) (*types.Transaction, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	nonce, err := backend.PendingNonceAt(ctx, s.account)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", domain.ErrChainCall, err)
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %v", domain.ErrChainCall, err)
	}
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     s.account,
		To:       &to,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		// reverts such as an insufficient allowance surface here
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrChainCall, method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := wallet.SignTx(s.account, tx, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %v", domain.ErrChainCall, err)
	}

	err = backend.SendTransaction(ctx, signed)
	metrics.ChainCallsTotal.WithLabelValues(method, metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%w: send %s: %v", domain.ErrChainCall, method, err)
	}
	s.log.Info("Transaction sent", "method", method, "tx", signed.Hash().Hex(), "nonce", nonce)
	return signed, nil
}

func (s *Session) waitMined(ctx context.Context, backend Backend, hash common.Hash) (*types.Receipt, error) {
	if s.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
