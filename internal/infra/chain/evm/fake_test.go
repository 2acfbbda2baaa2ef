package evm

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	testContract = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken    = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeBackend answers contract calls by decoding the selector against the
// embedded ABIs and packing canned outputs.
type fakeBackend struct {
	mu sync.Mutex

	chainID *big.Int
	admin   common.Address

	tokenBalances  map[common.Address]*big.Int
	nativeBalances map[common.Address]*big.Int
	deposits       map[common.Address]*big.Int
	allowance      *big.Int
	totalDeposited *big.Int
	contractBal    *big.Int

	callErr     map[string]error
	nativeErr   error
	estimateErr error
	sendErr     error

	nonceDelay time.Duration

	pendingReceipts int
	receiptStatus   uint64
	blockNumber     int64

	sent []*types.Transaction
}

func newFakeBackend(chainID int64) *fakeBackend {
	return &fakeBackend{
		chainID:        big.NewInt(chainID),
		tokenBalances:  map[common.Address]*big.Int{},
		nativeBalances: map[common.Address]*big.Int{},
		deposits:       map[common.Address]*big.Int{},
		allowance:      big.NewInt(0),
		totalDeposited: big.NewInt(0),
		contractBal:    big.NewInt(0),
		callErr:        map[string]error{},
		receiptStatus:  types.ReceiptStatusSuccessful,
		blockNumber:    1234,
	}
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if f.nativeErr != nil {
		return nil, f.nativeErr
	}
	return orZero(f.nativeBalances[account]), nil
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed := contractABI
	if *msg.To == testToken {
		parsed = tokenABI
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if err := f.callErr[method.Name]; err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	var out any
	switch method.Name {
	case "getAdmin":
		out = f.admin
	case "balanceOf":
		out = orZero(f.tokenBalances[args[0].(common.Address)])
	case "allowance":
		out = f.allowance
	case "getUserBNBBalance":
		out = orZero(f.deposits[args[0].(common.Address)])
	case "getTotalDepositedBNB":
		out = f.totalDeposited
	case "getContractBalance":
		out = f.contractBal
	default:
		return nil, errors.New("unexpected call " + method.Name)
	}
	return method.Outputs.Pack(out)
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	time.Sleep(f.nonceDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(3_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 90_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingReceipts > 0 {
		f.pendingReceipts--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		Status:      f.receiptStatus,
		TxHash:      hash,
		BlockNumber: big.NewInt(f.blockNumber),
	}, nil
}

func (f *fakeBackend) lastSent(t *testing.T) (*abi.Method, []any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("no transaction sent")
	}
	data := f.sent[len(f.sent)-1].Data()
	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		t.Fatalf("unknown selector: %v", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack args: %v", err)
	}
	return method, args
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// fakeWallet lets tests control the account list.
type fakeWallet struct {
	*KeyWallet
	accounts    []common.Address
	accountsErr error
}

func (w *fakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if w.accountsErr != nil {
		return nil, w.accountsErr
	}
	return w.accounts, nil
}

func newTestWallet(t *testing.T, backend Backend) *KeyWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	w, err := NewKeyWallet(backend, common.Bytes2Hex(crypto.FromECDSA(key)))
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}
	return w
}

func testConfig() Config {
	return Config{
		ContractAddress: testContract.Hex(),
		TokenAddress:    testToken.Hex(),
		ReceiptPoll:     time.Millisecond,
	}
}
