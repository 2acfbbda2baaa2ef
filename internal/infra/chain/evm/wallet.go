package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Config describes the node, signing key and contract addresses.
type Config struct {
	RPCURL          string        `yaml:"rpc_url"`
	PrivateKey      string        `yaml:"private_key"`
	ContractAddress string        `yaml:"contract_address"`
	TokenAddress    string        `yaml:"token_address"`
	ReceiptPoll     time.Duration `yaml:"receipt_poll"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
}

// Backend is the node surface the gateway needs. *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Wallet exposes accounts and signs on their behalf.
type Wallet interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	Backend() Backend
	SignTx(account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeyWallet is a single-key wallet. Without a key it exposes no accounts,
// which Connect reports as a rejected request.
type KeyWallet struct {
	backend Backend
	key     *ecdsa.PrivateKey
	address common.Address
	client  *ethclient.Client
}

// NewKeyWallet wraps backend with the hex-encoded private key, if any.
func NewKeyWallet(backend Backend, privateKeyHex string) (*KeyWallet, error) {
	w := &KeyWallet{backend: backend}
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return w, nil
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	w.key = key
	w.address = crypto.PubkeyToAddress(key.PublicKey)
	return w, nil
}

// DialKeyWallet connects to the node at rpcURL and loads the key.
func DialKeyWallet(ctx context.Context, rpcURL, privateKeyHex string) (*KeyWallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node: %w", err)
	}

	w, err := NewKeyWallet(client, privateKeyHex)
	if err != nil {
		client.Close()
		return nil, err
	}
	w.client = client
	return w, nil
}

func (w *KeyWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	if w.key == nil {
		return nil, nil
	}
	return []common.Address{w.address}, nil
}

func (w *KeyWallet) Backend() Backend {
	return w.backend
}

func (w *KeyWallet) SignTx(
	account common.Address,
	tx *types.Transaction,
	chainID *big.Int,
) (*types.Transaction, error) {
	if w.key == nil || account != w.address {
		return nil, fmt.Errorf("account %s is not managed by this wallet", account.Hex())
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}

// Close releases the node connection when the wallet dialed it.
func (w *KeyWallet) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
