package domain

import "time"

// ChargeKind identifies which state-changing contract call produced a charge.
type ChargeKind string

const (
	ChargeKindUSDT        ChargeKind = "usdt"
	ChargeKindBNB         ChargeKind = "bnb"
	ChargeKindWithdrawBNB ChargeKind = "withdraw_bnb"
)

// ParseChargeAsset maps the dashboard's asset selector onto a ChargeKind.
// An empty asset means USDT.
func ParseChargeAsset(asset string) (ChargeKind, error) {
	switch asset {
	case "", "usdt", "USDT":
		return ChargeKindUSDT, nil
	case "bnb", "BNB":
		return ChargeKindBNB, nil
	}
	return "", Validationf("unsupported asset %q", asset)
}

// TxResult is what the chain reports for a confirmed transaction.
type TxResult struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

// ChargeRecord is a ledger entry for a confirmed charge or withdrawal.
type ChargeRecord struct {
	ID              string     `json:"id"              db:"id"`
	Kind            ChargeKind `json:"kind"            db:"kind"`
	WalletAddress   string     `json:"walletAddress"   db:"wallet_address"`
	Amount          string     `json:"amount"          db:"amount"`
	TransactionHash string     `json:"transactionHash" db:"tx_hash"`
	BlockNumber     uint64     `json:"blockNumber"     db:"block_number"`
	ChainID         int64      `json:"chainId"         db:"chain_id"`
	Admin           string     `json:"admin"           db:"admin_address"`
	CreatedAt       time.Time  `json:"createdAt"       db:"created_at"`
}
