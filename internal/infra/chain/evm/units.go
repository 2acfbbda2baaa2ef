package evm

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/vietddude/chargedesk/internal/core/domain"
)

// ParseAmount converts a human decimal amount into base units. The amount
// must be positive and carry no more fractional digits than decimals.
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
	d, err := domain.ParseAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).BigInt(), nil
}

// FormatAmount renders base units as a decimal string ("0" for zero or nil).
func FormatAmount(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}
