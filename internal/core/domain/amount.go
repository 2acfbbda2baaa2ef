package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits is the decimal width of a uint256.
const maxAmountDigits = 78

// ParseAmount validates a human-entered amount: positive, at most decimals
// fractional digits, and small enough to fit a uint256 once scaled. The
// check works on the coefficient and exponent only, so inputs such as
// "1e300000000" are rejected without ever being expanded.
func ParseAmount(amount string, decimals int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return decimal.Zero, Validationf("amount is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, Validationf("invalid amount %q", amount)
	}
	if d.Sign() <= 0 {
		return decimal.Zero, Validationf("amount must be greater than 0")
	}

	coef := d.Coefficient()
	exp := d.Exponent()
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	// trailing zeros beyond the allowed scale are harmless ("1.50000")
	for exp < -decimals {
		q.QuoRem(coef, ten, r)
		if r.Sign() != 0 {
			return decimal.Zero, Validationf("amount %q has more than %d decimal places", amount, decimals)
		}
		coef, q = q, coef
		exp++
	}
	if int64(len(coef.String()))+int64(exp)+int64(decimals) > maxAmountDigits {
		return decimal.Zero, Validationf("amount %q is too large", amount)
	}
	return decimal.NewFromBigInt(coef, exp), nil
}
