package domain

// BalanceRead is the outcome of a single on-chain balance read.
// A failed read keeps Value at "0" and sets Failed with a Reason, so a
// genuine zero balance can be told apart from an unavailable one.
type BalanceRead struct {
	Value  string `json:"value"`
	Failed bool   `json:"failed,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// BalanceOK builds a successful read.
func BalanceOK(value string) BalanceRead {
	return BalanceRead{Value: value}
}

// BalanceFailed builds a failed read carrying err's text.
func BalanceFailed(err error) BalanceRead {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return BalanceRead{Value: "0", Failed: true, Reason: reason}
}

// Balances holds the token (USDT) and native (BNB) balances of an address.
type Balances struct {
	Address string      `json:"address"`
	Token   BalanceRead `json:"usdtBalance"`
	Native  BalanceRead `json:"bnbBalance"`
}

// OK reports whether both reads succeeded.
func (b Balances) OK() bool {
	return !b.Token.Failed && !b.Native.Failed
}

// ZeroBalances is the placeholder shown before any read happened.
func ZeroBalances(address string) Balances {
	return Balances{Address: address, Token: BalanceOK("0"), Native: BalanceOK("0")}
}
