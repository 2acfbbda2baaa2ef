package domain

// ChainID is an EVM network identifier.
type ChainID int64

const (
	ChainIDBSCMainnet ChainID = 56
	ChainIDBSCTestnet ChainID = 97
)

// ChainIDToName maps the accepted networks to display names.
var ChainIDToName = map[ChainID]string{
	ChainIDBSCMainnet: "BSC_MAINNET",
	ChainIDBSCTestnet: "BSC_TESTNET",
}

// Accepted reports whether the dashboard may operate on this network.
func (c ChainID) Accepted() bool {
	_, ok := ChainIDToName[c]
	return ok
}

func (c ChainID) Name() string {
	if name, ok := ChainIDToName[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// TokenDecimals is the fixed-point scale of both USDT (BEP-20) and BNB.
const TokenDecimals = 18
