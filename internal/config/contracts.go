// Token contract address table
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultNativeSymbol native coin symbol used when blockchain.nativeSymbol is unset.
const DefaultNativeSymbol = "ETH"

// ErrUnsupportedToken is returned for symbols missing from the token table.
var ErrUnsupportedToken = errors.New("unsupported token")

// TokenAddresses token contract address mapping
type TokenAddresses map[string]string

// tokenContracts is compiled in and never loaded from disk.
var tokenContracts = TokenAddresses{
	"USDC": "0x65aFADD39029741B3b8f0756952C74678c9cEC93",
	"USDT": "0xD9BA894E0097f8cC2BBc9D24D308b98e36dc6D02",
	"LINK": "0xAb2059ADBC674c9F2AAc2f11A423010fcd397A6C",
}

// ResolveToken maps an asset symbol to its contract address.
// A nil address with a nil error means the native coin named by native.
func ResolveToken(symbol, native string) (*common.Address, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == strings.ToUpper(native) {
		return nil, nil
	}

	raw, ok := tokenContracts[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedToken, symbol)
	}
	addr := common.HexToAddress(raw)
	return &addr, nil
}

// SupportedAssets lists the native symbol followed by token symbols in order.
func SupportedAssets(native string) []string {
	symbols := make([]string, 0, len(tokenContracts))
	for symbol := range tokenContracts {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return append([]string{strings.ToUpper(native)}, symbols...)
}
