package clients

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// erc20ABIJSON minimal ERC-20 fragments: decimals, symbol, transfer
const erc20ABIJSON = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// TransferEventSignature canonical ERC-20 Transfer event signature
const TransferEventSignature = "Transfer(address,address,uint256)"

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ERC-20 ABI: %v", err))
	}
	return parsed
}

// PackTransfer encodes transfer(to, value) calldata
func PackTransfer(to common.Address, value *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, value)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer call: %w", err)
	}
	return data, nil
}

// TransferEventSelector returns the first 4 bytes of keccak256("Transfer(address,address,uint256)")
func TransferEventSelector() [4]byte {
	var selector [4]byte
	copy(selector[:], crypto.Keccak256([]byte(TransferEventSignature))[:4])
	return selector
}

func unpackDecimals(out []byte) (uint8, error) {
	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("failed to decode decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unexpected decimals output length %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals output type %T", values[0])
	}
	return decimals, nil
}

func unpackSymbol(out []byte) (string, error) {
	values, err := erc20ABI.Unpack("symbol", out)
	if err != nil {
		return "", fmt.Errorf("failed to decode symbol: %w", err)
	}
	if len(values) != 1 {
		return "", fmt.Errorf("unexpected symbol output length %d", len(values))
	}
	symbol, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected symbol output type %T", values[0])
	}
	return symbol, nil
}
