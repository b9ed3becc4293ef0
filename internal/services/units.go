package services

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NativeDecimals smallest-unit exponent of the native coin (wei)
	NativeDecimals = 18
	// NativeTransferGas fixed gas limit of a plain value transfer
	NativeTransferGas uint64 = 21000

	marginNumerator   = 125
	marginDenominator = 100
)

// ParseAmount parses an arbitrary-precision positive decimal string
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be greater than zero", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// ToBaseUnits returns floor(amount * 10^decimals)
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Floor().BigInt()
}

// FromBaseUnits renders value / 10^decimals exactly, without trailing zeros
func FromBaseUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// ApplyMargin returns floor(x * 1.25)
func ApplyMargin(x *big.Int) *big.Int {
	out := new(big.Int).Mul(x, big.NewInt(marginNumerator))
	return out.Quo(out, big.NewInt(marginDenominator))
}

// ApplyGasMargin returns floor(gas * 1.25)
func ApplyGasMargin(gas uint64) uint64 {
	return ApplyMargin(new(big.Int).SetUint64(gas)).Uint64()
}
