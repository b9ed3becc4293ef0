package services

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(" 1.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1.5", amount.String())

	for _, raw := range []string{"", "abc", "1.2.3", "0", "0.000", "-5"} {
		_, err := ParseAmount(raw)
		assert.True(t, errors.Is(err, ErrInvalidAmount), "amount %q", raw)
	}
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.0", 18, "1000000000000000000"},
		{"5", 6, "5000000"},
		{"0.0000001", 6, "0"},
		{"1.2345678", 6, "1234567"},
		{"123456789012345678901234567890", 0, "123456789012345678901234567890"},
	}
	for _, tt := range tests {
		amount, err := ParseAmount(tt.amount)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ToBaseUnits(amount, tt.decimals).String(), tt.amount)
	}
}

func TestFromBaseUnits(t *testing.T) {
	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)

	assert.Equal(t, "1.5", FromBaseUnits(wei, 18))
	assert.Equal(t, "2.5", FromBaseUnits(big.NewInt(2_500_000), 6))
	assert.Equal(t, "0.000001", FromBaseUnits(big.NewInt(1), 6))
	assert.Equal(t, "42", FromBaseUnits(big.NewInt(42), 0))
	assert.Equal(t, "0", FromBaseUnits(nil, 18))
}

func TestApplyMargin(t *testing.T) {
	assert.Equal(t, "3750000001", ApplyMargin(big.NewInt(3_000_000_001)).String())
	assert.Equal(t, "1", ApplyMargin(big.NewInt(1)).String())
	assert.Equal(t, uint64(26250), ApplyGasMargin(21000))
	assert.Equal(t, uint64(62501), ApplyGasMargin(50001))
}
