package clients

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferEventSelector(t *testing.T) {
	selector := TransferEventSelector()
	assert.Equal(t, "0xddf252ad", hexutil.Encode(selector[:]))
}

func TestPackTransfer(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	data, err := PackTransfer(to, big.NewInt(5_000_000))
	require.NoError(t, err)

	require.Len(t, data, 68)
	assert.Equal(t, "0xa9059cbb", hexutil.Encode(data[:4]))
	assert.Equal(t, to, common.BytesToAddress(data[4:36]))
	assert.Equal(t, int64(5_000_000), new(big.Int).SetBytes(data[36:68]).Int64())
}

func TestUnpackERC20Outputs(t *testing.T) {
	decimals, err := unpackDecimals(common.LeftPadBytes([]byte{6}, 32))
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	encoded, err := erc20ABI.Methods["symbol"].Outputs.Pack("USDC")
	require.NoError(t, err)
	symbol, err := unpackSymbol(encoded)
	require.NoError(t, err)
	assert.Equal(t, "USDC", symbol)

	_, err = unpackDecimals(nil)
	assert.Error(t, err)
}
