package services

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"wallet-backend/internal/models"
	"wallet-backend/internal/repository"
	"wallet-backend/internal/testutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	whitelisted = common.HexToAddress("0x1111111111111111111111111111111111111111")
	stranger    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	payer       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	tokenA      = common.HexToAddress("0x65aFADD39029741B3b8f0756952C74678c9cEC93")
)

type validatorFixture struct {
	db           *gorm.DB
	chain        *testutil.FakeChain
	addresses    repository.AddressRepository
	transactions repository.TransactionRepository
	service      *TransactionService
}

func newValidatorFixture(t *testing.T) *validatorFixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	chain := testutil.NewFakeChain()
	addresses := repository.NewAddressRepository(database)
	transactions := repository.NewTransactionRepository(database)

	require.NoError(t, addresses.Create(context.Background(), &models.Address{
		Address:    whitelisted.Hex(),
		PrivateKey: "0x01",
	}))

	return &validatorFixture{
		db:           database,
		chain:        chain,
		addresses:    addresses,
		transactions: transactions,
		service:      NewTransactionService(database, chain, addresses, transactions, nil, ""),
	}
}

func (f *validatorFixture) recorded(t *testing.T, hash common.Hash) []*models.Transaction {
	t.Helper()
	rows, err := f.transactions.FindByTxHash(context.Background(), hash.Hex())
	require.NoError(t, err)
	return rows
}

func oneEther() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}

func TestValidateNativeTransferToWhitelistedAddress(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x01")
	f.chain.AddNativeTransfer(hash, whitelisted, oneEther())

	result, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
	require.Len(t, result.Transfers, 1)
	assert.Equal(t, "ETH", result.Transfers[0].Asset)
	assert.Equal(t, whitelisted.Hex(), result.Transfers[0].To)
	assert.Equal(t, "1", result.Transfers[0].Amount)

	rows := f.recorded(t, hash)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Value)
	assert.Equal(t, models.NativeLogIndex, rows[0].LogIndex)
}

func TestValidateNativeTransferUsesConfiguredSymbol(t *testing.T) {
	f := newValidatorFixture(t)
	service := NewTransactionService(f.db, f.chain, f.addresses, f.transactions, nil, "bnb")
	hash := common.HexToHash("0x0d")
	f.chain.AddNativeTransfer(hash, whitelisted, oneEther())

	result, err := service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Len(t, result.Transfers, 1)
	assert.Equal(t, "BNB", result.Transfers[0].Asset)

	rows := f.recorded(t, hash)
	require.Len(t, rows, 1)
	assert.Equal(t, "BNB", rows[0].Asset)
}

func TestValidateTwiceReportsAlreadyRegistered(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x02")
	f.chain.AddNativeTransfer(hash, whitelisted, oneEther())

	first, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	require.True(t, first.Valid)

	second, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.False(t, second.Valid)
	assert.Contains(t, second.Reason, "already registered")

	assert.Len(t, f.recorded(t, hash), 1)
}

func TestValidateContractCreation(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x03")
	f.chain.AddNativeTransfer(hash, whitelisted, oneEther())
	f.chain.Transactions[hash].To = nil

	result, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, &ValidationResult{Valid: false, Reason: ReasonContractCreation}, result)
	assert.Empty(t, f.recorded(t, hash))
}

func TestValidateNativeTransferToUnknownAddress(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x04")
	f.chain.AddNativeTransfer(hash, stranger, oneEther())

	result, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, &ValidationResult{Valid: false, Reason: ReasonNotWhitelisted}, result)
	assert.Empty(t, f.recorded(t, hash))
}

func TestValidateTokenTransfers(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x05")
	f.chain.Decimals[tokenA] = 6
	f.chain.Symbols[tokenA] = "USDC"

	nftTransfer := testutil.TransferLog(tokenA, payer, whitelisted, big.NewInt(7), 0)
	nftTransfer.Topics = append(nftTransfer.Topics, common.BigToHash(big.NewInt(7)))
	unrelated := &types.Log{Address: tokenA, Topics: []common.Hash{common.HexToHash("0xdead")}, Index: 1}

	f.chain.AddTokenTransfers(hash, tokenA,
		nftTransfer,
		unrelated,
		testutil.TransferLog(tokenA, payer, whitelisted, big.NewInt(2_500_000), 2),
		testutil.TransferLog(tokenA, payer, whitelisted, big.NewInt(1), 3),
	)

	result, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Len(t, result.Transfers, 2)
	assert.Equal(t, "USDC", result.Transfers[0].Asset)
	assert.Equal(t, whitelisted.Hex(), result.Transfers[0].To)
	assert.Equal(t, "2.5", result.Transfers[0].Amount)
	assert.Equal(t, "0.000001", result.Transfers[1].Amount)

	rows := f.recorded(t, hash)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].LogIndex)
	assert.Equal(t, 3, rows[1].LogIndex)
}

func TestValidateAbortsOnFirstUnknownRecipient(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x06")
	f.chain.AddTokenTransfers(hash, tokenA,
		testutil.TransferLog(tokenA, payer, stranger, big.NewInt(1), 0),
		testutil.TransferLog(tokenA, payer, whitelisted, big.NewInt(1), 1),
	)

	result, err := f.service.Validate(context.Background(), hash.Hex())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonNotWhitelisted, result.Reason)
	assert.Zero(t, f.chain.DecimalsCalls())
	assert.Empty(t, f.recorded(t, hash))
}

func TestValidateWithoutTransfers(t *testing.T) {
	f := newValidatorFixture(t)
	hash := common.HexToHash("0x07")
	f.chain.AddTokenTransfers(hash, tokenA)

	zeroValue := common.HexToHash("0x08")
	f.chain.AddNativeTransfer(zeroValue, whitelisted, big.NewInt(0))

	for _, h := range []common.Hash{hash, zeroValue} {
		result, err := f.service.Validate(context.Background(), h.Hex())
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonNoTransfers, result.Reason)
	}
}

func TestValidateUnknownAndPendingTransactions(t *testing.T) {
	f := newValidatorFixture(t)

	result, err := f.service.Validate(context.Background(), common.HexToHash("0x09").Hex())
	require.NoError(t, err)
	assert.Equal(t, ReasonNotFound, result.Reason)

	pending := common.HexToHash("0x0a")
	f.chain.AddNativeTransfer(pending, whitelisted, oneEther())
	delete(f.chain.Receipts, pending)

	result, err = f.service.Validate(context.Background(), pending.Hex())
	require.NoError(t, err)
	assert.Equal(t, ReasonNotMined, result.Reason)

	reverted := common.HexToHash("0x0b")
	f.chain.AddNativeTransfer(reverted, whitelisted, oneEther())
	f.chain.Receipts[reverted].Status = types.ReceiptStatusFailed

	result, err = f.service.Validate(context.Background(), reverted.Hex())
	require.NoError(t, err)
	assert.Equal(t, ReasonReverted, result.Reason)
}

func TestValidateRejectsMalformedHash(t *testing.T) {
	f := newValidatorFixture(t)

	for _, hash := range []string{"", "0x1234", "not-a-hash", "0x" + strings.Repeat("zz", 32)} {
		_, err := f.service.Validate(context.Background(), hash)
		require.Error(t, err)
		assert.True(t, IsValidationError(err), hash)
	}
	assert.Zero(t, f.chain.Calls())
}

func TestValidatePropagatesChainErrors(t *testing.T) {
	f := newValidatorFixture(t)
	f.chain.TxErr = errors.New("upstream unavailable")

	_, err := f.service.Validate(context.Background(), common.HexToHash("0x0c").Hex())
	require.Error(t, err)
	assert.True(t, IsChainError(err))
	assert.ErrorIs(t, err, f.chain.TxErr)
}
