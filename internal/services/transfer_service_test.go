package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"wallet-backend/internal/clients"
	"wallet-backend/internal/config"
	"wallet-backend/internal/models"
	"wallet-backend/internal/repository"
	"wallet-backend/internal/testutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errStoreUnavailable = errors.New("store unavailable")

// failingTransferRepository fails selected lifecycle updates but still lets the error
// status through
type failingTransferRepository struct {
	repository.TransferRepository
	failTxHash       bool
	failConfirmation bool
}

func (r *failingTransferRepository) UpdateTxHash(ctx context.Context, id, txHash string) error {
	if r.failTxHash {
		return errStoreUnavailable
	}
	return r.TransferRepository.UpdateTxHash(ctx, id, txHash)
}

func (r *failingTransferRepository) UpdateConfirmation(ctx context.Context, id string, status models.TransferStatus, gasUsed *uint64, txHash string) error {
	if r.failConfirmation && status != models.TransferStatusError {
		return errStoreUnavailable
	}
	return r.TransferRepository.UpdateConfirmation(ctx, id, status, gasUsed, txHash)
}

type transferFixture struct {
	db        *gorm.DB
	chain     *testutil.FakeChain
	transfers repository.TransferRepository
	service   *TransferService
	key       *ecdsa.PrivateKey
	from      common.Address
	to        common.Address
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	chain := testutil.NewFakeChain()
	transfers := repository.NewTransferRepository(database)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return &transferFixture{
		db:        database,
		chain:     chain,
		transfers: transfers,
		service:   NewTransferService(chain, transfers, NewNonceLockRegistry(), nil, time.Second, ""),
		key:       key,
		from:      crypto.PubkeyToAddress(key.PublicKey),
		to:        common.HexToAddress("0x00000000000000000000000000000000000000aa"),
	}
}

func (f *transferFixture) request(asset, amount string) TransferRequest {
	return TransferRequest{
		From:       f.from.Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(f.key)),
		To:         f.to.Hex(),
		Asset:      asset,
		Amount:     amount,
	}
}

func (f *transferFixture) allTransfers(t *testing.T) []*models.Transfer {
	t.Helper()
	transfers, err := f.transfers.List(context.Background())
	require.NoError(t, err)
	return transfers
}

func TestExecuteNativeTransfer(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.GasPrice = big.NewInt(3_000_000_001)

	result, err := f.service.Execute(context.Background(), f.request("eth", "1.0"))
	require.NoError(t, err)

	sent := f.chain.SentTransactions()
	require.Len(t, sent, 1)
	tx := sent[0]

	assert.Equal(t, "1000000000000000000", tx.Value().String())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, "3750000001", tx.GasPrice().String())
	assert.Equal(t, f.to, *tx.To())
	assert.Empty(t, tx.Data())

	sender, err := types.Sender(types.LatestSignerForChainID(f.chain.ChainIDValue), tx)
	require.NoError(t, err)
	assert.Equal(t, f.from, sender)

	assert.Equal(t, tx.Hash().Hex(), result.TxHash)
	assert.Equal(t, models.TransferStatusConfirmed, result.Status)
	assert.Equal(t, uint64(21000), result.GasUsed)
	assert.Equal(t, "3750000001", result.GasPrice)

	stored, err := f.transfers.GetByID(context.Background(), result.TransferID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusConfirmed, stored.Status)
	assert.Equal(t, tx.Hash().Hex(), stored.TxHash)
	require.NotNil(t, stored.GasUsed)
	assert.Equal(t, uint64(21000), *stored.GasUsed)
	assert.Equal(t, "ETH", stored.Asset)
	assert.Equal(t, "1", stored.Value)
	assert.Equal(t, f.from.Hex(), stored.FromAddress)
}

func TestExecuteTokenTransfer(t *testing.T) {
	f := newTransferFixture(t)
	usdc, err := config.ResolveToken("USDC", config.DefaultNativeSymbol)
	require.NoError(t, err)
	f.chain.Decimals[*usdc] = 6
	f.chain.GasEstimate = 50_001
	f.chain.GasUsed = 48_000

	result, err := f.service.Execute(context.Background(), f.request("usdc", "5.0"))
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusConfirmed, result.Status)

	sent := f.chain.SentTransactions()
	require.Len(t, sent, 1)
	tx := sent[0]

	assert.Equal(t, *usdc, *tx.To())
	assert.Equal(t, int64(0), tx.Value().Int64())
	assert.Equal(t, uint64(62501), tx.Gas())

	data := tx.Data()
	require.Len(t, data, 4+32+32)
	expected, err := clients.PackTransfer(f.to, big.NewInt(5_000_000))
	require.NoError(t, err)
	assert.Equal(t, expected, data)
	assert.Equal(t, f.to, common.BytesToAddress(data[4:36]))
	assert.Equal(t, int64(5_000_000), new(big.Int).SetBytes(data[36:68]).Int64())

	require.Len(t, f.chain.Estimates, 1)
	assert.Equal(t, f.from, f.chain.Estimates[0].From)
	assert.Equal(t, data, f.chain.Estimates[0].Data)
}

func TestExecuteRejectsInvalidInputWithoutSideEffects(t *testing.T) {
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*TransferRequest)
		field  string
	}{
		{"non-numeric amount", func(r *TransferRequest) { r.Amount = "abc" }, "amount"},
		{"zero amount", func(r *TransferRequest) { r.Amount = "0" }, "amount"},
		{"negative amount", func(r *TransferRequest) { r.Amount = "-1" }, "amount"},
		{"below one wei", func(r *TransferRequest) { r.Amount = "0.0000000000000000001" }, "amount"},
		{"unsupported token", func(r *TransferRequest) { r.Asset = "DOGE" }, "asset"},
		{"bad recipient", func(r *TransferRequest) { r.To = "0x1234" }, "to_address"},
		{"bad key", func(r *TransferRequest) { r.PrivateKey = "not-a-key" }, "private_key"},
		{"key for another address", func(r *TransferRequest) {
			r.PrivateKey = hexutil.Encode(crypto.FromECDSA(otherKey))
		}, "private_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture(t)
			req := f.request("ETH", "1")
			tt.mutate(&req)

			result, err := f.service.Execute(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, result)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)

			assert.Zero(t, f.chain.Calls())
			assert.Empty(t, f.allTransfers(t))
		})
	}
}

func TestExecuteMarksErrorWhenBroadcastFails(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.SendErr = errors.New("nonce too low")

	result, err := f.service.Execute(context.Background(), f.request("ETH", "0.5"))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsChainError(err))
	assert.ErrorIs(t, err, f.chain.SendErr)

	transfers := f.allTransfers(t)
	require.Len(t, transfers, 1)
	assert.Equal(t, models.TransferStatusError, transfers[0].Status)
	assert.Equal(t, models.ErrorTxHash, transfers[0].TxHash)
	assert.Nil(t, transfers[0].GasUsed)
}

func TestExecuteMarksErrorWhenReceiptTimesOut(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.WaitErr = clients.ErrReceiptTimeout

	_, err := f.service.Execute(context.Background(), f.request("ETH", "0.5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clients.ErrReceiptTimeout)

	sent := f.chain.SentTransactions()
	require.Len(t, sent, 1)

	transfers := f.allTransfers(t)
	require.Len(t, transfers, 1)
	assert.Equal(t, models.TransferStatusError, transfers[0].Status)
	assert.Equal(t, sent[0].Hash().Hex(), transfers[0].TxHash)
}

func TestExecuteRecordsRevertedTransferAsFailed(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.ReceiptStatus = types.ReceiptStatusFailed

	result, err := f.service.Execute(context.Background(), f.request("ETH", "0.1"))
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusFailed, result.Status)

	stored, err := f.transfers.GetByID(context.Background(), result.TransferID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusFailed, stored.Status)
}

func TestExecuteCreatesNoRecordWhenNonceReadFails(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.NonceErr = errors.New("connection refused")

	_, err := f.service.Execute(context.Background(), f.request("ETH", "1"))
	require.Error(t, err)
	assert.True(t, IsChainError(err))
	assert.Empty(t, f.allTransfers(t))
}

func TestExecuteSerializesSameSender(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.SendDelay = 20 * time.Millisecond

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Execute(context.Background(), f.request("ETH", "0.01"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), f.chain.MaxInFlight())
	assert.ElementsMatch(t, []uint64{0, 1, 2, 3}, f.chain.NonceReads)

	seen := make(map[uint64]bool)
	for _, tx := range f.chain.SentTransactions() {
		assert.False(t, seen[tx.Nonce()], "nonce %d reused", tx.Nonce())
		seen[tx.Nonce()] = true
	}
	assert.Len(t, seen, workers)
}

func TestExecuteRejectsTokenAmountBelowPrecision(t *testing.T) {
	f := newTransferFixture(t)
	usdc, err := config.ResolveToken("USDC", config.DefaultNativeSymbol)
	require.NoError(t, err)
	f.chain.Decimals[*usdc] = 6

	result, err := f.service.Execute(context.Background(), f.request("USDC", "0.0000001"))
	require.Error(t, err)
	assert.Nil(t, result)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "amount", validationErr.Field)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Empty(t, f.chain.SentTransactions())
	assert.Empty(t, f.chain.Estimates)
	assert.Empty(t, f.allTransfers(t))
}

func TestExecuteUsesConfiguredNativeSymbol(t *testing.T) {
	f := newTransferFixture(t)
	service := NewTransferService(f.chain, f.transfers, nil, nil, time.Second, "matic")

	result, err := service.Execute(context.Background(), f.request("matic", "1"))
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusConfirmed, result.Status)

	stored, err := f.transfers.GetByID(context.Background(), result.TransferID)
	require.NoError(t, err)
	assert.Equal(t, "MATIC", stored.Asset)

	_, err = service.Execute(context.Background(), f.request("ETH", "1"))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "asset", validationErr.Field)
	assert.Contains(t, validationErr.Message, "MATIC, LINK, USDC, USDT")
}

func TestExecuteIgnoresCallerCancellationAfterRecordExists(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.ReceiptDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.chain.OnSend = func(*types.Transaction) { cancel() }

	result, err := f.service.Execute(ctx, f.request("ETH", "0.2"))
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusConfirmed, result.Status)
	assert.Error(t, ctx.Err())

	sent := f.chain.SentTransactions()
	require.Len(t, sent, 1)

	stored, err := f.transfers.GetByID(context.Background(), result.TransferID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusConfirmed, stored.Status)
	assert.Equal(t, sent[0].Hash().Hex(), stored.TxHash)
}

func TestExecuteStopsWaitingAtReceiptTimeout(t *testing.T) {
	f := newTransferFixture(t)
	f.chain.ReceiptDelay = time.Hour
	service := NewTransferService(f.chain, f.transfers, nil, nil, 50*time.Millisecond, "")

	start := time.Now()
	_, err := service.Execute(context.Background(), f.request("ETH", "0.3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clients.ErrReceiptTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	sent := f.chain.SentTransactions()
	require.Len(t, sent, 1)

	transfers := f.allTransfers(t)
	require.Len(t, transfers, 1)
	assert.Equal(t, models.TransferStatusError, transfers[0].Status)
	assert.Equal(t, sent[0].Hash().Hex(), transfers[0].TxHash)
}

func TestExecuteMarksErrorWhenPersistenceFails(t *testing.T) {
	tests := []struct {
		name       string
		repo       func(repository.TransferRepository) repository.TransferRepository
		wantGasSet bool
	}{
		{"tx hash update", func(inner repository.TransferRepository) repository.TransferRepository {
			return &failingTransferRepository{TransferRepository: inner, failTxHash: true}
		}, false},
		{"confirmation update", func(inner repository.TransferRepository) repository.TransferRepository {
			return &failingTransferRepository{TransferRepository: inner, failConfirmation: true}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture(t)
			service := NewTransferService(f.chain, tt.repo(f.transfers), nil, nil, time.Second, "")

			result, err := service.Execute(context.Background(), f.request("ETH", "0.4"))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, errStoreUnavailable)

			sent := f.chain.SentTransactions()
			require.Len(t, sent, 1)

			transfers := f.allTransfers(t)
			require.Len(t, transfers, 1)
			assert.Equal(t, models.TransferStatusError, transfers[0].Status)
			assert.Equal(t, sent[0].Hash().Hex(), transfers[0].TxHash)
			if tt.wantGasSet {
				require.NotNil(t, transfers[0].GasUsed)
				assert.Equal(t, uint64(21000), *transfers[0].GasUsed)
			} else {
				assert.Nil(t, transfers[0].GasUsed)
			}
		})
	}
}
