package testutil

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"wallet-backend/internal/clients"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// FakeChain is an in-memory chain client. Nonces follow the number of accepted
// transactions per sender; sent transactions are mined with ReceiptStatus and GasUsed.
type FakeChain struct {
	mu sync.Mutex

	GasPrice      *big.Int
	ChainIDValue  *big.Int
	GasEstimate   uint64
	GasUsed       uint64
	ReceiptStatus uint64
	Decimals      map[common.Address]uint8
	Symbols       map[common.Address]string
	Transactions  map[common.Hash]*clients.ChainTransaction
	Receipts      map[common.Hash]*types.Receipt

	NonceErr   error
	SendErr    error
	WaitErr    error
	ReceiptErr error
	TxErr      error

	// SendDelay widens the window between nonce read and broadcast
	SendDelay time.Duration
	// ReceiptDelay is how long a sent transaction stays pending
	ReceiptDelay time.Duration
	// OnSend runs after a transaction is accepted
	OnSend func(tx *types.Transaction)

	Sent       []*types.Transaction
	NonceReads []uint64
	Estimates  []ethereum.CallMsg

	calls         atomic.Int64
	decimalsCalls atomic.Int64
	inFlight      atomic.Int64
	maxInFlight   atomic.Int64
	nonces        map[common.Address]uint64
}

// NewFakeChain returns a chain with chain ID 1337, 1 gwei gas price and successful receipts
func NewFakeChain() *FakeChain {
	return &FakeChain{
		GasPrice:      big.NewInt(1_000_000_000),
		ChainIDValue:  big.NewInt(1337),
		GasEstimate:   50_000,
		GasUsed:       21_000,
		ReceiptStatus: types.ReceiptStatusSuccessful,
		Decimals:      make(map[common.Address]uint8),
		Symbols:       make(map[common.Address]string),
		Transactions:  make(map[common.Hash]*clients.ChainTransaction),
		Receipts:      make(map[common.Hash]*types.Receipt),
		nonces:        make(map[common.Address]uint64),
	}
}

// Calls returns the number of chain calls made
func (f *FakeChain) Calls() int64 { return f.calls.Load() }

// DecimalsCalls returns the number of decimals() calls made
func (f *FakeChain) DecimalsCalls() int64 { return f.decimalsCalls.Load() }

// MaxInFlight returns the highest number of transfers seen between nonce read and receipt
func (f *FakeChain) MaxInFlight() int64 { return f.maxInFlight.Load() }

// SentTransactions returns a copy of the broadcast transactions
func (f *FakeChain) SentTransactions() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.Sent...)
}

// AddNativeTransfer registers a mined value transfer
func (f *FakeChain) AddNativeTransfer(hash common.Hash, to common.Address, value *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transactions[hash] = &clients.ChainTransaction{Hash: hash, To: &to, Value: value}
	f.Receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}
}

// AddTokenTransfers registers a mined contract call emitting the given logs
func (f *FakeChain) AddTokenTransfers(hash common.Hash, contract common.Address, logs ...*types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transactions[hash] = &clients.ChainTransaction{
		Hash:  hash,
		To:    &contract,
		Value: big.NewInt(0),
		Input: []byte{0xa9, 0x05, 0x9c, 0xbb},
	}
	f.Receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, Logs: logs}
}

// TransferLog builds an ERC-20 Transfer log
func TransferLog(token, from, to common.Address, amount *big.Int, index uint) *types.Log {
	return &types.Log{
		Address: token,
		Topics: []common.Hash{
			crypto.Keccak256Hash([]byte(clients.TransferEventSignature)),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:  common.LeftPadBytes(amount.Bytes(), 32),
		Index: index,
	}
}

func (f *FakeChain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	f.calls.Add(1)
	if f.NonceErr != nil {
		return 0, f.NonceErr
	}
	current := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	nonce := f.nonces[account]
	f.NonceReads = append(f.NonceReads, nonce)
	return nonce, nil
}

func (f *FakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.calls.Add(1)
	return new(big.Int).Set(f.GasPrice), nil
}

func (f *FakeChain) ChainID(context.Context) (*big.Int, error) {
	f.calls.Add(1)
	return new(big.Int).Set(f.ChainIDValue), nil
}

func (f *FakeChain) TransactionByHash(_ context.Context, hash common.Hash) (*clients.ChainTransaction, error) {
	f.calls.Add(1)
	if f.TxErr != nil {
		return nil, f.TxErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.Transactions[hash]
	if !ok {
		return nil, clients.ErrTransactionNotFound
	}
	return tx, nil
}

func (f *FakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.calls.Add(1)
	if f.ReceiptErr != nil {
		return nil, f.ReceiptErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, ok := f.Receipts[hash]
	if !ok {
		return nil, clients.ErrReceiptNotFound
	}
	return receipt, nil
}

func (f *FakeChain) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	f.calls.Add(1)
	f.decimalsCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.Decimals[token]; ok {
		return d, nil
	}
	return 18, nil
}

func (f *FakeChain) TokenSymbol(_ context.Context, token common.Address) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.Symbols[token]; ok {
		return s, nil
	}
	return "TKN", nil
}

func (f *FakeChain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Estimates = append(f.Estimates, msg)
	return f.GasEstimate, nil
}

func (f *FakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.calls.Add(1)
	if f.SendDelay > 0 {
		time.Sleep(f.SendDelay)
	}
	if f.SendErr != nil {
		f.inFlight.Add(-1)
		return f.SendErr
	}

	sender, err := types.Sender(types.LatestSignerForChainID(f.ChainIDValue), tx)
	if err != nil {
		f.inFlight.Add(-1)
		return err
	}

	f.mu.Lock()
	f.Sent = append(f.Sent, tx)
	f.nonces[sender] = tx.Nonce() + 1
	onSend := f.OnSend
	f.mu.Unlock()

	if onSend != nil {
		onSend(tx)
	}
	return nil
}

// WaitForReceipt mines after ReceiptDelay, giving up like the real client on ctx or timeout
func (f *FakeChain) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	f.calls.Add(1)
	defer f.inFlight.Add(-1)
	if f.WaitErr != nil {
		return nil, f.WaitErr
	}

	if f.ReceiptDelay > 0 {
		mined := time.NewTimer(f.ReceiptDelay)
		defer mined.Stop()
		deadline := time.NewTimer(timeout)
		defer deadline.Stop()

		select {
		case <-mined.C:
		case <-deadline.C:
			return nil, clients.ErrReceiptTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &types.Receipt{
		Status:      f.ReceiptStatus,
		TxHash:      hash,
		GasUsed:     f.GasUsed,
		BlockNumber: big.NewInt(1),
	}, nil
}
