package services

import (
	"context"
	"math/big"
	"time"

	"wallet-backend/internal/clients"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the node capability set the transfer and validation services need.
// clients.EthChainClient is the production implementation.
type ChainClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*clients.ChainTransaction, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error)
}

var _ ChainClient = (*clients.EthChainClient)(nil)
