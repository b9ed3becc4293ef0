package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"wallet-backend/internal/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTransactionNotFound the node does not know the transaction hash
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrReceiptNotFound the transaction has no receipt yet
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrReceiptTimeout no receipt appeared before the wait deadline
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
)

// ChainTransaction subset of a node transaction needed for validation
type ChainTransaction struct {
	Hash  common.Hash
	To    *common.Address // nil for contract creation
	Value *big.Int
	Input []byte
}

// EthChainClient go-ethereum backed chain client
type EthChainClient struct {
	client       *ethclient.Client
	endpoint     string
	pollInterval time.Duration
	logger       *logrus.Entry
}

// DialChainClient connects to the first reachable RPC endpoint
func DialChainClient(ctx context.Context, cfg config.BlockchainConfig, pollInterval time.Duration) (*EthChainClient, error) {
	if len(cfg.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured")
	}

	logger := logrus.WithField("component", "chain_client")

	var lastErr error
	for i, endpoint := range cfg.RPCEndpoints {
		logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  fmt.Sprintf("%d/%d", i+1, len(cfg.RPCEndpoints)),
		}).Info("Connecting to RPC endpoint")

		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			lastErr = err
			logger.WithError(err).Warn("Dial failed")
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		networkID, err := client.NetworkID(checkCtx)
		cancel()
		if err != nil {
			lastErr = err
			logger.WithError(err).Warn("NetworkID check failed")
			client.Close()
			continue
		}

		if cfg.ChainID != 0 && networkID.Int64() != cfg.ChainID {
			logger.WithFields(logrus.Fields{
				"expected": cfg.ChainID,
				"actual":   networkID.String(),
			}).Warn("Network ID differs from configured chain ID")
		}

		logger.WithFields(logrus.Fields{
			"endpoint":   endpoint,
			"network_id": networkID.String(),
		}).Info("✅ Connected to RPC endpoint")

		return NewEthChainClient(client, endpoint, pollInterval), nil
	}

	return nil, fmt.Errorf("failed to connect to any RPC endpoint: %w", lastErr)
}

// NewEthChainClient wraps an existing ethclient connection
func NewEthChainClient(client *ethclient.Client, endpoint string, pollInterval time.Duration) *EthChainClient {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &EthChainClient{
		client:       client,
		endpoint:     endpoint,
		pollInterval: pollInterval,
		logger:       logrus.WithField("component", "chain_client"),
	}
}

// Close closes the underlying RPC connection
func (c *EthChainClient) Close() {
	c.client.Close()
}

// Ping checks node reachability
func (c *EthChainClient) Ping(ctx context.Context) error {
	_, err := c.client.BlockNumber(ctx)
	return err
}

func (c *EthChainClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.client.PendingNonceAt(ctx, account)
}

func (c *EthChainClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.client.SuggestGasPrice(ctx)
}

func (c *EthChainClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.client.ChainID(ctx)
}

func (c *EthChainClient) TransactionByHash(ctx context.Context, hash common.Hash) (*ChainTransaction, error) {
	tx, _, err := c.client.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, hash.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &ChainTransaction{
		Hash:  tx.Hash(),
		To:    tx.To(),
		Value: tx.Value(),
		Input: tx.Data(),
	}, nil
}

func (c *EthChainClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, hash.Hex())
	}
	return receipt, err
}

func (c *EthChainClient) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.callERC20(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	return unpackDecimals(out)
}

func (c *EthChainClient) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.callERC20(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	return unpackSymbol(out)
}

func (c *EthChainClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.client.EstimateGas(ctx, msg)
}

func (c *EthChainClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.client.SendTransaction(ctx, tx)
}

// WaitForReceipt polls for the receipt until it appears or timeout elapses
func (c *EthChainClient) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	start := time.Now()
	polls := 0
	for {
		polls++
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			c.logger.WithFields(logrus.Fields{
				"tx_hash":  hash.Hex(),
				"block":    receipt.BlockNumber.Uint64(),
				"status":   receipt.Status,
				"gas_used": receipt.GasUsed,
				"polls":    polls,
				"elapsed":  time.Since(start).String(),
			}).Info("Receipt received")
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			c.logger.WithError(err).WithField("tx_hash", hash.Hex()).Warn("Error querying receipt")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s after %v", ErrReceiptTimeout, hash.Hex(), timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *EthChainClient) callERC20(ctx context.Context, token common.Address, method string) ([]byte, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s() call on %s failed: %w", method, token.Hex(), err)
	}
	return out, nil
}
