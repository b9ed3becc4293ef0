package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"wallet-backend/internal/clients"
	"wallet-backend/internal/config"
	"wallet-backend/internal/events"
	"wallet-backend/internal/metrics"
	"wallet-backend/internal/models"
	"wallet-backend/internal/repository"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultReceiptTimeout ceiling on waiting for a broadcast transaction to be mined
const DefaultReceiptTimeout = 120 * time.Second

const errorMarkTimeout = 10 * time.Second

// TransferRequest outbound transfer parameters
type TransferRequest struct {
	From       string
	PrivateKey string
	To         string
	Asset      string
	Amount     string
}

// TransferResult receipt summary of an executed transfer
type TransferResult struct {
	TransferID string                `json:"transfer_id"`
	TxHash     string                `json:"tx_hash"`
	Status     models.TransferStatus `json:"status"`
	GasUsed    uint64                `json:"gas_used"`
	GasPrice   string                `json:"gas_price"`
}

// preparedTransfer normalized, validated request
type preparedTransfer struct {
	from   common.Address
	to     common.Address
	asset  string
	amount decimal.Decimal
	token  *common.Address // nil for native
	signer SigningStrategy
}

// TransferService executes outbound transfers one sender at a time
type TransferService struct {
	chain          ChainClient
	transfers      repository.TransferRepository
	locks          *NonceLockRegistry
	publisher      events.Publisher
	receiptTimeout time.Duration
	nativeSymbol   string
	logger         *logrus.Entry

	chainIDMu sync.Mutex
	chainID   *big.Int
}

// NewTransferService creates a transfer executor. A nil publisher discards events and an
// empty nativeSymbol falls back to config.DefaultNativeSymbol.
func NewTransferService(
	chain ChainClient,
	transfers repository.TransferRepository,
	locks *NonceLockRegistry,
	publisher events.Publisher,
	receiptTimeout time.Duration,
	nativeSymbol string,
) *TransferService {
	if locks == nil {
		locks = NewNonceLockRegistry()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if receiptTimeout <= 0 {
		receiptTimeout = DefaultReceiptTimeout
	}
	if nativeSymbol == "" {
		nativeSymbol = config.DefaultNativeSymbol
	}
	return &TransferService{
		chain:          chain,
		transfers:      transfers,
		locks:          locks,
		publisher:      publisher,
		receiptTimeout: receiptTimeout,
		nativeSymbol:   strings.ToUpper(nativeSymbol),
		logger:         logrus.WithField("service", "transfer"),
	}
}

// Execute builds, signs, broadcasts and confirms a transfer.
//
// Input problems return a *ValidationError and never create a record or broadcast.
// Once the transfer record exists the caller's cancellation is ignored: only the receipt
// timeout bounds the wait, and every failure marks the record as error before returning.
func (s *TransferService) Execute(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	release := s.locks.Acquire(p.from)
	defer release()

	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"from":   p.from.Hex(),
		"to":     p.to.Hex(),
		"asset":  p.asset,
		"amount": p.amount.String(),
		"signer": p.signer.Name(),
	})

	nonce, err := s.chain.PendingNonceAt(ctx, p.from)
	if err != nil {
		return nil, chainErr("pending nonce", err)
	}
	gasPrice, err := s.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, chainErr("gas price", err)
	}
	gasPrice = ApplyMargin(gasPrice)

	unsigned, err := s.buildTx(ctx, p, nonce, gasPrice)
	if err != nil {
		return nil, err
	}

	chainID, err := s.getChainID(ctx)
	if err != nil {
		return nil, err
	}
	signed, err := p.signer.Sign(unsigned, chainID)
	if err != nil {
		return nil, err
	}

	log = log.WithFields(logrus.Fields{
		"nonce":     nonce,
		"gas":       unsigned.Gas,
		"gas_price": gasPrice.String(),
	})

	record := &models.Transfer{
		TxHash:      models.PendingTxHash,
		FromAddress: p.from.Hex(),
		ToAddress:   p.to.Hex(),
		Asset:       p.asset,
		Value:       p.amount.String(),
		Status:      models.TransferStatusSent,
		GasPrice:    gasPrice.String(),
	}
	if err := s.transfers.Create(ctx, record); err != nil {
		return nil, err
	}
	log = log.WithField("transfer_id", record.ID)
	log.Info("Transfer recorded, broadcasting")

	// the row must reach a terminal status that matches the chain
	ctx = context.WithoutCancel(ctx)
	s.publish(ctx, record, events.TransferSent, nil, "")

	if err := s.chain.SendTransaction(ctx, signed); err != nil {
		err = chainErr("send transaction", err)
		s.markError(ctx, record, nil, models.ErrorTxHash, err)
		return nil, err
	}

	txHash := signed.Hash().Hex()
	log = log.WithField("tx_hash", txHash)
	if err := s.transfers.UpdateTxHash(ctx, record.ID, txHash); err != nil {
		s.markError(ctx, record, nil, txHash, err)
		return nil, err
	}
	record.TxHash = txHash
	log.Info("Transaction broadcast, waiting for receipt")
	s.publish(ctx, record, events.TransferBroadcast, nil, "")

	receipt, err := s.chain.WaitForReceipt(ctx, signed.Hash(), s.receiptTimeout)
	if err != nil {
		err = chainErr("wait for receipt", err)
		s.markError(ctx, record, nil, txHash, err)
		return nil, err
	}

	status := models.TransferStatusFailed
	eventType := events.TransferFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = models.TransferStatusConfirmed
		eventType = events.TransferConfirmed
	}
	gasUsed := receipt.GasUsed
	if err := s.transfers.UpdateConfirmation(ctx, record.ID, status, &gasUsed, txHash); err != nil {
		s.markError(ctx, record, &gasUsed, txHash, err)
		return nil, err
	}
	record.Status = status
	record.GasUsed = &gasUsed

	metrics.TransfersTotal.WithLabelValues(p.asset, string(status)).Inc()
	metrics.TransferDuration.WithLabelValues(p.asset).Observe(time.Since(start).Seconds())
	s.publish(ctx, record, eventType, &gasUsed, "")

	log.WithFields(logrus.Fields{
		"status":   status,
		"gas_used": gasUsed,
		"block":    receipt.BlockNumber,
	}).Info("Transfer finished")

	return &TransferResult{
		TransferID: record.ID,
		TxHash:     txHash,
		Status:     status,
		GasUsed:    gasUsed,
		GasPrice:   gasPrice.String(),
	}, nil
}

// prepare validates and normalizes a request without any side effects
func (s *TransferService) prepare(req TransferRequest) (*preparedTransfer, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, newValidationError("amount", "Invalid amount format", err)
	}
	if !common.IsHexAddress(req.From) {
		return nil, newValidationError("from_address", "Invalid address", nil)
	}
	if !common.IsHexAddress(req.To) {
		return nil, newValidationError("to_address", "Invalid address", nil)
	}

	asset := strings.ToUpper(strings.TrimSpace(req.Asset))
	token, err := config.ResolveToken(asset, s.nativeSymbol)
	if err != nil {
		message := fmt.Sprintf("Unsupported token: %s (supported: %s)", asset,
			strings.Join(config.SupportedAssets(s.nativeSymbol), ", "))
		return nil, newValidationError("asset", message, err)
	}

	signer, err := NewPrivateKeySigningStrategy(req.PrivateKey)
	if err != nil {
		return nil, newValidationError("private_key", "Invalid private key", err)
	}
	from := common.HexToAddress(req.From)
	if signer.Address() != from {
		return nil, newValidationError("private_key", "Private key does not match from_address", nil)
	}

	if token == nil && ToBaseUnits(amount, NativeDecimals).Sign() == 0 {
		return nil, newValidationError("amount", "Amount is below the smallest unit", ErrInvalidAmount)
	}

	return &preparedTransfer{
		from:   from,
		to:     common.HexToAddress(req.To),
		asset:  asset,
		amount: amount,
		token:  token,
		signer: signer,
	}, nil
}

// buildTx assembles the unsigned native or token transaction
func (s *TransferService) buildTx(ctx context.Context, p *preparedTransfer, nonce uint64, gasPrice *big.Int) (*types.LegacyTx, error) {
	if p.token == nil {
		to := p.to
		return &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      NativeTransferGas,
			To:       &to,
			Value:    ToBaseUnits(p.amount, NativeDecimals),
		}, nil
	}

	decimals, err := s.chain.TokenDecimals(ctx, *p.token)
	if err != nil {
		return nil, chainErr("token decimals", err)
	}
	value := ToBaseUnits(p.amount, decimals)
	if value.Sign() == 0 {
		return nil, newValidationError("amount", "Amount is below the smallest unit", ErrInvalidAmount)
	}
	data, err := clients.PackTransfer(p.to, value)
	if err != nil {
		return nil, err
	}

	token := *p.token
	estimate, err := s.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:     p.from,
		To:       &token,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return nil, chainErr("estimate gas", err)
	}

	return &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      ApplyGasMargin(estimate),
		To:       &token,
		Value:    big.NewInt(0),
		Data:     data,
	}, nil
}

// getChainID fetches the chain ID once and caches it
func (s *TransferService) getChainID(ctx context.Context) (*big.Int, error) {
	s.chainIDMu.Lock()
	defer s.chainIDMu.Unlock()

	if s.chainID != nil {
		return s.chainID, nil
	}
	chainID, err := s.chain.ChainID(ctx)
	if err != nil {
		return nil, chainErr("chain id", err)
	}
	s.chainID = chainID
	return chainID, nil
}

// markError records the error status. It runs even when ctx is already cancelled.
func (s *TransferService) markError(ctx context.Context, record *models.Transfer, gasUsed *uint64, txHash string, cause error) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorMarkTimeout)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{
		"transfer_id": record.ID,
		"tx_hash":     txHash,
	}).WithError(cause)

	if err := s.transfers.UpdateConfirmation(markCtx, record.ID, models.TransferStatusError, gasUsed, txHash); err != nil {
		log.WithField("update_error", err.Error()).Error("❌ Failed to mark transfer as error")
	} else {
		log.Error("❌ Transfer failed")
	}

	record.Status = models.TransferStatusError
	record.TxHash = txHash
	metrics.TransfersTotal.WithLabelValues(record.Asset, string(models.TransferStatusError)).Inc()
	s.publish(markCtx, record, events.TransferError, gasUsed, cause.Error())
}

func (s *TransferService) publish(ctx context.Context, record *models.Transfer, eventType events.Type, gasUsed *uint64, reason string) {
	event := events.Event{
		Type:       eventType,
		TransferID: record.ID,
		TxHash:     record.TxHash,
		From:       record.FromAddress,
		To:         record.ToAddress,
		Asset:      record.Asset,
		Amount:     record.Value,
		Status:     string(record.Status),
		Reason:     reason,
		GasUsed:    gasUsed,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish transfer event")
	}
}

// Get returns a transfer record by ID, or repository.ErrTransferNotFound
func (s *TransferService) Get(ctx context.Context, id string) (*models.Transfer, error) {
	return s.transfers.GetByID(ctx, id)
}

// List returns every transfer, newest first
func (s *TransferService) List(ctx context.Context) ([]*models.Transfer, error) {
	return s.transfers.List(ctx)
}
