package services

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"regexp"
	"strings"
	"time"

	"wallet-backend/internal/clients"
	"wallet-backend/internal/config"
	"wallet-backend/internal/db"
	"wallet-backend/internal/events"
	"wallet-backend/internal/metrics"
	"wallet-backend/internal/models"
	"wallet-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Rejection reasons returned with Valid=false.
// ReasonReverted is returned for mined transactions whose receipt status is failed, so a
// reverted transfer is never whitelisted. Transfer logs without exactly three topics
// (ERC-721) are ignored and can end in ReasonNoTransfers.
const (
	ReasonAlreadyRegistered = "Transaction already registered"
	ReasonNotFound          = "Transaction not found"
	ReasonNotMined          = "Transaction not yet mined"
	ReasonReverted          = "Transaction reverted"
	ReasonContractCreation  = "Contract creation"
	ReasonNotWhitelisted    = "Destination not whitelisted"
	ReasonNoTransfers       = "No valid transfers to whitelisted addresses"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidatedTransfer one recognised transfer inside an inbound transaction
type ValidatedTransfer struct {
	Asset    string `json:"asset"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	logIndex int
}

// ValidationResult outcome of validating an inbound transaction
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Reason    string              `json:"reason,omitempty"`
	Transfers []ValidatedTransfer `json:"transfers,omitempty"`
}

func rejected(reason string) *ValidationResult {
	return &ValidationResult{Valid: false, Reason: reason}
}

// TransactionService validates inbound transactions against the address whitelist
type TransactionService struct {
	db           *gorm.DB
	chain        ChainClient
	addresses    repository.AddressRepository
	transactions repository.TransactionRepository
	publisher    events.Publisher
	selector     [4]byte
	nativeSymbol string
	logger       *logrus.Entry
}

// NewTransactionService creates a validator. A nil publisher discards events and an
// empty nativeSymbol falls back to config.DefaultNativeSymbol.
func NewTransactionService(
	database *gorm.DB,
	chain ChainClient,
	addresses repository.AddressRepository,
	transactions repository.TransactionRepository,
	publisher events.Publisher,
	nativeSymbol string,
) *TransactionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if nativeSymbol == "" {
		nativeSymbol = config.DefaultNativeSymbol
	}
	return &TransactionService{
		db:           database,
		chain:        chain,
		addresses:    addresses,
		transactions: transactions,
		publisher:    publisher,
		selector:     clients.TransferEventSelector(),
		nativeSymbol: strings.ToUpper(nativeSymbol),
		logger:       logrus.WithField("service", "transaction_validator"),
	}
}

// Validate decodes the transaction, checks every recipient against the whitelist and
// records the recognised transfers. Business rejections come back as Valid=false with a
// nil error. A malformed hash is a *ValidationError and node failures are *ChainError.
func (s *TransactionService) Validate(ctx context.Context, rawHash string) (*ValidationResult, error) {
	if !txHashPattern.MatchString(rawHash) {
		return nil, newValidationError("tx_hash", "Invalid transaction hash", nil)
	}
	hash := common.HexToHash(rawHash)
	txHash := hash.Hex()
	log := s.logger.WithField("tx_hash", txHash)

	exists, err := s.transactions.ExistsByTxHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return s.reject(ctx, log, txHash, ReasonAlreadyRegistered), nil
	}

	tx, err := s.chain.TransactionByHash(ctx, hash)
	if errors.Is(err, clients.ErrTransactionNotFound) {
		return s.reject(ctx, log, txHash, ReasonNotFound), nil
	}
	if err != nil {
		return nil, chainErr("get transaction", err)
	}
	if tx.To == nil {
		return s.reject(ctx, log, txHash, ReasonContractCreation), nil
	}

	receipt, err := s.chain.TransactionReceipt(ctx, hash)
	if errors.Is(err, clients.ErrReceiptNotFound) {
		return s.reject(ctx, log, txHash, ReasonNotMined), nil
	}
	if err != nil {
		return nil, chainErr("get receipt", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return s.reject(ctx, log, txHash, ReasonReverted), nil
	}

	var transfers []ValidatedTransfer
	if len(tx.Input) == 0 && tx.Value != nil && tx.Value.Sign() > 0 {
		ok, err := s.isWhitelisted(ctx, *tx.To)
		if err != nil {
			return nil, err
		}
		if !ok {
			return s.reject(ctx, log, txHash, ReasonNotWhitelisted), nil
		}
		transfers = append(transfers, ValidatedTransfer{
			Asset:    s.nativeSymbol,
			To:       tx.To.Hex(),
			Amount:   FromBaseUnits(tx.Value, NativeDecimals),
			logIndex: models.NativeLogIndex,
		})
	} else {
		for _, l := range receipt.Logs {
			if !s.isTransferLog(l) {
				continue
			}
			recipient := common.BytesToAddress(l.Topics[2].Bytes()[12:])

			// first non-whitelisted recipient aborts the whole validation
			ok, err := s.isWhitelisted(ctx, recipient)
			if err != nil {
				return nil, err
			}
			if !ok {
				return s.reject(ctx, log, txHash, ReasonNotWhitelisted), nil
			}

			transfer, err := s.decodeTokenTransfer(ctx, l, recipient)
			if err != nil {
				return nil, err
			}
			transfers = append(transfers, *transfer)
		}
	}

	if len(transfers) == 0 {
		return s.reject(ctx, log, txHash, ReasonNoTransfers), nil
	}

	if err := s.persist(ctx, txHash, transfers); err != nil {
		exists, existsErr := s.transactions.ExistsByTxHash(ctx, txHash)
		if existsErr == nil && exists {
			return s.reject(ctx, log, txHash, ReasonAlreadyRegistered), nil
		}
		return nil, err
	}

	metrics.ValidationsTotal.WithLabelValues("valid").Inc()
	for _, t := range transfers {
		s.publish(ctx, events.Event{
			Type:   events.TransactionValidated,
			TxHash: txHash,
			To:     t.To,
			Asset:  t.Asset,
			Amount: t.Amount,
		})
	}
	log.WithField("transfers", len(transfers)).Info("✅ Transaction validated")

	return &ValidationResult{Valid: true, Transfers: transfers}, nil
}

// isTransferLog matches ERC-20 Transfer logs: selector on topic 0 and an indexed recipient.
// ERC-721 Transfer logs carry a fourth topic and are skipped.
func (s *TransactionService) isTransferLog(l *types.Log) bool {
	if l == nil || len(l.Topics) != 3 {
		return false
	}
	return bytes.Equal(l.Topics[0].Bytes()[:4], s.selector[:])
}

func (s *TransactionService) decodeTokenTransfer(ctx context.Context, l *types.Log, recipient common.Address) (*ValidatedTransfer, error) {
	decimals, err := s.chain.TokenDecimals(ctx, l.Address)
	if err != nil {
		return nil, chainErr("token decimals", err)
	}
	symbol, err := s.chain.TokenSymbol(ctx, l.Address)
	if err != nil {
		return nil, chainErr("token symbol", err)
	}
	return &ValidatedTransfer{
		Asset:    symbol,
		To:       recipient.Hex(),
		Amount:   FromBaseUnits(new(big.Int).SetBytes(l.Data), decimals),
		logIndex: int(l.Index),
	}, nil
}

func (s *TransactionService) isWhitelisted(ctx context.Context, address common.Address) (bool, error) {
	record, err := s.addresses.GetByAddress(ctx, address.Hex())
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// persist writes every transfer of the transaction atomically
func (s *TransactionService) persist(ctx context.Context, txHash string, transfers []ValidatedTransfer) error {
	return db.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		for _, t := range transfers {
			record := &models.Transaction{
				TxHash:    txHash,
				LogIndex:  t.logIndex,
				Asset:     t.Asset,
				ToAddress: t.To,
				Value:     t.Amount,
			}
			if err := repo.Create(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TransactionService) reject(ctx context.Context, log *logrus.Entry, txHash, reason string) *ValidationResult {
	metrics.ValidationsTotal.WithLabelValues("rejected").Inc()
	log.WithField("reason", reason).Info("Transaction rejected")
	s.publish(ctx, events.Event{
		Type:   events.TransactionRejected,
		TxHash: txHash,
		Reason: reason,
	})
	return rejected(reason)
}

func (s *TransactionService) publish(ctx context.Context, event events.Event) {
	event.Timestamp = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", event.Type).Warn("Failed to publish validation event")
	}
}

// List returns every recorded inbound transaction
func (s *TransactionService) List(ctx context.Context) ([]*models.Transaction, error) {
	return s.transactions.List(ctx)
}
