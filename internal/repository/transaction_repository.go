package repository

import (
	"context"
	"fmt"

	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository defines the interface for validated inbound transaction data access
type TransactionRepository interface {
	List(ctx context.Context) ([]*models.Transaction, error)
	FindByTxHash(ctx context.Context, txHash string) ([]*models.Transaction, error)
	ExistsByTxHash(ctx context.Context, txHash string) (bool, error)
	Create(ctx context.Context, transaction *models.Transaction) error
	WithTx(tx *gorm.DB) TransactionRepository
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) List(ctx context.Context) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (r *transactionRepository) FindByTxHash(ctx context.Context, txHash string) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).Order("log_index ASC").Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions by hash %s: %w", txHash, err)
	}
	return transactions, nil
}

func (r *transactionRepository) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("tx_hash = ?", txHash).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check transaction %s: %w", txHash, err)
	}
	return count > 0, nil
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", transaction.TxHash, err)
	}
	return nil
}
