package repository

import (
	"context"
	"errors"
	"fmt"

	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// ErrTransferNotFound is returned when no transfer matches the identifier
var ErrTransferNotFound = errors.New("transfer not found")

// TransferRepository defines the interface for outbound transfer data access.
// Every update commits on its own so a partial lifecycle stays durable.
type TransferRepository interface {
	List(ctx context.Context) ([]*models.Transfer, error)
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	Create(ctx context.Context, transfer *models.Transfer) error
	UpdateTxHash(ctx context.Context, id, txHash string) error
	UpdateStatus(ctx context.Context, id string, status models.TransferStatus) error
	UpdateConfirmation(ctx context.Context, id string, status models.TransferStatus, gasUsed *uint64, txHash string) error
}

// transferRepository implements TransferRepository
type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new TransferRepository instance
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) List(ctx context.Context) ([]*models.Transfer, error) {
	var transfers []*models.Transfer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&transfers).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

func (r *transferRepository) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&transfer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer %s: %w", id, err)
	}
	return &transfer, nil
}

func (r *transferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) UpdateTxHash(ctx context.Context, id, txHash string) error {
	return r.update(ctx, id, map[string]interface{}{
		"tx_hash": txHash,
	})
}

func (r *transferRepository) UpdateStatus(ctx context.Context, id string, status models.TransferStatus) error {
	return r.update(ctx, id, map[string]interface{}{
		"status": status,
	})
}

func (r *transferRepository) UpdateConfirmation(ctx context.Context, id string, status models.TransferStatus, gasUsed *uint64, txHash string) error {
	updates := map[string]interface{}{
		"status":  status,
		"tx_hash": txHash,
	}
	if gasUsed != nil {
		updates["gas_used"] = *gasUsed
	}
	return r.update(ctx, id, updates)
}

func (r *transferRepository) update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Transfer{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transfer %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransferNotFound
	}
	return nil
}
