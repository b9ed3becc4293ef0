package repository

import (
	"context"
	"errors"
	"fmt"

	"wallet-backend/internal/models"

	"gorm.io/gorm"
)

// AddressRepository defines the interface for whitelist address data access
type AddressRepository interface {
	List(ctx context.Context) ([]*models.Address, error)
	// GetByAddress returns nil, nil when the address is not stored
	GetByAddress(ctx context.Context, address string) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	WithTx(tx *gorm.DB) AddressRepository
}

// addressRepository implements AddressRepository
type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository creates a new AddressRepository instance
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) WithTx(tx *gorm.DB) AddressRepository {
	return &addressRepository{db: tx}
}

func (r *addressRepository) List(ctx context.Context) ([]*models.Address, error) {
	var addresses []*models.Address
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) GetByAddress(ctx context.Context, address string) (*models.Address, error) {
	var record models.Address
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get address %s: %w", address, err)
	}
	return &record, nil
}

func (r *addressRepository) Create(ctx context.Context, address *models.Address) error {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return fmt.Errorf("failed to create address %s: %w", address.Address, err)
	}
	return nil
}
