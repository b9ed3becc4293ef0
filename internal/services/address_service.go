package services

import (
	"context"
	"fmt"

	"wallet-backend/internal/db"
	"wallet-backend/internal/models"
	"wallet-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxAddressBatch upper bound of addresses generated per request
const MaxAddressBatch = 100

// GeneratedAddress public view of a generated address
type GeneratedAddress struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// AddressService generates and lists whitelisted addresses
type AddressService struct {
	db        *gorm.DB
	addresses repository.AddressRepository
	logger    *logrus.Entry
}

func NewAddressService(database *gorm.DB, addresses repository.AddressRepository) *AddressService {
	return &AddressService{
		db:        database,
		addresses: addresses,
		logger:    logrus.WithField("service", "address"),
	}
}

// Generate creates quantity fresh secp256k1 key pairs and stores them in one transaction
func (s *AddressService) Generate(ctx context.Context, quantity int) ([]GeneratedAddress, error) {
	if quantity < 1 || quantity > MaxAddressBatch {
		return nil, newValidationError("quantity", fmt.Sprintf("Quantity must be between 1 and %d", MaxAddressBatch), nil)
	}

	records := make([]*models.Address, 0, quantity)
	for i := 0; i < quantity; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		records = append(records, &models.Address{
			Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
			PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		})
	}

	err := db.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.addresses.WithTx(tx)
		for _, record := range records {
			if err := repo.Create(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]GeneratedAddress, 0, len(records))
	for _, record := range records {
		out = append(out, GeneratedAddress{ID: record.ID, Address: record.Address})
	}
	s.logger.WithField("count", len(out)).Info("Generated addresses")
	return out, nil
}

// List returns every stored address without key material
func (s *AddressService) List(ctx context.Context) ([]GeneratedAddress, error) {
	records, err := s.addresses.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GeneratedAddress, 0, len(records))
	for _, record := range records {
		out = append(out, GeneratedAddress{ID: record.ID, Address: record.Address})
	}
	return out, nil
}
