package services

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningStrategy signs a prepared legacy transaction for a chain
type SigningStrategy interface {
	Sign(tx *types.LegacyTx, chainID *big.Int) (*types.Transaction, error)
	Address() common.Address
	Name() string
}

// PrivateKeySigningStrategy signs with a raw secp256k1 key supplied by the caller
type PrivateKeySigningStrategy struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigningStrategy parses a hex private key, with or without 0x prefix
func NewPrivateKeySigningStrategy(hexKey string) (*PrivateKeySigningStrategy, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &PrivateKeySigningStrategy{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *PrivateKeySigningStrategy) Sign(tx *types.LegacyTx, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (s *PrivateKeySigningStrategy) Address() common.Address {
	return s.address
}

func (s *PrivateKeySigningStrategy) Name() string {
	return "PrivateKey"
}
