package services

import (
	"context"
	"testing"

	"wallet-backend/internal/repository"
	"wallet-backend/internal/testutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAddresses(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewAddressRepository(database)
	service := NewAddressService(database, repo)
	ctx := context.Background()

	generated, err := service.Generate(ctx, 3)
	require.NoError(t, err)
	require.Len(t, generated, 3)

	seen := make(map[string]bool)
	for _, g := range generated {
		assert.NotEmpty(t, g.ID)
		assert.True(t, common.IsHexAddress(g.Address))
		assert.Equal(t, common.HexToAddress(g.Address).Hex(), g.Address, "checksum form")
		assert.False(t, seen[g.Address])
		seen[g.Address] = true

		stored, err := repo.GetByAddress(ctx, g.Address)
		require.NoError(t, err)
		require.NotNil(t, stored)

		key, err := crypto.HexToECDSA(stored.PrivateKey[2:])
		require.NoError(t, err)
		assert.Equal(t, g.Address, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}

	listed, err := service.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, generated, listed)
}

func TestGenerateAddressesRejectsQuantityOutOfRange(t *testing.T) {
	database := testutil.NewTestDB(t)
	service := NewAddressService(database, repository.NewAddressRepository(database))

	for _, quantity := range []int{0, -1, MaxAddressBatch + 1} {
		_, err := service.Generate(context.Background(), quantity)
		assert.True(t, IsValidationError(err), "quantity %d", quantity)
	}

	listed, err := service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}
