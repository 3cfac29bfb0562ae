// internal/services/wallet_service_test.go
package services

import (
	"crypto/ed25519"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

func newTestWalletService(t *testing.T) (*WalletService, *models.User) {
	t.Helper()

	db := setupTestDB(t)
	service, err := NewWalletService(db, testConfig().Wallet)
	require.NoError(t, err)

	return service, createTestUser(t, db, "holder")
}

func TestNewWalletServiceRequiresKey(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewWalletService(db, config.WalletConfig{Network: "solana-devnet"})
	assert.Error(t, err)
}

func TestGetPrimaryWalletNone(t *testing.T) {
	service, user := newTestWalletService(t)

	wallet, err := service.GetPrimaryWallet(user.ID)
	require.NoError(t, err)
	assert.Nil(t, wallet)
}

func TestGetOrCreateWalletIdempotent(t *testing.T) {
	service, user := newTestWalletService(t)

	first, err := service.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "solana-devnet", first.Network)
	assert.True(t, first.IsPrimary)
	assert.NotEmpty(t, first.PublicKey)
	assert.NotEmpty(t, first.EncryptedPrivateKey)

	second, err := service.GetOrCreateWallet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey, second.PublicKey)

	var count int64
	service.db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateWalletConcurrent(t *testing.T) {
	service, user := newTestWalletService(t)

	const callers = 5
	publicKeys := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wallet, err := service.GetOrCreateWallet(user.ID)
			errs[i] = err
			if err == nil {
				publicKeys[i] = wallet.PublicKey
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, publicKeys[0], publicKeys[i])
	}

	var count int64
	service.db.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestWalletKeyRoundTrip(t *testing.T) {
	service, user := newTestWalletService(t)

	wallet, err := service.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	privateKey, err := service.signingKey(wallet)
	require.NoError(t, err)

	publicBytes, err := hex.DecodeString(wallet.PublicKey)
	require.NoError(t, err)

	message := []byte("provenance attestation")
	signature := ed25519.Sign(privateKey, message)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(publicBytes), message, signature))
}

func TestSigningKeyRejectsTamperedCiphertext(t *testing.T) {
	service, user := newTestWalletService(t)

	wallet, err := service.GetOrCreateWallet(user.ID)
	require.NoError(t, err)

	wallet.EncryptedPrivateKey = "bm90IGEgcmVhbCBjaXBoZXJ0ZXh0IGF0IGFsbCwgc29ycnk="
	_, err = service.signingKey(wallet)
	assert.Error(t, err)
}
