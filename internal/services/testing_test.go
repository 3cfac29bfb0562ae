// internal/services/testing_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.WorkCommerce{},
		&models.WorkContext{},
		&models.Certificate{},
		&models.Transfer{},
		&models.Wallet{},
		&models.Alert{},
		&models.WorkView{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 1,
		},
		Wallet: config.WalletConfig{
			EncryptionKey: "test-wallet-encryption-key",
			Network:       "solana-devnet",
		},
		Blockchain: config.BlockchainConfig{
			Network:         "solana-devnet",
			ExplorerBaseURL: "https://explorer.solana.com",
			RequestTimeout:  5,
		},
		Frontend: config.FrontendConfig{
			BaseURL: "https://tbt.example.com",
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: "Artist " + username,
		Status:      models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)

	return user
}

func sunsetRequest() *CertifyWorkRequest {
	return &CertifyWorkRequest{
		Title:        "Sunset",
		Description:  "oil on canvas",
		Category:     "painting",
		MediaURL:     "https://x/y.jpg",
		InitialPrice: 100,
		RoyaltyType:  models.RoyaltyTypePercentage,
		RoyaltyValue: 10,
		Keywords:     []string{"sunset", "oil"},
	}
}

func certifyTestWork(t *testing.T, db *gorm.DB, creatorID uuid.UUID) *CertifyResult {
	t.Helper()

	svc := NewCertificationService(db, testConfig(), NewAlertService(db))
	result, err := svc.Certify(creatorID, sunsetRequest())
	require.NoError(t, err)

	return result
}
