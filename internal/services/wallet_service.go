// internal/services/wallet_service.go
package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

// WalletService manages custodial keypairs. Private keys are encrypted with
// AES-256-GCM before they reach the database; the AES key is derived from the
// injected config secret, never read from ambient state. Concurrent creation
// is resolved by the unique (user_id, network) index, not by in-process checks.
type WalletService struct {
	db     *gorm.DB
	cfg    config.WalletConfig
	aesKey []byte
}

func NewWalletService(db *gorm.DB, cfg config.WalletConfig) (*WalletService, error) {
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("wallet encryption key is required")
	}

	kdf := hkdf.New(sha256.New, []byte(cfg.EncryptionKey), nil, []byte("tbt-wallet-key-v1"))
	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, aesKey); err != nil {
		return nil, fmt.Errorf("failed to derive wallet key: %w", err)
	}

	return &WalletService{
		db:     db,
		cfg:    cfg,
		aesKey: aesKey,
	}, nil
}

// GetPrimaryWallet returns the user's primary wallet for the configured
// network, or nil when none exists.
func (s *WalletService) GetPrimaryWallet(userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ? AND network = ? AND is_primary = ?", userID, s.cfg.Network, true).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Persistence("failed to load wallet", err)
	}

	return &wallet, nil
}

// GetOrCreateWallet resolves the user's wallet, generating one on first use.
// Creation is an insert-if-absent: under concurrency the unique index makes
// exactly one insert win and everyone re-reads the winner's row.
func (s *WalletService) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	if existing, err := s.GetPrimaryWallet(userID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	publicKey, encryptedPrivate, err := s.generateKeypair()
	if err != nil {
		return nil, apperrors.Persistence("failed to generate wallet keypair", err)
	}

	wallet := &models.Wallet{
		UserID:              userID,
		PublicKey:           publicKey,
		EncryptedPrivateKey: encryptedPrivate,
		Network:             s.cfg.Network,
		IsPrimary:           true,
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "network"}},
		DoNothing: true,
	}).Create(wallet)
	if result.Error != nil {
		return nil, apperrors.Persistence("failed to create wallet", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race; another request created the wallet first.
		winner, err := s.GetPrimaryWallet(userID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, apperrors.Persistence("wallet creation conflict left no row", nil)
		}
		return winner, nil
	}

	return wallet, nil
}

func (s *WalletService) generateKeypair() (publicKey, encryptedPrivate string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}

	sealed, err := s.encrypt(priv)
	if err != nil {
		return "", "", err
	}

	return hex.EncodeToString(pub), sealed, nil
}

func (s *WalletService) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.aesKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// signingKey decrypts the custodial private key. Deliberately unexported:
// only the minting path may reach it, never a handler.
func (s *WalletService) signingKey(wallet *models.Wallet) (ed25519.PrivateKey, error) {
	sealed, err := base64.StdEncoding.DecodeString(wallet.EncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted key: %w", err)
	}

	block, err := aes.NewCipher(s.aesKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted key is too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet key: %w", err)
	}

	return ed25519.PrivateKey(plaintext), nil
}
