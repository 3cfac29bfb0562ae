// internal/models/wallet.go
package models

import (
	"github.com/google/uuid"
)

// Wallet holds a custodial keypair. The secret half is encrypted before it
// ever reaches the database; uniqueness per (user, network) is enforced by
// the composite index, not by application checks.
type Wallet struct {
	BaseModel
	UserID              uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_wallets_user_network"`
	PublicKey           string    `json:"public_key" gorm:"size:128;not null"`
	EncryptedPrivateKey string    `json:"-" gorm:"size:512;not null"`
	Network             string    `json:"network" gorm:"size:50;not null;uniqueIndex:idx_wallets_user_network"`
	IsPrimary           bool      `json:"is_primary" gorm:"default:true"`
}
