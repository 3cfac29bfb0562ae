// internal/models/transfer.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transfer rows are produced by the transfer workflow and only read here,
// when reconstructing the ownership history of a work.
type Transfer struct {
	BaseModel
	WorkID       uuid.UUID      `json:"work_id" gorm:"type:uuid;not null;index"`
	FromOwnerID  uuid.UUID      `json:"from_owner_id" gorm:"type:uuid;not null"`
	ToOwnerID    uuid.UUID      `json:"to_owner_id" gorm:"type:uuid;not null"`
	TransferType TransferType   `json:"transfer_type" gorm:"type:varchar(20);not null"`
	Status       TransferStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CompletedAt  *time.Time     `json:"completed_at"`

	// Relationships
	ToOwner User `json:"to_owner,omitempty" gorm:"foreignKey:ToOwnerID"`
}
