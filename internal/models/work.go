// internal/models/work.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Work struct {
	BaseModel
	TBTID          string     `json:"tbt_id" gorm:"size:15;uniqueIndex;not null"`
	CreatorID      uuid.UUID  `json:"creator_id" gorm:"type:uuid;not null;index"`
	CurrentOwnerID uuid.UUID  `json:"current_owner_id" gorm:"type:uuid;not null;index"`
	Title          string     `json:"title" gorm:"size:255;not null"`
	Description    string     `json:"description" gorm:"type:text"`
	Category       string     `json:"category" gorm:"size:100;index"`
	Technique      string     `json:"technique" gorm:"size:100"`
	MediaURL       string     `json:"media_url" gorm:"size:512;not null"`
	Status         WorkStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	CertifiedAt    *time.Time `json:"certified_at"`

	// One-time custodial mint, write-once
	MintAddress *string   `json:"mint_address,omitempty" gorm:"size:128"`
	TokenURI    string    `json:"token_uri,omitempty" gorm:"size:512"`
	Blockchain  string    `json:"blockchain,omitempty" gorm:"size:50"`
	NFTStatus   NFTStatus `json:"nft_status" gorm:"type:varchar(20);default:'unminted'"`

	// Relationships
	Creator      User          `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	CurrentOwner User          `json:"current_owner,omitempty" gorm:"foreignKey:CurrentOwnerID"`
	Commerce     *WorkCommerce `json:"commerce,omitempty" gorm:"foreignKey:WorkID"`
	Context      *WorkContext  `json:"context,omitempty" gorm:"foreignKey:WorkID"`
	Certificates []Certificate `json:"certificates,omitempty" gorm:"foreignKey:WorkID"`
}

type WorkCommerce struct {
	BaseModel
	WorkID       uuid.UUID   `json:"work_id" gorm:"type:uuid;uniqueIndex;not null"`
	InitialPrice float64     `json:"initial_price" gorm:"type:decimal(12,2);not null"`
	Currency     string      `json:"currency" gorm:"size:10;default:'USD'"`
	RoyaltyType  RoyaltyType `json:"royalty_type" gorm:"type:varchar(20);not null"`
	RoyaltyValue float64     `json:"royalty_value" gorm:"type:decimal(12,2);not null"`
	IsForSale    bool        `json:"is_for_sale" gorm:"default:false"`
}

type WorkContext struct {
	BaseModel
	WorkID                uuid.UUID  `json:"work_id" gorm:"type:uuid;uniqueIndex;not null"`
	Keywords              StringList `json:"keywords" gorm:"type:jsonb"`
	GeographicalLocation  string     `json:"geographical_location,omitempty" gorm:"size:255"`
	CreationTimestamp     time.Time  `json:"creation_timestamp"`
	IsConfirmed           bool       `json:"is_confirmed" gorm:"default:false"`
}

// Certificate rows are append-only; versions per work start at 1 and only grow.
type Certificate struct {
	BaseModel
	WorkID      uuid.UUID `json:"work_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_certificates_work_version"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null"`
	QRCodeData  string    `json:"qr_code_data" gorm:"size:512"`
	Version     int       `json:"version" gorm:"not null;uniqueIndex:idx_certificates_work_version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// WorkView is a best-effort analytics row for public verifications. ViewerID
// is set only when the caller happened to be authenticated.
type WorkView struct {
	BaseModel
	WorkID    uuid.UUID  `json:"work_id" gorm:"type:uuid;not null;index"`
	ViewerID  *uuid.UUID `json:"viewer_id,omitempty" gorm:"type:uuid;index"`
	IPAddress string     `json:"ip_address" gorm:"size:45"`
	UserAgent string     `json:"user_agent" gorm:"size:512"`
}
