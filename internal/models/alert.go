// internal/models/alert.go
package models

import (
	"github.com/google/uuid"
)

type Alert struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	WorkID  uuid.UUID `json:"work_id" gorm:"type:uuid;index"`
	Type    AlertType `json:"type" gorm:"type:varchar(30);not null"`
	Title   string    `json:"title" gorm:"size:255;not null"`
	Message string    `json:"message" gorm:"type:text"`
	IsRead  bool      `json:"is_read" gorm:"default:false"`
}
