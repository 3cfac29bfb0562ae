// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	DisplayName  string     `json:"display_name" gorm:"size:100"`
	LegalName    string     `json:"legal_name,omitempty" gorm:"size:150"`
	AvatarURL    string     `json:"avatar_url,omitempty" gorm:"size:512"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Works   []Work   `json:"works,omitempty" gorm:"foreignKey:CreatorID"`
	Wallets []Wallet `json:"wallets,omitempty" gorm:"foreignKey:UserID"`
}

// PublicName is the name shown on certificates and mint metadata,
// preferring the public alias over the legal name.
func (u *User) PublicName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.LegalName != "" {
		return u.LegalName
	}
	return u.Username
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
