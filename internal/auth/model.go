package auth

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:50;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DateOfBirth  time.Time
	IsActive     bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// OTP is a single one-time password row. Several rows may exist per user;
// each stays valid until its own expiry or until it is marked used.
type OTP struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:50;index;not null"`
	Code      string `gorm:"size:10;not null"`
	IsUsed    bool   `gorm:"not null;default:false"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (OTP) TableName() string {
	return "otps"
}
