package accesscode

import (
	"fmt"
	"time"
)

// Tier determines the code prefix. Normal codes trade as QRG, premium as PREM.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierPremium Tier = "premium"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierNormal, TierPremium:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

func (t Tier) Prefix() string {
	if t == TierPremium {
		return "PREM"
	}
	return "QRG"
}

// AccessCode is a tradable gym entry credential. Codes are globally unique
// across tiers; redemption flips IsUsed but is not handled here.
type AccessCode struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:12;uniqueIndex;not null"`
	Tier      Tier   `gorm:"size:10;not null;column:type"`
	IsUsed    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AccessCode) TableName() string {
	return "gym_access_ids"
}
