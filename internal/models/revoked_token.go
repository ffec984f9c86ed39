package models

import "time"

// RevokedToken records the SHA-256 hex digest of a reset token that must no
// longer be honored. The raw token is never stored.
type RevokedToken struct {
	ID        int64     `gorm:"primaryKey"`
	TokenHash string    `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
