package models

import "time"

// User represents a registered account. Email is normalized to lowercase
// before it is written.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	FirstName    string    `gorm:"type:text"`
	LastName     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Public returns the fields of a user that other users are allowed to see.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// PublicUser is the identity attached to messages when attributing
// sender and receiver.
type PublicUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
