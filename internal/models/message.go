package models

import "time"

// Message is a single direct message. Rows are immutable once created;
// sender and receiver may be the same user (note-to-self).
type Message struct {
	ID         int64     `gorm:"primaryKey"`
	SenderID   int64     `gorm:"not null;index:idx_messages_pair,priority:1"`
	ReceiverID int64     `gorm:"not null;index:idx_messages_pair,priority:2"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime;index"`

	Sender   User `gorm:"foreignKey:SenderID;references:ID;constraint:OnDelete:CASCADE"`
	Receiver User `gorm:"foreignKey:ReceiverID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string { return "messages" }
