package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friendship is one direction of the symmetric friend relation. Both directions
// are always written and removed together.
type Friendship struct {
	UserID    string    `gorm:"primaryKey"`
	FriendID  string    `gorm:"primaryKey;index"`
	CreatedAt time.Time
}

// FriendRequest is a pending intent from Sender to Recipient. It is deleted once accepted.
type FriendRequest struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SenderID    string    `gorm:"not null;index" json:"senderId"`
	RecipientID string    `gorm:"not null;index" json:"recipientId"`
	CreatedAt   time.Time `json:"createdAt"`

	Sender *User `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
}

// BeforeCreate generates a UUID for the request if the ID is not set yet.
func (r *FriendRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}
