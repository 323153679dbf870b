package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message kinds accepted on a direct conversation.
const (
	MessageText = "text"
	MessageLink = "link"
	MessageFile = "file"
)

// PairKey returns the lookup key for two participants regardless of their order.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// Conversation is a direct-message thread between exactly two users.
// PairKey is unique, so at most one conversation exists per unordered pair.
type Conversation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	PairKey   string    `gorm:"not null;uniqueIndex" json:"-"`
	User1ID   string    `gorm:"not null;index" json:"-"`
	User2ID   string    `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Participants []string  `gorm:"-" json:"participants"`
	Messages     []Message `gorm:"foreignKey:ConversationID" json:"messages"`
}

// NewConversation builds an empty conversation for the pair with participants in sorted order.
func NewConversation(a, b string) *Conversation {
	ids := []string{a, b}
	sort.Strings(ids)
	return &Conversation{
		PairKey:  PairKey(a, b),
		User1ID:  ids[0],
		User2ID:  ids[1],
		Messages: []Message{},
	}
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// AfterFind fills the participant list for the JSON view.
func (c *Conversation) AfterFind(tx *gorm.DB) (err error) {
	c.Participants = []string{c.User1ID, c.User2ID}
	return
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Peer returns the participant that is not userID.
func (c *Conversation) Peer(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message is an immutable entry of a conversation. The autoincrement ID is the
// append order.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"not null;index:idx_conversation_msg" json:"conversationId"`
	SenderID       string    `gorm:"not null" json:"from"`
	RecipientID    string    `gorm:"not null" json:"to"`
	Type           string    `gorm:"type:text;not null" json:"type"`
	Text           string    `gorm:"type:text" json:"text,omitempty"`
	File           string    `gorm:"type:text" json:"file,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationSummary is the per-user list view of a conversation.
type ConversationSummary struct {
	ID            string        `json:"id"`
	Participants  []UserSummary `json:"participants"`
	LastMessage   *Message      `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time    `json:"lastMessageAt,omitempty"`
}
