package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Presence statuses persisted on the user record.
const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
)

// User is an account known to the coordination layer. Credentials live with the
// identity provider; only profile fields and presence status are kept here.
type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"type:text;not null;default:''" json:"firstName"`
	LastName  string `gorm:"type:text;not null;default:''" json:"lastName"`
	Email     string `gorm:"uniqueIndex" json:"email"`
	Avatar    string `gorm:"type:text" json:"avatar,omitempty"`
	About     string `gorm:"type:text" json:"about,omitempty"`
	Verified  bool   `gorm:"not null;default:false" json:"-"`
	// Status is Online while the user holds a live connection on any node.
	Status string `gorm:"type:text;not null;default:'Offline'" json:"status"`
	// TelegramChatID is set when the user linked a Telegram chat for offline notifications.
	TelegramChatID *int64 `gorm:"index" json:"-"`
	// Language selects the translation used for offline notifications.
	Language  string    `gorm:"type:text;not null;default:'en'" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate generates a UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// DisplayName joins first and last name the way clients render it.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UserSummary is the public identity of a participant.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
	Status    string `json:"status"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Status:    u.Status,
	}
}

// ProfileUpdate holds the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	About     *string `json:"about"`
	Avatar    *string `json:"avatar"`
}

// Columns returns the column map for a gorm Updates call.
func (p ProfileUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		cols["last_name"] = *p.LastName
	}
	if p.About != nil {
		cols["about"] = *p.About
	}
	if p.Avatar != nil {
		cols["avatar"] = *p.Avatar
	}
	return cols
}
