package models_test

import (
	"reflect"
	"testing"

	"tawk/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID}

	assert.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		want string
	}{
		{name: "both names", user: models.User{FirstName: "Ada", LastName: "Lovelace"}, want: "Ada Lovelace"},
		{name: "first only", user: models.User{FirstName: "Ada"}, want: "Ada"},
		{name: "last only", user: models.User{LastName: "Lovelace"}, want: "Lovelace"},
		{name: "empty", user: models.User{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}

func TestProfileUpdateColumns(t *testing.T) {
	first, about := "Grace", ""
	cols := models.ProfileUpdate{FirstName: &first, About: &about}.Columns()

	assert.Equal(t, map[string]interface{}{"first_name": "Grace", "about": ""}, cols)
	assert.Empty(t, models.ProfileUpdate{}.Columns())
}

// TestUserStructTags catches accidental tag removal during refactoring.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "id", idField.Tag.Get("json"))

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex")

	tgField, found := userType.FieldByName("TelegramChatID")
	assert.True(t, found)
	assert.Equal(t, "-", tgField.Tag.Get("json"), "Telegram chat id must not leak to clients")
}
