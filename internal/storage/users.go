package storage

import (
	"context"
	"fmt"

	"tawk/backend/internal/models"

	"gorm.io/gorm"
)

// GetUserByID loads a single user.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// SaveUser inserts or updates the user in the database.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

// UpdateProfile applies the non-nil fields of update and returns the fresh record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	cols := update.Columns()
	if len(cols) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
	}
	return s.GetUserByID(ctx, userID)
}

// SetPresence persists the Online/Offline status and mirrors it into the redis
// online set when redis is configured.
func (s *Service) SetPresence(ctx context.Context, userID string, online bool) error {
	status := models.StatusOffline
	if online {
		status = models.StatusOnline
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	if online {
		return s.markOnline(ctx, userID)
	}
	return s.markOffline(ctx, userID)
}

// ListVerifiedUsers returns every verified user except excludeID.
func (s *Service) ListVerifiedUsers(ctx context.Context, excludeID string) ([]models.User, error) {
	users := []models.User{}
	err := s.DB.WithContext(ctx).
		Where("verified = ? AND id <> ?", true, excludeID).
		Order("first_name asc, last_name asc").
		Find(&users).Error
	return users, err
}

// ListNonFriends returns verified users that are neither userID nor one of its friends.
func (s *Service) ListNonFriends(ctx context.Context, userID string) ([]models.User, error) {
	users := []models.User{}
	friendIDs := s.DB.Model(&models.Friendship{}).Select("friend_id").Where("user_id = ?", userID)
	err := s.DB.WithContext(ctx).
		Where("verified = ? AND id <> ?", true, userID).
		Where("id NOT IN (?)", friendIDs).
		Order("first_name asc, last_name asc").
		Find(&users).Error
	return users, err
}

// ListFriends returns the friend set of userID.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	users := []models.User{}
	err := s.DB.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.first_name asc, users.last_name asc").
		Find(&users).Error
	return users, err
}

func (s *Service) usersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Service) requireUsers(ctx context.Context, ids ...string) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	return nil
}

// LinkTelegramChat attaches a Telegram chat to userID for offline
// notifications. A chat belongs to one user at a time.
func (s *Service) LinkTelegramChat(ctx context.Context, userID string, chatID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.User{}).
			Where("telegram_chat_id = ? AND id <> ?", chatID, userID).
			Update("telegram_chat_id", nil).Error
		if err != nil {
			return err
		}

		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("telegram_chat_id", chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil
	})
}

// UnlinkTelegramChat detaches chatID from whichever user holds it.
func (s *Service) UnlinkTelegramChat(ctx context.Context, chatID int64) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).
		Where("telegram_chat_id = ?", chatID).
		Update("telegram_chat_id", nil).Error
}
