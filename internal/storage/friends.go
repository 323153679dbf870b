package storage

import (
	"context"
	"fmt"

	"tawk/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateFriendRequest records a new request from sender to recipient. Pending
// requests are not deduplicated.
func (s *Service) CreateFriendRequest(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error) {
	if senderID == "" || recipientID == "" || senderID == recipientID {
		return nil, fmt.Errorf("%w: sender and recipient must be two distinct users", ErrInvalidArgument)
	}
	if err := s.requireUsers(ctx, senderID, recipientID); err != nil {
		return nil, err
	}

	req := &models.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := s.DB.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptFriendRequest adds both friend edges and deletes the request in one
// transaction. A non-empty actorID must be the recipient.
func (s *Service) AcceptFriendRequest(ctx context.Context, requestID, actorID string) (*models.FriendRequest, error) {
	var req models.FriendRequest

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			return notFound(err, "friend request")
		}
		if actorID != "" && req.RecipientID != actorID {
			return fmt.Errorf("%w: only the recipient can accept a friend request", ErrForbidden)
		}

		edges := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.RecipientID},
			{UserID: req.RecipientID, FriendID: req.SenderID},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", req.ID).Delete(&models.FriendRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// accepted concurrently; roll the edges back with this transaction
			return fmt.Errorf("%w: friend request", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListFriendRequests returns the requests addressed to recipientID with the sender loaded.
func (s *Service) ListFriendRequests(ctx context.Context, recipientID string) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := s.DB.WithContext(ctx).
		Preload("Sender").
		Where("recipient_id = ?", recipientID).
		Order("created_at desc").
		Find(&reqs).Error
	return reqs, err
}
