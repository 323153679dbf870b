package storage

import (
	"context"
	"fmt"

	"tawk/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateConversation returns the conversation of the unordered pair,
// creating it when missing. The unique pair_key index makes concurrent callers
// converge on a single row. created reports whether this call inserted it.
func (s *Service) GetOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, bool, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, false, fmt.Errorf("%w: a conversation needs two distinct users", ErrInvalidArgument)
	}
	if err := s.requireUsers(ctx, userA, userB); err != nil {
		return nil, false, err
	}

	conv := models.NewConversation(userA, userB)
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Create(conv)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	var out models.Conversation
	err := s.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("pair_key = ?", conv.PairKey).
		First(&out).Error
	if err != nil {
		return nil, false, notFound(err, "conversation")
	}
	if out.Messages == nil {
		out.Messages = []models.Message{}
	}
	return &out, created, nil
}

// GetConversation loads a conversation without its messages.
func (s *Service) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error; err != nil {
		return nil, notFound(err, "conversation")
	}
	return &conv, nil
}

// AppendMessage persists msg at the end of its conversation. Sender and
// recipient must be the two participants.
func (s *Service) AppendMessage(ctx context.Context, msg *models.Message) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Where("id = ?", msg.ConversationID).First(&conv).Error; err != nil {
			return notFound(err, "conversation")
		}
		if msg.SenderID == msg.RecipientID || !conv.HasParticipant(msg.SenderID) || !conv.HasParticipant(msg.RecipientID) {
			return fmt.Errorf("%w: sender and recipient must be the conversation participants", ErrForbidden)
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Update("updated_at", msg.CreatedAt).Error
	})
}

// ListMessages returns the messages of a conversation in append order.
func (s *Service) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	msgs := []models.Message{}
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id asc").
		Find(&msgs).Error
	return msgs, err
}

// ListConversationsForUser returns the conversations userID takes part in,
// most recently active first, with participants resolved to their public identity.
func (s *Service) ListConversationsForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	var convs []models.Conversation
	err := s.DB.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	ids := []string{userID}
	for _, c := range convs {
		ids = append(ids, c.Peer(userID))
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summary := models.ConversationSummary{ID: c.ID}
		for _, id := range []string{c.User1ID, c.User2ID} {
			u, ok := users[id]
			if !ok {
				u = models.User{ID: id, Status: models.StatusOffline}
			}
			summary.Participants = append(summary.Participants, u.Summary())
		}

		var last models.Message
		res := s.DB.WithContext(ctx).
			Where("conversation_id = ?", c.ID).
			Order("id desc").
			Limit(1).
			Find(&last)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			summary.LastMessage = &last
			summary.LastMessageAt = &last.CreatedAt
		}
		out = append(out, summary)
	}
	return out, nil
}
