package chathub

import (
	"context"
	"encoding/json"
	"fmt"

	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"go.uber.org/zap"
)

func (m *ManagerService) handleStartConversation(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	p, err := bind[models.StartConversationPayload](userID, data)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(models.PairKey(p.From, p.To))
	conv, created, err := m.Storage.GetOrCreateConversation(ctx, p.From, p.To)
	unlock()
	if err != nil {
		return nil, err
	}
	if created {
		m.log.Debug("conversation created", zap.String("conversation_id", conv.ID))
	}

	m.emit(ctx, userID, models.EventStartChat, models.StartChatNotice{Conversation: conv})
	return conv, nil
}

func (m *ManagerService) handleGetDirectConversations(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	empty := []models.ConversationSummary{}

	p, err := bind[models.GetDirectConversationsPayload](userID, data)
	if err != nil {
		return empty, err
	}

	summaries, err := m.Storage.ListConversationsForUser(ctx, p.UserID)
	if err != nil {
		return empty, err
	}
	return summaries, nil
}

func (m *ManagerService) handleGetMessages(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	empty := []models.Message{}

	p, err := bind[models.GetMessagesPayload](userID, data)
	if err != nil {
		return empty, err
	}

	conv, err := m.Storage.GetConversation(ctx, p.ConversationID)
	if err != nil {
		return empty, err
	}
	if !conv.HasParticipant(userID) {
		return empty, fmt.Errorf("%w: %s is not in conversation %s", storage.ErrForbidden, userID, conv.ID)
	}

	msgs, err := m.Storage.ListMessages(ctx, conv.ID)
	if err != nil {
		return empty, err
	}
	return msgs, nil
}

func (m *ManagerService) handleTextMessage(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	p, err := bind[models.TextMessagePayload](userID, data)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: p.ConversationID,
		SenderID:       p.From,
		RecipientID:    p.To,
		Type:           p.Type,
		Text:           p.Message,
		File:           p.File,
	}
	if err := m.Storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	notice := models.NewMessageNotice{ConversationID: msg.ConversationID, Message: msg}
	m.emit(ctx, p.To, models.EventNewMessage, notice)
	m.emit(ctx, p.From, models.EventNewMessage, notice)
	return msg, nil
}
