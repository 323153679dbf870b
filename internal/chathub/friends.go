package chathub

import (
	"context"
	"encoding/json"

	"tawk/backend/internal/models"

	"go.uber.org/zap"
)

func (m *ManagerService) handleFriendRequest(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	p, err := bind[models.FriendRequestPayload](userID, data)
	if err != nil {
		return nil, err
	}

	req, err := m.Storage.CreateFriendRequest(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}

	m.emit(ctx, p.To, models.EventNewFriendRequest, models.Notice{
		Message:   "New friend request received",
		RequestID: req.ID,
		From:      p.From,
		To:        p.To,
	})
	m.emit(ctx, p.From, models.EventRequestSent, models.Notice{
		Message:   "Request sent successfully!",
		RequestID: req.ID,
		From:      p.From,
		To:        p.To,
	})

	if m.notifier != nil {
		m.notifyFriendRequest(ctx, p.To, p.From)
	}
	return req, nil
}

func (m *ManagerService) handleAcceptRequest(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
	p, err := bind[models.AcceptRequestPayload](userID, data)
	if err != nil {
		return nil, err
	}

	req, err := m.Storage.AcceptFriendRequest(ctx, p.RequestID, userID)
	if err != nil {
		return nil, err
	}

	notice := models.Notice{
		Message:   "Friend request accepted",
		RequestID: req.ID,
		From:      req.SenderID,
		To:        req.RecipientID,
	}
	m.emit(ctx, req.SenderID, models.EventRequestAccepted, notice)
	m.emit(ctx, req.RecipientID, models.EventRequestAccepted, notice)
	return req, nil
}

func (m *ManagerService) notifyFriendRequest(ctx context.Context, recipientID, senderID string) {
	recipient, err := m.Storage.GetUserByID(ctx, recipientID)
	if err != nil {
		m.log.Debug("notification skipped", zap.String("user_id", recipientID), zap.Error(err))
		return
	}
	sender, err := m.Storage.GetUserByID(ctx, senderID)
	if err != nil {
		m.log.Debug("notification skipped", zap.String("user_id", senderID), zap.Error(err))
		return
	}
	m.notifier.FriendRequest(ctx, recipient, sender)
}
