package chathub

import (
	"context"
	"encoding/json"
	"errors"

	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"go.uber.org/zap"
)

func (m *ManagerService) startCallHandler(kind models.CallKind) handlerFunc {
	return func(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
		p, err := bind[models.StartCallPayload](userID, data)
		if err != nil {
			return nil, err
		}

		caller, err := m.Storage.GetUserByID(ctx, p.From)
		if err != nil {
			return nil, err
		}
		if _, err := m.Storage.GetUserByID(ctx, p.To); err != nil {
			return nil, err
		}

		call := models.NewCallSession(kind, p.From, p.To, p.RoomID, m.now())

		unlock := m.locks.Lock(call.PairKey)
		err = m.Storage.CreateCall(ctx, call)
		unlock()
		if errors.Is(err, storage.ErrCallInProgress) {
			m.emit(ctx, p.From, models.OnAnotherCallEvent(kind), models.CallSignalPayload{From: p.To, To: p.From})
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		m.emit(ctx, p.To, models.NotificationEvent(kind), models.CallNotification{
			CallID:   call.ID,
			From:     caller.Summary(),
			RoomID:   call.RoomID,
			StreamID: p.To,
			UserID:   p.From,
			UserName: caller.DisplayName(),
		})
		return call, nil
	}
}

// callSignalHandler applies a follow-up signal from p.From and forwards the
// outcome to p.To.
func (m *ManagerService) callSignalHandler(kind models.CallKind, sig models.CallSignal) handlerFunc {
	return func(ctx context.Context, userID string, data json.RawMessage) (interface{}, error) {
		p, err := bind[models.CallSignalPayload](userID, data)
		if err != nil {
			return nil, err
		}

		unlock := m.locks.Lock(models.PairKey(p.From, p.To))
		call, err := m.Storage.TransitionCall(ctx, kind, p.From, p.To, sig)
		unlock()
		if err != nil {
			return nil, err
		}

		m.emit(ctx, p.To, models.OutboundSignalEvent(kind, sig), models.CallSignalPayload{From: p.From, To: p.To})

		if call.Verdict == models.VerdictMissed && m.notifier != nil {
			m.notifyMissedCall(ctx, call)
		}
		return call, nil
	}
}

func (m *ManagerService) notifyMissedCall(ctx context.Context, call *models.CallSession) {
	callee, err := m.Storage.GetUserByID(ctx, call.CalleeID)
	if err != nil {
		m.log.Debug("notification skipped", zap.String("user_id", call.CalleeID), zap.Error(err))
		return
	}
	caller, err := m.Storage.GetUserByID(ctx, call.CallerID)
	if err != nil {
		m.log.Debug("notification skipped", zap.String("user_id", call.CallerID), zap.Error(err))
		return
	}
	m.notifier.MissedCall(ctx, callee, caller, call.Kind)
}
