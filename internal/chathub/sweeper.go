package chathub

import (
	"context"
	"time"

	"tawk/backend/internal/models"

	"go.uber.org/zap"
)

// RunRingSweeper ends calls that ring longer than timeout, checking every
// interval until ctx is cancelled.
func (m *ManagerService) RunRingSweeper(ctx context.Context, timeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ExpireRingingCalls(ctx, timeout)
		}
	}
}

// ExpireRingingCalls marks stale ringing calls missed and tells both parties.
// It returns how many calls were expired.
func (m *ManagerService) ExpireRingingCalls(ctx context.Context, timeout time.Duration) int {
	expired, err := m.Storage.ExpireRingingCalls(ctx, m.now().Add(-timeout))
	if err != nil {
		m.log.Error("expire ringing calls", zap.Error(err))
	}

	for i := range expired {
		call := &expired[i]
		m.log.Info("call not answered",
			zap.String("call_id", call.ID),
			zap.String("kind", string(call.Kind)))

		event := models.MissedEvent(call.Kind)
		m.emit(ctx, call.CalleeID, event, models.CallSignalPayload{From: call.CallerID, To: call.CalleeID})
		m.emit(ctx, call.CallerID, event, models.CallSignalPayload{From: call.CalleeID, To: call.CallerID})

		if m.notifier != nil {
			m.notifyMissedCall(ctx, call)
		}
	}
	return len(expired)
}
