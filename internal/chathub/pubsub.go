package chathub

import (
	"context"
	"encoding/json"

	"tawk/backend/internal/models"

	"go.uber.org/zap"
)

// StartPubSubListener forwards events relayed by other nodes into the hub.
// Without redis it does nothing.
func (m *ManagerService) StartPubSubListener(ctx context.Context) {
	sub := m.Storage.SubscribeEvents(ctx)
	if sub == nil {
		m.log.Info("event relay disabled")
		return
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var env models.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					m.log.Warn("malformed relay envelope", zap.Error(err))
					continue
				}
				if env.Origin == m.nodeID {
					continue
				}

				select {
				case m.pubSubCh <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
