package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tawk/backend/internal/config"
	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"go.uber.org/zap"
)

// handlerFunc serves one inbound event for userID. The result is sent back
// when the event carries an ack id.
type handlerFunc func(ctx context.Context, userID string, data json.RawMessage) (interface{}, error)

func (m *ManagerService) routes() map[string]handlerFunc {
	r := map[string]handlerFunc{
		models.EventFriendRequest:          m.handleFriendRequest,
		models.EventAcceptRequest:          m.handleAcceptRequest,
		models.EventStartConversation:      m.handleStartConversation,
		models.EventGetDirectConversations: m.handleGetDirectConversations,
		models.EventGetMessages:            m.handleGetMessages,
		models.EventTextMessage:            m.handleTextMessage,
	}
	for _, kind := range models.CallKinds {
		r[models.StartCallEvent(kind)] = m.startCallHandler(kind)
		r[models.NotPickedEvent(kind)] = m.callSignalHandler(kind, models.SignalNotPicked)
		r[models.AcceptedEvent(kind)] = m.callSignalHandler(kind, models.SignalAccepted)
		r[models.DeniedEvent(kind)] = m.callSignalHandler(kind, models.SignalDenied)
		r[models.BusyEvent(kind)] = m.callSignalHandler(kind, models.SignalBusy)
		r[models.EndCallEvent(kind)] = m.callSignalHandler(kind, models.SignalEnd)
	}
	return r
}

// HandleEvent runs the handler registered for in.Event. Failures never reach
// the connection beyond an empty ack and, for rejected payloads, an error event.
func (m *ManagerService) HandleEvent(ctx context.Context, in models.Inbound) {
	log := m.log.With(zap.String("event", in.Event.Name), zap.String("user_id", in.UserID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", zap.Any("panic", r))
			m.reply(ctx, in, emptyResult(in.Event.Name))
		}
	}()

	if in.Event.Name == models.EventEnd {
		m.endSession(in.UserID)
		return
	}

	h, ok := m.handlers[in.Event.Name]
	if !ok {
		log.Debug("unknown event")
		m.reply(ctx, in, nil)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, config.HandlerTimeout)
	defer cancel()

	result, err := h(hctx, in.UserID, in.Event.Data)
	if err != nil {
		m.logFailure(log, err)
		if errors.Is(err, models.ErrInvalidPayload) {
			m.emit(ctx, in.UserID, models.EventError, models.Notice{Message: err.Error()})
		}
	}
	m.reply(ctx, in, result)
}

func (m *ManagerService) reply(ctx context.Context, in models.Inbound, result interface{}) {
	if in.Event.Ack == "" {
		return
	}
	ev, err := models.NewEvent(models.EventAck, result)
	if err != nil {
		m.log.Error("encode ack", zap.String("event", in.Event.Name), zap.Error(err))
		ev = models.Event{Name: models.EventAck}
	}
	ev.Ack = in.Event.Ack
	m.Emit(ctx, in.UserID, ev)
}

// emptyResult is the ack body sent when a handler could not produce one.
func emptyResult(event string) interface{} {
	switch event {
	case models.EventGetDirectConversations:
		return []models.ConversationSummary{}
	case models.EventGetMessages:
		return []models.Message{}
	}
	return nil
}

func (m *ManagerService) logFailure(log *zap.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info("no matching record", zap.Error(err))
	case errors.Is(err, models.ErrInvalidPayload),
		errors.Is(err, storage.ErrForbidden),
		errors.Is(err, storage.ErrInvalidArgument),
		errors.Is(err, storage.ErrCallInProgress):
		log.Warn("event rejected", zap.Error(err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Error("store unavailable", zap.Error(err))
	default:
		log.Error("handler failed", zap.Error(err))
	}
}

// bind decodes data into a fresh payload, pins its sender to userID and
// validates it.
func bind[T any, P interface {
	*T
	models.Payload
}](userID string, data json.RawMessage) (P, error) {
	p := P(new(T))
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
		}
	}

	if sb, ok := any(p).(models.SenderBound); ok {
		from := sb.Sender()
		switch *from {
		case "":
			*from = userID
		case userID:
		default:
			return nil, fmt.Errorf("%w: sender %q does not match connection", models.ErrInvalidPayload, *from)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
