package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names.
const (
	EventFriendRequest          = "friend_request"
	EventAcceptRequest          = "accept_request"
	EventStartConversation      = "start_conversation"
	EventGetDirectConversations = "get_direct_conversations"
	EventGetMessages            = "get_messages"
	EventTextMessage            = "text_message"
	EventEnd                    = "end"
)

// Outbound event names.
const (
	EventNewFriendRequest = "new_friend_request"
	EventRequestSent      = "request_sent"
	EventRequestAccepted  = "request_accepted"
	EventStartChat        = "start_chat"
	EventNewMessage       = "new_message"
	EventAck              = "ack"
	EventError            = "error"
)

// StartCallEvent and friends return the kind-qualified call event names.
func StartCallEvent(k CallKind) string     { return "start_" + string(k) + "_call" }
func NotPickedEvent(k CallKind) string     { return string(k) + "_call_not_picked" }
func AcceptedEvent(k CallKind) string      { return string(k) + "_call_accepted" }
func DeniedEvent(k CallKind) string        { return string(k) + "_call_denied" }
func BusyEvent(k CallKind) string          { return "user_is_busy_" + string(k) + "_call" }
func EndCallEvent(k CallKind) string       { return "end_" + string(k) + "_call" }
func NotificationEvent(k CallKind) string  { return string(k) + "_call_notification" }
func MissedEvent(k CallKind) string        { return string(k) + "_call_missed" }
func OnAnotherCallEvent(k CallKind) string { return "on_another_" + string(k) + "_call" }
func CallEndedEvent(k CallKind) string     { return string(k) + "_call_ended" }

// OutboundSignalEvent maps a follow-up signal to the event delivered to the other party.
func OutboundSignalEvent(k CallKind, sig CallSignal) string {
	switch sig {
	case SignalNotPicked:
		return MissedEvent(k)
	case SignalAccepted:
		return AcceptedEvent(k)
	case SignalDenied:
		return DeniedEvent(k)
	case SignalBusy:
		return OnAnotherCallEvent(k)
	default:
		return CallEndedEvent(k)
	}
}

// Event is the JSON frame exchanged over a live connection.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
	Ack  string          `json:"ack,omitempty"`
}

// NewEvent marshals data into an outbound frame.
func NewEvent(name string, data interface{}) (Event, error) {
	if data == nil {
		return Event{Name: name}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Event{Name: name, Data: raw}, nil
}

// Inbound is an event read from the connection of an authenticated user.
type Inbound struct {
	UserID string
	Event  Event
}

// Envelope carries an outbound event between nodes through the relay.
type Envelope struct {
	Origin string `json:"origin"`
	UserID string `json:"user_id"`
	Event  Event  `json:"event"`
}

// ErrInvalidPayload marks a payload rejected at the router boundary.
var ErrInvalidPayload = errors.New("invalid payload")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// Payload is implemented by every typed inbound payload.
type Payload interface {
	Validate() error
}

// SenderBound payloads carry a "from" field that must match the connection identity.
type SenderBound interface {
	Sender() *string
}

type FriendRequestPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p *FriendRequestPayload) Sender() *string { return &p.From }

func (p *FriendRequestPayload) Validate() error {
	if p.To == "" {
		return invalid("to is required")
	}
	if p.To == p.From {
		return invalid("cannot befriend yourself")
	}
	return nil
}

type AcceptRequestPayload struct {
	RequestID string `json:"requestId"`
}

func (p *AcceptRequestPayload) Validate() error {
	if p.RequestID == "" {
		return invalid("requestId is required")
	}
	return nil
}

type StartConversationPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
}

func (p *StartConversationPayload) Sender() *string { return &p.From }

func (p *StartConversationPayload) Validate() error {
	if p.To == "" {
		return invalid("to is required")
	}
	if p.To == p.From {
		return invalid("cannot start a conversation with yourself")
	}
	return nil
}

type GetDirectConversationsPayload struct {
	UserID string `json:"userId"`
}

func (p *GetDirectConversationsPayload) Sender() *string { return &p.UserID }

func (p *GetDirectConversationsPayload) Validate() error { return nil }

type GetMessagesPayload struct {
	ConversationID string `json:"conversationId"`
}

func (p *GetMessagesPayload) Validate() error {
	if p.ConversationID == "" {
		return invalid("conversationId is required")
	}
	return nil
}

type TextMessagePayload struct {
	ConversationID string `json:"conversationId"`
	From           string `json:"from"`
	To             string `json:"to"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	File           string `json:"file,omitempty"`
}

func (p *TextMessagePayload) Sender() *string { return &p.From }

func (p *TextMessagePayload) Validate() error {
	if p.ConversationID == "" {
		return invalid("conversationId is required")
	}
	if p.To == "" {
		return invalid("to is required")
	}
	p.Type = strings.ToLower(p.Type)
	if p.Type == "" {
		p.Type = MessageText
	}
	switch p.Type {
	case MessageText, MessageLink:
		if p.Message == "" {
			return invalid("message is required")
		}
	case MessageFile:
		if p.File == "" {
			return invalid("file is required")
		}
	default:
		return invalid("unknown message type %q", p.Type)
	}
	return nil
}

type StartCallPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	RoomID string `json:"roomId"`
}

func (p *StartCallPayload) Sender() *string { return &p.From }

func (p *StartCallPayload) Validate() error {
	if p.To == "" {
		return invalid("to is required")
	}
	if p.To == p.From {
		return invalid("cannot call yourself")
	}
	return nil
}

// CallSignalPayload is shared by every follow-up call event. From is the sender
// of the signal, To the other party.
type CallSignalPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p *CallSignalPayload) Sender() *string { return &p.From }

func (p *CallSignalPayload) Validate() error {
	if p.To == "" {
		return invalid("to is required")
	}
	if p.To == p.From {
		return invalid("from and to must differ")
	}
	return nil
}

// CallNotification is delivered to the callee when a call starts.
type CallNotification struct {
	CallID   string      `json:"callId"`
	From     UserSummary `json:"from"`
	RoomID   string      `json:"roomId"`
	StreamID string      `json:"streamId"`
	UserID   string      `json:"userId"`
	UserName string      `json:"userName"`
}

// Notice is the body of friend-graph confirmations.
type Notice struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// NewMessageNotice is the body of new_message.
type NewMessageNotice struct {
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message"`
}

// StartChatNotice is the body of start_chat.
type StartChatNotice struct {
	Conversation *Conversation `json:"conversation"`
}
