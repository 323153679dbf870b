package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallKind selects the audio or video flavour of the signaling machine.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// CallKinds lists every supported kind.
var CallKinds = []CallKind{CallAudio, CallVideo}

type CallStatus string

const (
	CallOngoing CallStatus = "ongoing"
	CallEnded   CallStatus = "ended"
)

type CallVerdict string

const (
	VerdictNone     CallVerdict = "none"
	VerdictAccepted CallVerdict = "accepted"
	VerdictDenied   CallVerdict = "denied"
	VerdictMissed   CallVerdict = "missed"
	VerdictBusy     CallVerdict = "busy"
)

// CallSignal is a follow-up event applied to a ringing or accepted session.
type CallSignal string

const (
	SignalNotPicked CallSignal = "not_picked"
	SignalAccepted  CallSignal = "accepted"
	SignalDenied    CallSignal = "denied"
	SignalBusy      CallSignal = "busy"
	SignalEnd       CallSignal = "end"
)

// CallSession is one call attempt between a caller and a callee.
// At most one ongoing session exists per pair, whatever its kind.
type CallSession struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	Kind      CallKind    `gorm:"type:text;not null" json:"kind"`
	PairKey   string      `gorm:"not null;index;uniqueIndex:idx_calls_ongoing_pair,where:status = 'ongoing'" json:"-"`
	CallerID  string      `gorm:"not null" json:"from"`
	CalleeID  string      `gorm:"not null" json:"to"`
	RoomID    string      `gorm:"type:text" json:"roomId"`
	Status    CallStatus  `gorm:"type:text;not null;index" json:"status"`
	Verdict   CallVerdict `gorm:"type:text;not null" json:"verdict"`
	StartedAt time.Time   `gorm:"not null" json:"startedAt"`
	EndedAt   *time.Time  `json:"endedAt,omitempty"`
}

// NewCallSession builds a ringing session.
func NewCallSession(kind CallKind, callerID, calleeID, roomID string, now time.Time) *CallSession {
	return &CallSession{
		Kind:      kind,
		PairKey:   PairKey(callerID, calleeID),
		CallerID:  callerID,
		CalleeID:  calleeID,
		RoomID:    roomID,
		Status:    CallOngoing,
		Verdict:   VerdictNone,
		StartedAt: now,
	}
}

func (c *CallSession) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.RoomID == "" {
		c.RoomID = c.ID
	}
	return
}

// Transition computes the verdict reached by applying sig to a session holding
// verdict from. ends reports whether the session becomes Ended. ok is false when
// the signal is not valid in that state; sessions never move backwards.
func (sig CallSignal) Transition(from CallVerdict) (to CallVerdict, ends bool, ok bool) {
	switch sig {
	case SignalNotPicked:
		if from == VerdictNone {
			return VerdictMissed, true, true
		}
	case SignalAccepted:
		if from == VerdictNone {
			return VerdictAccepted, false, true
		}
	case SignalDenied:
		if from == VerdictNone {
			return VerdictDenied, true, true
		}
	case SignalBusy:
		if from == VerdictNone {
			return VerdictBusy, true, true
		}
	case SignalEnd:
		switch from {
		case VerdictNone:
			// caller hung up before an answer
			return VerdictMissed, true, true
		case VerdictAccepted:
			return VerdictAccepted, true, true
		}
	}
	return from, false, false
}

// MaySignal reports whether actorID is allowed to send sig on this session.
func (c *CallSession) MaySignal(actorID string, sig CallSignal) bool {
	switch sig {
	case SignalNotPicked:
		return actorID == c.CallerID
	case SignalAccepted, SignalDenied, SignalBusy:
		return actorID == c.CalleeID
	case SignalEnd:
		return actorID == c.CallerID || actorID == c.CalleeID
	}
	return false
}
