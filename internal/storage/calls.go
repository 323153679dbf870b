package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tawk/backend/internal/models"

	"gorm.io/gorm"
)

// CreateCall stores a new ringing session. It fails with ErrCallInProgress when
// the pair already has an ongoing session of either kind.
func (s *Service) CreateCall(ctx context.Context, call *models.CallSession) error {
	if call.CallerID == "" || call.CalleeID == "" || call.CallerID == call.CalleeID {
		return fmt.Errorf("%w: a call needs two distinct users", ErrInvalidArgument)
	}
	if call.StartedAt.IsZero() {
		call.StartedAt = s.now()
	}
	call.PairKey = models.PairKey(call.CallerID, call.CalleeID)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ongoing int64
		err := tx.Model(&models.CallSession{}).
			Where("pair_key = ? AND status = ?", call.PairKey, models.CallOngoing).
			Count(&ongoing).Error
		if err != nil {
			return err
		}
		if ongoing > 0 {
			return ErrCallInProgress
		}
		return tx.Create(call).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCallInProgress
	}
	return err
}

// GetCallByID loads a single session.
func (s *Service) GetCallByID(ctx context.Context, callID string) (*models.CallSession, error) {
	var call models.CallSession
	if err := s.DB.WithContext(ctx).Where("id = ?", callID).First(&call).Error; err != nil {
		return nil, notFound(err, "call")
	}
	return &call, nil
}

// TransitionCall applies sig, sent by actorID, to the ongoing session of kind
// between actorID and peerID. It returns ErrNotFound when no ongoing session
// exists or the signal is not valid in the current state, and ErrForbidden when
// actorID may not send sig.
func (s *Service) TransitionCall(ctx context.Context, kind models.CallKind, actorID, peerID string, sig models.CallSignal) (*models.CallSession, error) {
	var call models.CallSession

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("kind = ? AND pair_key = ? AND status = ?", kind, models.PairKey(actorID, peerID), models.CallOngoing).
			Order("started_at desc").
			First(&call).Error
		if err != nil {
			return notFound(err, "ongoing call")
		}
		if !call.MaySignal(actorID, sig) {
			return fmt.Errorf("%w: %s may not send %s", ErrForbidden, actorID, sig)
		}

		verdict, ends, ok := sig.Transition(call.Verdict)
		if !ok {
			return fmt.Errorf("%w: no %s call accepting %s", ErrNotFound, call.Verdict, sig)
		}

		cols := map[string]interface{}{"verdict": verdict}
		if ends {
			now := s.now()
			cols["status"] = models.CallEnded
			cols["ended_at"] = now
			call.Status = models.CallEnded
			call.EndedAt = &now
		}

		// conditional on the verdict we read, so a racing signal loses cleanly
		res := tx.Model(&models.CallSession{}).
			Where("id = ? AND status = ? AND verdict = ?", call.ID, models.CallOngoing, call.Verdict).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: ongoing call", ErrNotFound)
		}
		call.Verdict = verdict
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// ExpireRingingCalls moves ringing sessions started before the cutoff to
// Missed/Ended and returns the sessions it changed.
func (s *Service) ExpireRingingCalls(ctx context.Context, startedBefore time.Time) ([]models.CallSession, error) {
	var stale []models.CallSession
	err := s.DB.WithContext(ctx).
		Where("status = ? AND verdict = ? AND started_at < ?", models.CallOngoing, models.VerdictNone, startedBefore).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}

	expired := make([]models.CallSession, 0, len(stale))
	for _, call := range stale {
		now := s.now()
		res := s.DB.WithContext(ctx).Model(&models.CallSession{}).
			Where("id = ? AND status = ? AND verdict = ?", call.ID, models.CallOngoing, models.VerdictNone).
			Updates(map[string]interface{}{
				"verdict":  models.VerdictMissed,
				"status":   models.CallEnded,
				"ended_at": now,
			})
		if res.Error != nil {
			return expired, res.Error
		}
		if res.RowsAffected == 0 {
			continue // answered in the meantime
		}
		call.Verdict = models.VerdictMissed
		call.Status = models.CallEnded
		call.EndedAt = &now
		expired = append(expired, call)
	}
	return expired, nil
}
