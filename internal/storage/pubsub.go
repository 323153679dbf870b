package storage

import (
	"context"
	"encoding/json"

	"tawk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// EventsChannel is the redis channel every node listens on for relayed events.
	EventsChannel  = "tawk:events"
	onlineUsersKey = "tawk:online_users"
)

func (s *Service) markOnline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.SAdd(ctx, onlineUsersKey, userID).Err()
}

func (s *Service) markOffline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.SRem(ctx, onlineUsersKey, userID).Err()
}

// GetOnlineUserIDs returns the users currently connected to any node. Without
// redis the persisted user status is used.
func (s *Service) GetOnlineUserIDs(ctx context.Context) ([]string, error) {
	if s.Redis != nil {
		return s.Redis.SMembers(ctx, onlineUsersKey).Result()
	}

	ids := []string{}
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("status = ?", models.StatusOnline).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

// PublishEvent relays an outbound event to the other nodes. It is a no-op without redis.
func (s *Service) PublishEvent(ctx context.Context, env models.Envelope) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, EventsChannel, payload).Err()
}

// SubscribeEvents subscribes to relayed events. It returns nil without redis.
func (s *Service) SubscribeEvents(ctx context.Context) *redis.PubSub {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Subscribe(ctx, EventsChannel)
}
