package chathub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tawk/backend/internal/chathub"
	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

// newStore returns a SQLite backed store seeded with the given user ids.
func newStore(t *testing.T, rdb *redis.Client, users ...string) *storage.Service {
	t.Helper()
	s := storage.NewStorageService(openTestDB(t), rdb)
	for _, id := range users {
		require.NoError(t, s.SaveUser(context.Background(), &models.User{
			ID:        id,
			FirstName: id,
			LastName:  "Test",
			Email:     id + "@example.com",
			Verified:  true,
		}))
	}
	return s
}

// startHub runs hub until the test ends.
func startHub(t *testing.T, hub *chathub.ManagerService) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return ctx
}

// connect registers c and waits until the hub resolves it.
func connect(t *testing.T, hub *chathub.ManagerService, c chathub.Client) {
	t.Helper()
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool {
		got, ok := hub.Registry.Resolve(c.GetUserID())
		return ok && got == c
	}, 2*time.Second, 5*time.Millisecond)
}

func inbound(t *testing.T, userID, name string, data interface{}) models.Inbound {
	t.Helper()
	ev := models.Event{Name: name}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		ev.Data = raw
	}
	return models.Inbound{UserID: userID, Event: ev}
}

func withAck(in models.Inbound, ack string) models.Inbound {
	in.Event.Ack = ack
	return in
}

type obj = map[string]interface{}
