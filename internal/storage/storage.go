package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tawk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCallInProgress  = errors.New("call in progress")
)

// Storage is the record store consumed by the hub and the HTTP handlers.
type Storage interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)
	SetPresence(ctx context.Context, userID string, online bool) error
	GetOnlineUserIDs(ctx context.Context) ([]string, error)
	ListVerifiedUsers(ctx context.Context, excludeID string) ([]models.User, error)
	ListNonFriends(ctx context.Context, userID string) ([]models.User, error)
	ListFriends(ctx context.Context, userID string) ([]models.User, error)

	CreateFriendRequest(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID, actorID string) (*models.FriendRequest, error)
	ListFriendRequests(ctx context.Context, recipientID string) ([]models.FriendRequest, error)

	GetOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, bool, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error)

	CreateCall(ctx context.Context, call *models.CallSession) error
	GetCallByID(ctx context.Context, callID string) (*models.CallSession, error)
	TransitionCall(ctx context.Context, kind models.CallKind, actorID, peerID string, sig models.CallSignal) (*models.CallSession, error)
	ExpireRingingCalls(ctx context.Context, startedBefore time.Time) ([]models.CallSession, error)

	PublishEvent(ctx context.Context, env models.Envelope) error
	SubscribeEvents(ctx context.Context) *redis.PubSub
}

// Service implements Storage on gorm. Redis is optional; without it presence is
// only persisted on the user record and events are not relayed between nodes.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	now func() time.Time
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		now:   time.Now,
	}
}

// OpenPostgres connects gorm to Postgres with duplicate-key errors translated
// to gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.Conversation{},
		&models.Message{},
		&models.CallSession{},
	)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
