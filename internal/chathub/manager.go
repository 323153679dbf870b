package chathub

import (
	"context"
	"sync"
	"time"

	"tawk/backend/internal/config"
	"tawk/backend/internal/logging"
	"tawk/backend/internal/models"
	"tawk/backend/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfflineNotifier reaches users that are not connected. Implementations must
// not block the caller.
type OfflineNotifier interface {
	FriendRequest(ctx context.Context, recipient, sender *models.User)
	MissedCall(ctx context.Context, callee, caller *models.User, kind models.CallKind)
}

// ManagerService is the hub: it owns the presence registry, routes inbound
// events to their handlers and delivers outbound events to connections.
type ManagerService struct {
	Registry *Registry
	Storage  storage.Storage

	// Channels
	IncomingCh   chan models.Inbound
	RegisterCh   chan Client
	UnregisterCh chan Client

	pubSubCh chan models.Envelope
	done     chan struct{}
	inflight sync.WaitGroup

	handlers map[string]handlerFunc
	locks    *KeyedMutex

	// presence writes carry a sequence number; only the latest per user lands
	presenceMu  sync.Mutex
	presenceSeq uint64
	presenceTip map[string]uint64

	notifier OfflineNotifier
	nodeID   string
	log      *zap.Logger
	now      func() time.Time
}

func NewManagerService(s storage.Storage, log *zap.Logger) *ManagerService {
	m := &ManagerService{
		Registry:     NewRegistry(),
		Storage:      s,
		IncomingCh:   make(chan models.Inbound, config.IncomingCapacity),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		pubSubCh:     make(chan models.Envelope),
		done:         make(chan struct{}),
		locks:        NewKeyedMutex(),
		presenceTip:  make(map[string]uint64),
		nodeID:       uuid.NewString(),
		log:          logging.OrNop(log).With(zap.String("component", "hub")),
		now:          time.Now,
	}
	m.handlers = m.routes()
	return m
}

// SetNotifier installs the sink used for users that are offline.
func (m *ManagerService) SetNotifier(n OfflineNotifier) {
	m.notifier = n
}

// SetNodeID names this process in relayed envelopes.
func (m *ManagerService) SetNodeID(id string) {
	if id != "" {
		m.nodeID = id
	}
}

func (m *ManagerService) NodeID() string { return m.nodeID }

// Run processes registrations and inbound events until ctx is cancelled. On
// return every local connection has been closed.
func (m *ManagerService) Run(ctx context.Context) {
	m.StartPubSubListener(ctx)
	m.log.Info("hub started", zap.String("node_id", m.nodeID))

	defer func() {
		close(m.done)
		for _, c := range m.Registry.Drain() {
			c.Close()
		}
		m.inflight.Wait()
		m.log.Info("hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-m.RegisterCh:
			m.connect(ctx, c)

		case c := <-m.UnregisterCh:
			m.disconnect(ctx, c)

		case in := <-m.IncomingCh:
			m.inflight.Add(1)
			go func() {
				defer m.inflight.Done()
				m.HandleEvent(ctx, in)
			}()

		case env := <-m.pubSubCh:
			// relayed from another node; never republished
			m.deliverLocal(env.UserID, env.Event)
		}
	}
}

// Register hands c to the hub. It returns false once the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	if m.stopped() {
		return false
	}
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Submit queues an inbound event for dispatch.
func (m *ManagerService) Submit(in models.Inbound) bool {
	if m.stopped() {
		return false
	}
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) stopped() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func (m *ManagerService) connect(ctx context.Context, c Client) {
	userID := c.GetUserID()
	if userID == "" {
		m.log.Warn("connection without identity ignored")
		c.Close()
		return
	}

	if prev := m.Registry.Connect(c); prev != nil {
		m.log.Info("connection superseded", zap.String("user_id", userID))
		prev.Close()
	}
	m.setPresence(ctx, userID, true)
	m.log.Debug("client registered", zap.String("user_id", userID))
}

func (m *ManagerService) disconnect(ctx context.Context, c Client) {
	userID := c.GetUserID()
	if m.Registry.Remove(userID, c) {
		m.setPresence(ctx, userID, false)
		m.log.Debug("client unregistered", zap.String("user_id", userID))
	}
	c.Close()
}

// setPresence persists the presence of userID in the background. Writes for
// one user are applied in order; a write overtaken by a newer one is skipped.
func (m *ManagerService) setPresence(ctx context.Context, userID string, online bool) {
	m.presenceMu.Lock()
	m.presenceSeq++
	seq := m.presenceSeq
	m.presenceTip[userID] = seq
	m.presenceMu.Unlock()

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		unlock := m.locks.Lock("presence:" + userID)
		defer unlock()
		if !m.latestPresence(userID, seq) {
			return
		}

		wctx, cancel := context.WithTimeout(ctx, config.PresenceTimeout)
		defer cancel()
		if err := m.Storage.SetPresence(wctx, userID, online); err != nil {
			m.log.Warn("presence not persisted",
				zap.String("user_id", userID),
				zap.Bool("online", online),
				zap.Error(err))
		}

		m.presenceMu.Lock()
		if m.presenceTip[userID] == seq {
			delete(m.presenceTip, userID)
		}
		m.presenceMu.Unlock()
	}()
}

func (m *ManagerService) latestPresence(userID string, seq uint64) bool {
	m.presenceMu.Lock()
	defer m.presenceMu.Unlock()
	return m.presenceTip[userID] == seq
}

// Emit delivers ev to userID. Users connected to another node are reached
// through the relay; absent users are dropped silently.
func (m *ManagerService) Emit(ctx context.Context, userID string, ev models.Event) {
	if userID == "" {
		return
	}
	if m.deliverLocal(userID, ev) {
		return
	}
	err := m.Storage.PublishEvent(ctx, models.Envelope{Origin: m.nodeID, UserID: userID, Event: ev})
	if err != nil {
		m.log.Warn("relay publish failed",
			zap.String("user_id", userID),
			zap.String("event", ev.Name),
			zap.Error(err))
	}
}

func (m *ManagerService) deliverLocal(userID string, ev models.Event) bool {
	c, ok := m.Registry.Resolve(userID)
	if !ok {
		return false
	}
	if !c.Send(ev) {
		m.log.Warn("outbound event dropped",
			zap.String("user_id", userID),
			zap.String("event", ev.Name))
	}
	return true
}

// emit encodes data and delivers it; encoding errors are logged.
func (m *ManagerService) emit(ctx context.Context, userID, name string, data interface{}) {
	ev, err := models.NewEvent(name, data)
	if err != nil {
		m.log.Error("encode outbound event", zap.String("event", name), zap.Error(err))
		return
	}
	m.Emit(ctx, userID, ev)
}

// endSession closes the live connection of userID, if any.
func (m *ManagerService) endSession(userID string) {
	c, ok := m.Registry.Resolve(userID)
	if !ok {
		return
	}
	m.Unregister(c)
}
