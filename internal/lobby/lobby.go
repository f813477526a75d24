package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/deftfitf/skulking-board-game/game"
	"github.com/deftfitf/skulking-board-game/internal/journal"
	"github.com/deftfitf/skulking-board-game/internal/room"
	"github.com/deftfitf/skulking-board-game/internal/roomlist"
)

const (
	defaultIdleTTL      = 10 * time.Minute
	defaultReapInterval = time.Minute
	knownRoomCacheSize  = 1024
)

var ErrRoomNotFound = errors.New("room not found")

// Lobby owns the live room actors. Rooms idle past the TTL are
// passivated to their journal and rebuilt on the next access.
type Lobby struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	// known caches positive room list lookups so repeated GetRoom
	// calls for passivated rooms skip the read model.
	known *lru.Cache[string, struct{}]

	journal  journal.Store
	roomList roomlist.Service
	logger   *logrus.Logger
	log      *logrus.Entry

	idleTTL      time.Duration
	reapInterval time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type Option func(*Lobby)

func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Lobby) { l.idleTTL = ttl }
}

func WithReapInterval(interval time.Duration) Option {
	return func(l *Lobby) { l.reapInterval = interval }
}

func New(journalStore journal.Store, roomListService roomlist.Service, logger *logrus.Logger, opts ...Option) *Lobby {
	known, _ := lru.New[string, struct{}](knownRoomCacheSize)
	l := &Lobby{
		rooms:        map[string]*room.Room{},
		known:        known,
		journal:      journalStore,
		roomList:     roomListService,
		logger:       logger,
		log:          logger.WithField("component", "lobby"),
		idleTTL:      defaultIdleTTL,
		reapInterval: defaultReapInterval,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.reapLoop()
	return l
}

// CreateRoom provisions a fresh room and seats ownerID as its first
// dealer.
func (l *Lobby) CreateRoom(ctx context.Context, ownerID string, rule game.Rule) (*room.Room, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	roomID := uuid.NewString()
	r, err := room.New(ctx, roomID, l.journal, l.roomList, l.logger)
	if err != nil {
		return nil, err
	}
	if err := r.Submit(ctx, game.Init{
		GameRoomID:    roomID,
		GameRule:      rule,
		FirstDealerID: ownerID,
	}); err != nil {
		r.Stop()
		return nil, err
	}

	l.mu.Lock()
	l.rooms[roomID] = r
	l.mu.Unlock()
	l.known.Add(roomID, struct{}{})

	l.log.WithFields(logrus.Fields{"room": roomID, "owner": ownerID}).Info("room created")
	return r, nil
}

// GetRoom returns the live actor for roomID, rebuilding it from the
// journal if it was passivated. Unknown ids fail without touching the
// journal.
func (l *Lobby) GetRoom(ctx context.Context, roomID string) (*room.Room, error) {
	l.mu.RLock()
	r, ok := l.rooms[roomID]
	l.mu.RUnlock()
	if ok && !r.IsClosed() {
		return r, nil
	}

	if !l.roomExists(ctx, roomID) {
		l.mu.Lock()
		delete(l.rooms, roomID)
		l.mu.Unlock()
		l.known.Remove(roomID)
		return nil, ErrRoomNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.rooms[roomID]; ok && !r.IsClosed() {
		return r, nil
	}

	r, err := room.New(ctx, roomID, l.journal, l.roomList, l.logger)
	if err != nil {
		return nil, err
	}
	if r.State() == nil {
		r.Stop()
		return nil, ErrRoomNotFound
	}
	l.rooms[roomID] = r
	l.log.WithField("room", roomID).Info("room reactivated")
	return r, nil
}

// roomExists consults the read model, caching hits. The read model is
// authoritative: a room deleted there must not be resurrected from its
// journal.
func (l *Lobby) roomExists(ctx context.Context, roomID string) bool {
	if _, ok := l.known.Get(roomID); ok {
		if _, err := l.roomList.FindByID(ctx, roomID); err == nil {
			return true
		}
		l.known.Remove(roomID)
		return false
	}
	if _, err := l.roomList.FindByID(ctx, roomID); err != nil {
		return false
	}
	l.known.Add(roomID, struct{}{})
	return true
}

// ListRooms pages the room list read model.
func (l *Lobby) ListRooms(ctx context.Context, limit int, cursor string) ([]roomlist.Record, error) {
	return l.roomList.Select(ctx, limit, cursor)
}

func (l *Lobby) reapLoop() {
	ticker := time.NewTicker(l.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.reapIdle()
		case <-l.done:
			return
		}
	}
}

func (l *Lobby) reapIdle() {
	l.mu.Lock()
	idle := make([]*room.Room, 0)
	for id, r := range l.rooms {
		if r.IsIdleFor(l.idleTTL) {
			idle = append(idle, r)
			delete(l.rooms, id)
		}
	}
	l.mu.Unlock()

	for _, r := range idle {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r.Passivate(ctx)
		cancel()
		l.log.WithField("room", r.ID).Info("room passivated")
	}
}

// Close stops the reaper and passivates every live room.
func (l *Lobby) Close() {
	l.stopOnce.Do(func() {
		close(l.done)
	})

	l.mu.Lock()
	live := make([]*room.Room, 0, len(l.rooms))
	for id, r := range l.rooms {
		live = append(live, r)
		delete(l.rooms, id)
	}
	l.mu.Unlock()

	for _, r := range live {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r.Passivate(ctx)
		cancel()
	}
}
