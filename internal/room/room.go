package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deftfitf/skulking-board-game/game"
	"github.com/deftfitf/skulking-board-game/internal/journal"
	"github.com/deftfitf/skulking-board-game/internal/roomlist"
)

// Conn is one player's subscription to room events. Implementations
// must not block; the gateway buffers and drops on overflow.
type Conn interface {
	SendEvent(roomID string, ev game.Event)
}

const (
	snapshotEvery     = 100
	snapshotRetain    = 2
	minRestartBackoff = 200 * time.Millisecond
	maxRestartBackoff = 5 * time.Second
)

var ErrRoomClosed = errors.New("room closed")

type submission struct {
	cmd        game.Command
	connect    *connectRequest
	disconnect *disconnectRequest
	response   chan error
}

type connectRequest struct {
	playerID string
	conn     Conn
}

type disconnectRequest struct {
	playerID string
	conn     Conn
}

// Room runs one game room as an actor: a single goroutine owns the
// state, commands are validated into events, events are journaled
// before they are applied, and cascades are worked off in FIFO order.
type Room struct {
	ID string

	mu       sync.RWMutex
	state    game.State
	closed   bool
	stopOnce sync.Once

	seq             uint64
	lastSnapshotSeq uint64
	restartBackoff  time.Duration

	conns      map[string]Conn
	emptySince time.Time

	inbox chan submission
	done  chan struct{}

	journal  journal.Store
	roomList roomlist.Service
	log      *logrus.Entry
}

// New recovers the room from its journal (latest snapshot plus replay)
// and starts the actor goroutine. A fresh room id recovers to nil state
// and waits for Init.
func New(
	ctx context.Context,
	id string,
	journalStore journal.Store,
	roomListService roomlist.Service,
	logger *logrus.Logger,
) (*Room, error) {
	r := &Room{
		ID:         id,
		conns:      map[string]Conn{},
		emptySince: time.Now(),
		inbox:      make(chan submission, 256),
		done:       make(chan struct{}),
		journal:    journalStore,
		roomList:   roomListService,
		log:        logger.WithField("room", id),
	}

	if err := r.recover(ctx); err != nil {
		return nil, err
	}
	if r.state != nil {
		if err := r.roomList.UpdateRoom(ctx, roomlist.RecordOf(r.ID, r.state)); err != nil {
			r.log.WithError(err).Warn("room list resync failed")
		}
		r.log.WithField("seq", r.seq).Info("room recovered")
	}

	go r.run()
	return r, nil
}

// recover loads the latest snapshot and replays the journal tail.
// Cascades regenerated during replay are discarded, they are already
// in the log behind their trigger.
func (r *Room) recover(ctx context.Context) error {
	var state game.State
	var fromSeq uint64

	snapshot, err := r.journal.LatestSnapshot(ctx, r.ID)
	switch {
	case err == nil:
		state, err = game.UnmarshalState(snapshot.State)
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		fromSeq = snapshot.Seq
	case errors.Is(err, journal.ErrNoSnapshot):
	default:
		return err
	}

	events, err := r.journal.ReplayEvents(ctx, r.ID, fromSeq+1)
	if err != nil {
		return err
	}
	seq := fromSeq
	for _, stored := range events {
		ev, err := game.DecodeEvent(stored.Payload)
		if err != nil {
			return fmt.Errorf("decode event seq=%d: %w", stored.Seq, err)
		}
		next, _, err := game.Apply(state, ev)
		if err != nil {
			return fmt.Errorf("replay event seq=%d: %w", stored.Seq, err)
		}
		state = next
		seq = stored.Seq
	}

	r.state = state
	r.seq = seq
	r.lastSnapshotSeq = fromSeq
	return nil
}

func (r *Room) run() {
	for {
		select {
		case sub := <-r.inbox:
			err := r.handle(sub)
			if sub.response != nil {
				sub.response <- err
			}
		case <-r.done:
			r.log.Debug("room actor stopped")
			return
		}
	}
}

func (r *Room) handle(sub submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}

	switch {
	case sub.connect != nil:
		r.handleConnect(sub.connect)
		return nil
	case sub.disconnect != nil:
		r.handleDisconnect(sub.disconnect)
		return nil
	case sub.cmd != nil:
		err := r.guardedProcess(sub.cmd)
		if err != nil {
			r.restartLocked(err)
		}
		return err
	}
	return nil
}

// guardedProcess converts a panic out of the engine into an error so
// the actor can restart instead of dying.
func (r *Room) guardedProcess(cmd game.Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("room panicked on %s: %v", cmd.CommandType(), rec)
		}
	}()
	return r.process(cmd)
}

func (r *Room) process(cmd game.Command) error {
	ev, rejection, err := game.Validate(r.state, cmd)
	if err != nil {
		return err
	}
	if rejection != nil {
		r.log.WithFields(logrus.Fields{
			"player": rejection.PlayerID,
			"reason": rejection.Type,
		}).Debug("command rejected")
		r.narrowcast(rejection.PlayerID, game.GameException{
			PlayerID: rejection.PlayerID,
			Type:     rejection.Type,
		})
		return nil
	}
	if ev == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Persist-then-apply, cascades queued FIFO behind their trigger.
	applied := make([]game.Event, 0, 4)
	queue := []game.Event{ev}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]

		if !head.PublishOnly() {
			payload, err := game.EncodeEvent(head)
			if err != nil {
				return err
			}
			if err := r.journal.AppendEvent(ctx, r.ID, r.seq+1, head.EventType(), payload); err != nil {
				return fmt.Errorf("journal append: %w", err)
			}
			r.seq++
		}

		next, cascades, err := game.Apply(r.state, head)
		if err != nil {
			return err
		}
		r.state = next
		applied = append(applied, head)
		queue = append(queue, cascades...)
	}
	r.restartBackoff = 0

	r.syncRoomList(ctx, applied)
	for _, appliedEv := range applied {
		r.deliver(appliedEv)
	}
	r.afterDelivery(ctx, applied)
	r.maybeSnapshot(ctx)
	return nil
}

// syncRoomList refreshes the read model on membership and phase
// transitions only, never on per-trick traffic.
func (r *Room) syncRoomList(ctx context.Context, applied []game.Event) {
	var touch bool
	for _, ev := range applied {
		switch ev.(type) {
		case game.Initialized:
			created, err := r.roomList.PutNewRoom(ctx, roomlist.RecordOf(r.ID, r.state))
			if err != nil {
				r.log.WithError(err).Warn("room list put failed")
			} else if !created {
				r.log.Warn("room id already listed")
			}
		case game.GameEnded:
			if err := r.roomList.DeleteRoom(ctx, r.ID); err != nil {
				r.log.WithError(err).Warn("room list delete failed")
			}
		case game.APlayerJoined, game.APlayerLeft, game.RoomDealerChanged,
			game.GameStarted, game.GameFinished, game.GameReplayed:
			touch = true
		}
	}
	if touch && r.state != nil {
		if err := r.roomList.UpdateRoom(ctx, roomlist.RecordOf(r.ID, r.state)); err != nil {
			r.log.WithError(err).Warn("room list update failed")
		}
	}
}

// afterDelivery handles the membership fallout of a processed batch:
// leavers lose their connection, an emptied or ended room stops.
func (r *Room) afterDelivery(ctx context.Context, applied []game.Event) {
	var left bool
	for _, ev := range applied {
		switch e := ev.(type) {
		case game.APlayerLeft:
			r.closeConnLocked(e.PlayerID)
			left = true
		case game.RoomDealerChanged:
			r.closeConnLocked(e.LeftPlayerID)
			left = true
		case game.GameEnded:
			r.stopLocked()
			return
		}
	}
	if left && r.state != nil && len(r.state.PlayerIDs()) == 0 {
		if err := r.roomList.DeleteRoom(ctx, r.ID); err != nil {
			r.log.WithError(err).Warn("room list delete failed")
		}
		r.stopLocked()
	}
}

func (r *Room) maybeSnapshot(ctx context.Context) {
	if r.state == nil || r.seq-r.lastSnapshotSeq < snapshotEvery {
		return
	}
	raw, err := game.MarshalState(r.state)
	if err != nil {
		r.log.WithError(err).Warn("snapshot marshal failed")
		return
	}
	if err := r.journal.SaveSnapshot(ctx, r.ID, r.seq, raw); err != nil {
		r.log.WithError(err).Warn("snapshot save failed")
		return
	}
	r.lastSnapshotSeq = r.seq
	if err := r.journal.PruneSnapshots(ctx, r.ID, snapshotRetain); err != nil {
		r.log.WithError(err).Warn("snapshot prune failed")
	}
}

// restartLocked reloads the room from its journal after an engine
// failure, with exponential backoff between attempts.
func (r *Room) restartLocked(cause error) {
	if r.restartBackoff < minRestartBackoff {
		r.restartBackoff = minRestartBackoff
	} else {
		r.restartBackoff *= 2
		if r.restartBackoff > maxRestartBackoff {
			r.restartBackoff = maxRestartBackoff
		}
	}
	r.log.WithError(cause).WithField("backoff", r.restartBackoff).Error("room restarting")
	time.Sleep(r.restartBackoff)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.recover(ctx); err != nil {
		r.log.WithError(err).Error("room recovery failed, closing")
		r.stopLocked()
		return
	}
	if r.state != nil {
		if err := r.roomList.UpdateRoom(ctx, roomlist.RecordOf(r.ID, r.state)); err != nil {
			r.log.WithError(err).Warn("room list resync failed")
		}
	}
}

func (r *Room) handleConnect(req *connectRequest) {
	if existing, ok := r.conns[req.playerID]; ok && existing == req.conn {
		return
	}
	r.conns[req.playerID] = req.conn
	r.emptySince = time.Time{}
	req.conn.SendEvent(r.ID, game.ConnectionEstablished{PlayerID: req.playerID})
	req.conn.SendEvent(r.ID, game.GameSnapshot{GameRoomID: r.ID, State: r.state})
}

// handleDisconnect ignores a stale connection: if the player already
// reconnected, the new registration wins.
func (r *Room) handleDisconnect(req *disconnectRequest) {
	existing, ok := r.conns[req.playerID]
	if !ok || existing != req.conn {
		return
	}
	delete(r.conns, req.playerID)
	if len(r.conns) == 0 {
		r.emptySince = time.Now()
	}
	r.broadcast(game.ConnectionClosed{PlayerID: req.playerID})
}

// closeConnLocked tells the departed connection it was removed, then
// drops it from the registry.
func (r *Room) closeConnLocked(playerID string) {
	if conn, ok := r.conns[playerID]; ok {
		conn.SendEvent(r.ID, game.ConnectionClosed{PlayerID: playerID})
	}
	r.dropConnLocked(playerID)
}

func (r *Room) dropConnLocked(playerID string) {
	delete(r.conns, playerID)
	if len(r.conns) == 0 {
		r.emptySince = time.Now()
	}
}

// deliver fans an event out to every connection, redacted per viewer.
func (r *Room) deliver(ev game.Event) {
	for playerID, conn := range r.conns {
		viewed, visible := viewerEvent(ev, playerID)
		if !visible {
			continue
		}
		conn.SendEvent(r.ID, viewed)
	}
}

func (r *Room) broadcast(ev game.Event) {
	for _, conn := range r.conns {
		conn.SendEvent(r.ID, ev)
	}
}

func (r *Room) narrowcast(playerID string, ev game.Event) {
	conn, ok := r.conns[playerID]
	if !ok {
		return
	}
	conn.SendEvent(r.ID, ev)
}

// viewerEvent redacts private payloads: dealt hands and the remaining
// deck never leave the room unfiltered, pirate offers go to the winner
// only.
func viewerEvent(ev game.Event, viewerID string) (game.Event, bool) {
	switch e := ev.(type) {
	case game.RoundStarted:
		own := make([]game.DealtPlayer, 0, 1)
		for _, dealt := range e.Players {
			if dealt.PlayerID == viewerID {
				own = append(own, dealt)
			}
		}
		return game.RoundStarted{Round: e.Round, Players: own}, true
	case game.APlayerWon:
		if e.Effect != nil && len(e.Effect.DrawCardIDs) > 0 && viewerID != e.Effect.PlayerID {
			redacted := *e.Effect
			redacted.DrawCardIDs = nil
			e.Effect = &redacted
		}
		return e, true
	case game.HandChangeAvailableNotice:
		return e, viewerID == e.PlayerID
	case game.FuturePredicateAvailable:
		return e, viewerID == e.PlayerID
	case game.DeclareBidChangeAvailable:
		return e, viewerID == e.PlayerID
	case game.NextTrickLeadPlayerChangeableNotice:
		return e, viewerID == e.PlayerID
	}
	return ev, true
}

func (r *Room) submit(ctx context.Context, sub submission) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	if sub.response == nil {
		sub.response = make(chan error, 1)
	}
	select {
	case r.inbox <- sub:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-sub.response:
		return err
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit routes a command through the actor and waits for the outcome.
func (r *Room) Submit(ctx context.Context, cmd game.Command) error {
	return r.submit(ctx, submission{cmd: cmd})
}

// Connect registers a player connection. Re-registering the same
// connection is a no-op, a different one replaces the old.
func (r *Room) Connect(ctx context.Context, playerID string, conn Conn) error {
	return r.submit(ctx, submission{connect: &connectRequest{playerID: playerID, conn: conn}})
}

// Disconnect removes the connection if it is still the registered one.
func (r *Room) Disconnect(ctx context.Context, playerID string, conn Conn) error {
	return r.submit(ctx, submission{disconnect: &disconnectRequest{playerID: playerID, conn: conn}})
}

// State returns the current game state for read-only use.
func (r *Room) State() game.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// IsIdleFor reports whether the room has had no connections for ttl,
// so the lobby can passivate it.
func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return true
	}
	if len(r.conns) > 0 || r.emptySince.IsZero() {
		return false
	}
	return time.Since(r.emptySince) >= ttl
}

// Passivate snapshots the current state and stops the actor. The room
// can be rebuilt from the journal on the next access.
func (r *Room) Passivate(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.state != nil && r.seq > r.lastSnapshotSeq {
		raw, err := game.MarshalState(r.state)
		if err == nil {
			if err := r.journal.SaveSnapshot(ctx, r.ID, r.seq, raw); err != nil {
				r.log.WithError(err).Warn("passivation snapshot failed")
			}
		}
	}
	r.stopLocked()
}

func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Room) stopLocked() {
	r.closed = true
	r.stopOnce.Do(func() {
		close(r.done)
	})
}
