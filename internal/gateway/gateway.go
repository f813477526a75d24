package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/deftfitf/skulking-board-game/game"
	"github.com/deftfitf/skulking-board-game/internal/codec"
	"github.com/deftfitf/skulking-board-game/internal/lobby"
	"github.com/deftfitf/skulking-board-game/internal/room"
)

const (
	sendBufferSize = 256
	maxFrameSize   = 65536
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	writeWait      = 10 * time.Second
	submitTimeout  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins outside local development
	},
}

// Gateway terminates WebSocket connections and routes client frames
// into room actors via the lobby.
type Gateway struct {
	lobby *lobby.Lobby
	log   *logrus.Entry
}

func New(lby *lobby.Lobby, logger *logrus.Logger) *Gateway {
	return &Gateway{
		lobby: lby,
		log:   logger.WithField("component", "gateway"),
	}
}

// HandleWebSocket upgrades the request and starts the client pumps.
// The player identity comes from the playerId query parameter, an
// anonymous connection gets a generated one.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	c := &client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		gateway:  g,
		log:      g.log.WithField("player", playerID),
	}
	c.log.Info("client connected")

	go c.writePump()
	go c.readPump()
}

// client is one player's WebSocket session. It implements room.Conn,
// so the room actor can push events straight into the send buffer.
type client struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte
	gateway  *Gateway
	log      *logrus.Entry

	mu     sync.Mutex
	roomID string
	room   *room.Room
}

// SendEvent encodes and buffers an event for the client. It must not
// block the room actor: a full buffer drops the frame and the client
// is expected to re-sync via snapshot_request.
func (c *client) SendEvent(roomID string, ev game.Event) {
	raw, err := codec.EncodeServerEvent(roomID, ev)
	if err != nil {
		c.log.WithError(err).Warn("event encode failed")
		return
	}
	select {
	case c.send <- raw:
	default:
		c.log.WithField("event", ev.EventType()).Warn("send buffer full, frame dropped")
	}
}

func (c *client) currentRoom() (*room.Room, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.roomID
}

func (c *client) setRoom(r *room.Room, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = r
	c.roomID = roomID
}

func (c *client) readPump() {
	defer func() {
		if r, roomID := c.currentRoom(); r != nil {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			if err := r.Disconnect(ctx, c.playerID, c); err != nil && err != room.ErrRoomClosed {
				c.log.WithError(err).WithField("room", roomID).Warn("disconnect failed")
			}
			cancel()
		}
		c.conn.Close()
		c.log.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("read failed")
			}
			return
		}
		c.handleFrame(raw)
	}
}

func (c *client) handleFrame(raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	msg, err := codec.DecodeClientMessage(raw)
	if err != nil {
		c.sendError("", err.Error())
		return
	}

	switch msg.Type {
	case codec.MsgCreateRoom:
		c.handleCreateRoom(ctx, msg)
	case codec.MsgJoin:
		c.handleJoin(ctx, msg)
	case codec.MsgSnapshotRequest:
		c.handleSnapshotRequest(msg)
	default:
		c.handleCommand(ctx, msg)
	}
}

func (c *client) handleCreateRoom(ctx context.Context, msg codec.ClientMessage) {
	rule, err := codec.DecodeCreateRoom(msg)
	if err != nil {
		c.sendError("", err.Error())
		return
	}
	r, err := c.gateway.lobby.CreateRoom(ctx, c.playerID, rule)
	if err != nil {
		c.sendError("", err.Error())
		return
	}
	if err := c.attach(ctx, r); err != nil {
		c.sendError(r.ID, err.Error())
		return
	}
	if err := r.Submit(ctx, game.Join{PlayerID: c.playerID}); err != nil {
		c.sendError(r.ID, err.Error())
	}
}

// handleJoin attaches the connection first, so a reconnecting member
// gets the snapshot without a membership change.
func (c *client) handleJoin(ctx context.Context, msg codec.ClientMessage) {
	r, err := c.gateway.lobby.GetRoom(ctx, msg.RoomID)
	if err != nil {
		c.sendError(msg.RoomID, err.Error())
		return
	}
	if err := c.attach(ctx, r); err != nil {
		c.sendError(msg.RoomID, err.Error())
		return
	}
	if isMember(r.State(), c.playerID) {
		return
	}
	if err := r.Submit(ctx, game.Join{PlayerID: c.playerID}); err != nil {
		c.sendError(msg.RoomID, err.Error())
	}
}

func (c *client) handleSnapshotRequest(msg codec.ClientMessage) {
	r, roomID := c.currentRoom()
	if r == nil {
		c.sendError(msg.RoomID, "not in a room")
		return
	}
	c.SendEvent(roomID, game.GameSnapshot{GameRoomID: roomID, State: r.State()})
}

func (c *client) handleCommand(ctx context.Context, msg codec.ClientMessage) {
	r, roomID := c.currentRoom()
	if r == nil {
		c.sendError(msg.RoomID, "not in a room")
		return
	}
	cmd, err := codec.CommandOf(c.playerID, msg)
	if err != nil {
		c.sendError(roomID, err.Error())
		return
	}
	if err := r.Submit(ctx, cmd); err != nil {
		c.sendError(roomID, err.Error())
		return
	}
	if msg.Type == codec.MsgLeave {
		c.setRoom(nil, "")
	}
}

// attach switches the session onto a room: registers with the new
// actor (which replies with a snapshot) and detaches from the old one.
func (c *client) attach(ctx context.Context, r *room.Room) error {
	previous, previousID := c.currentRoom()
	if previous == r {
		return nil
	}
	if err := r.Connect(ctx, c.playerID, c); err != nil {
		return err
	}
	c.setRoom(r, r.ID)
	if previous != nil {
		if err := previous.Disconnect(ctx, c.playerID, c); err != nil && err != room.ErrRoomClosed {
			c.log.WithError(err).WithField("room", previousID).Warn("detach failed")
		}
	}
	return nil
}

func (c *client) sendError(roomID, message string) {
	select {
	case c.send <- codec.EncodeServerError(roomID, message):
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isMember(state game.State, playerID string) bool {
	if state == nil {
		return false
	}
	for _, id := range state.PlayerIDs() {
		if id == playerID {
			return true
		}
	}
	return false
}
