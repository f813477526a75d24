package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/deftfitf/skulking-board-game/internal/codec"
	"github.com/deftfitf/skulking-board-game/internal/journal"
	"github.com/deftfitf/skulking-board-game/internal/lobby"
	"github.com/deftfitf/skulking-board-game/internal/roomlist"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lby := lobby.New(journal.NewMemoryStore(), roomlist.NewMemoryService(), testLogger())
	t.Cleanup(lby.Close)

	g := New(lby, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.HandleWebSocket)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?playerId=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// awaitFrame reads frames until one of the wanted event type arrives.
func awaitFrame(t *testing.T, conn *websocket.Conn, eventType string) codec.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)
		var msg codec.ServerMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.EventType == eventType {
			return msg
		}
	}
}

func TestGateway_CreateJoinAndStartOverWebSocket(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	sendFrame(t, alice, `{"type":"create_room","payload":{"rule":{"roomSize":4,"nOfRounds":3,"deckType":"STANDARD"}}}`)
	awaitFrame(t, alice, "connection_established")
	snapshot := awaitFrame(t, alice, "game_snapshot")
	roomID := snapshot.RoomID
	require.NotEmpty(t, roomID)
	awaitFrame(t, alice, "a_player_joined")

	bob := dial(t, srv, "bob")
	sendFrame(t, bob, `{"type":"join","roomId":"`+roomID+`"}`)
	awaitFrame(t, bob, "game_snapshot")

	joined := awaitFrame(t, alice, "a_player_joined")
	var joinedPayload struct {
		PlayerID string `json:"playerId"`
	}
	require.NoError(t, json.Unmarshal(joined.Payload, &joinedPayload))
	require.Equal(t, "bob", joinedPayload.PlayerID)

	// only the dealer can start
	sendFrame(t, bob, `{"type":"game_start"}`)
	exception := awaitFrame(t, bob, "game_exception")
	require.Contains(t, string(exception.Payload), "FAILED_START_GAME_NOT_DEALER")

	sendFrame(t, alice, `{"type":"game_start"}`)
	for _, conn := range []*websocket.Conn{alice, bob} {
		started := awaitFrame(t, conn, "round_started")
		var payload struct {
			Round   int `json:"round"`
			Players []struct {
				PlayerID string   `json:"playerId"`
				CardIDs  []string `json:"cardIds"`
			} `json:"players"`
			DeckCardIDs []string `json:"deckCardIds"`
		}
		require.NoError(t, json.Unmarshal(started.Payload, &payload))
		require.Equal(t, 1, payload.Round)
		require.Len(t, payload.Players, 1)
		require.Empty(t, payload.DeckCardIDs)

		awaitFrame(t, conn, "bidding_started")
	}
}

func TestGateway_SnapshotRequestAndReconnect(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	sendFrame(t, alice, `{"type":"create_room","payload":{"rule":{"roomSize":4,"nOfRounds":3,"deckType":"STANDARD"}}}`)
	snapshot := awaitFrame(t, alice, "game_snapshot")
	roomID := snapshot.RoomID
	awaitFrame(t, alice, "a_player_joined")

	sendFrame(t, alice, `{"type":"snapshot_request"}`)
	refreshed := awaitFrame(t, alice, "game_snapshot")
	require.Equal(t, roomID, refreshed.RoomID)

	// a reconnecting member gets the snapshot without rejoining
	alice.Close()
	again := dial(t, srv, "alice")
	sendFrame(t, again, `{"type":"join","roomId":"`+roomID+`"}`)
	resumed := awaitFrame(t, again, "game_snapshot")
	require.Equal(t, roomID, resumed.RoomID)

	var payload struct {
		State json.RawMessage `json:"state"`
	}
	require.NoError(t, json.Unmarshal(resumed.Payload, &payload))
	require.Contains(t, string(payload.State), "alice")
}

func TestGateway_CommandsOutsideRoomFail(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	sendFrame(t, alice, `{"type":"game_start"}`)
	errFrame := awaitFrame(t, alice, "error")
	require.Contains(t, string(errFrame.Payload), "not in a room")

	sendFrame(t, alice, `{"type":"join","roomId":"missing"}`)
	errFrame = awaitFrame(t, alice, "error")
	require.Contains(t, string(errFrame.Payload), "room not found")
}
