package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deftfitf/skulking-board-game/card"
	"github.com/deftfitf/skulking-board-game/game"
)

func decodeFrame(t *testing.T, raw string) ClientMessage {
	t.Helper()
	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)
	return msg
}

func TestDecodeClientMessage_RejectsMalformedFrames(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{`))
	require.Error(t, err)

	_, err = DecodeClientMessage([]byte(`{"roomId":"room-1"}`))
	require.Error(t, err)
}

func TestDecodeCreateRoom(t *testing.T) {
	msg := decodeFrame(t, `{"type":"create_room","payload":{"rule":{"roomSize":4,"nOfRounds":10,"deckType":"EXPANSION"}}}`)
	rule, err := DecodeCreateRoom(msg)
	require.NoError(t, err)
	require.Equal(t, game.Rule{RoomSize: 4, NOfRounds: 10, DeckType: game.DeckExpansion}, rule)

	_, err = DecodeCreateRoom(decodeFrame(t, `{"type":"join","roomId":"room-1"}`))
	require.Error(t, err)
}

func TestCommandOf_SimpleCommands(t *testing.T) {
	cases := map[string]game.Command{
		`{"type":"join","roomId":"r"}`:                    game.Join{PlayerID: "a"},
		`{"type":"leave","roomId":"r"}`:                   game.Leave{PlayerID: "a"},
		`{"type":"game_start","roomId":"r"}`:              game.GameStart{PlayerID: "a"},
		`{"type":"future_predicate_finish","roomId":"r"}`: game.FuturePredicateFinish{PlayerID: "a"},
		`{"type":"replay_game","roomId":"r"}`:             game.ReplayGame{PlayerID: "a"},
		`{"type":"end_game","roomId":"r"}`:                game.EndGame{PlayerID: "a"},
	}
	for raw, want := range cases {
		cmd, err := CommandOf("a", decodeFrame(t, raw))
		require.NoError(t, err, raw)
		require.Equal(t, want, cmd, raw)
	}
}

func TestCommandOf_PlayCardCarriesDeclarations(t *testing.T) {
	cmd, err := CommandOf("a", decodeFrame(t,
		`{"type":"play_card","roomId":"r","payload":{"cardId":"tigress","asPirates":true}}`))
	require.NoError(t, err)
	play := cmd.(game.PlayCard)
	require.Equal(t, card.KindTigress, play.Card.Kind)
	require.NotNil(t, play.Card.AsPirates)
	require.True(t, *play.Card.AsPirates)

	cmd, err = CommandOf("a", decodeFrame(t,
		`{"type":"play_card","roomId":"r","payload":{"cardId":"number:GREEN:7"}}`))
	require.NoError(t, err)
	play = cmd.(game.PlayCard)
	require.Equal(t, card.KindNumber, play.Card.Kind)
	require.Nil(t, play.Card.AsPirates)

	_, err = CommandOf("a", decodeFrame(t,
		`{"type":"play_card","roomId":"r","payload":{"cardId":"number:BROWN:7"}}`))
	require.Error(t, err)
}

func TestCommandOf_WaitingPhaseCommands(t *testing.T) {
	cmd, err := CommandOf("a", decodeFrame(t,
		`{"type":"bid_declare","roomId":"r","payload":{"bid":3}}`))
	require.NoError(t, err)
	require.Equal(t, game.BidDeclare{PlayerID: "a", Bid: 3}, cmd)

	cmd, err = CommandOf("a", decodeFrame(t,
		`{"type":"bid_declare_change","roomId":"r","payload":{"bid":-1}}`))
	require.NoError(t, err)
	require.Equal(t, game.BidDeclareChange{PlayerID: "a", Bid: -1}, cmd)

	cmd, err = CommandOf("a", decodeFrame(t,
		`{"type":"next_trick_lead_player_change","roomId":"r","payload":{"newLeadPlayerId":"b"}}`))
	require.NoError(t, err)
	require.Equal(t, game.NextTrickLeadPlayerChange{PlayerID: "a", NewLeadPlayerID: "b"}, cmd)

	cmd, err = CommandOf("a", decodeFrame(t,
		`{"type":"player_hand_change","roomId":"r","payload":{"returnCardIds":["escape:0","number:GREEN:2"]}}`))
	require.NoError(t, err)
	require.Equal(t, game.PlayerHandChange{PlayerID: "a", ReturnCardIDs: []string{"escape:0", "number:GREEN:2"}}, cmd)

	_, err = CommandOf("a", decodeFrame(t, `{"type":"unheard_of","roomId":"r"}`))
	require.Error(t, err)
}

func TestEncodeServerEvent_WrapsEnvelope(t *testing.T) {
	raw, err := EncodeServerEvent("room-1", game.APlayerJoined{PlayerID: "a"})
	require.NoError(t, err)

	var msg ServerMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, "room-1", msg.RoomID)
	require.Equal(t, "a_player_joined", msg.EventType)
	require.JSONEq(t, `{"playerId":"a"}`, string(msg.Payload))
}

func TestEncodeServerEvent_SnapshotCarriesState(t *testing.T) {
	state := game.NewStartPhase(game.Rule{RoomSize: 4, NOfRounds: 10, DeckType: game.DeckStandard}, "a")
	raw, err := EncodeServerEvent("room-1", game.GameSnapshot{GameRoomID: "room-1", State: state})
	require.NoError(t, err)

	var msg ServerMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, "game_snapshot", msg.EventType)

	var payload struct {
		GameRoomID string          `json:"gameRoomId"`
		State      json.RawMessage `json:"state"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Equal(t, "room-1", payload.GameRoomID)

	restored, err := game.UnmarshalState(payload.State)
	require.NoError(t, err)
	require.Equal(t, game.StateNameStart, restored.StateName())
}
