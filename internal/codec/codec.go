package codec

import (
	"encoding/json"
	"fmt"

	"github.com/deftfitf/skulking-board-game/card"
	"github.com/deftfitf/skulking-board-game/game"
)

// Client request types carried in ClientMessage.Type.
const (
	MsgCreateRoom                = "create_room"
	MsgJoin                      = "join"
	MsgLeave                     = "leave"
	MsgGameStart                 = "game_start"
	MsgBidDeclare                = "bid_declare"
	MsgPlayCard                  = "play_card"
	MsgNextTrickLeadPlayerChange = "next_trick_lead_player_change"
	MsgPlayerHandChange          = "player_hand_change"
	MsgFuturePredicateFinish     = "future_predicate_finish"
	MsgBidDeclareChange          = "bid_declare_change"
	MsgReplayGame                = "replay_game"
	MsgEndGame                   = "end_game"
	MsgSnapshotRequest           = "snapshot_request"
)

// ClientMessage is the envelope every client frame arrives in. RoomID
// routes the frame, Payload depends on Type.
type ClientMessage struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the envelope every server frame leaves in.
type ServerMessage struct {
	RoomID    string          `json:"roomId"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type createRoomPayload struct {
	Rule game.Rule `json:"rule"`
}

type bidDeclarePayload struct {
	Bid int `json:"bid"`
}

type playCardPayload struct {
	CardID    string `json:"cardId"`
	AsPirates *bool  `json:"asPirates,omitempty"`
	BetScore  *int   `json:"betScore,omitempty"`
}

type leadPlayerChangePayload struct {
	NewLeadPlayerID string `json:"newLeadPlayerId"`
}

type handChangePayload struct {
	ReturnCardIDs []string `json:"returnCardIds"`
}

func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("malformed client frame: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("client frame without type")
	}
	return msg, nil
}

// DecodeCreateRoom extracts the requested rule from a create_room frame.
func DecodeCreateRoom(msg ClientMessage) (game.Rule, error) {
	if msg.Type != MsgCreateRoom {
		return game.Rule{}, fmt.Errorf("not a create_room frame: %s", msg.Type)
	}
	var payload createRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return game.Rule{}, fmt.Errorf("malformed create_room payload: %w", err)
	}
	return payload.Rule, nil
}

// CommandOf translates an in-room client frame into the engine command
// issued by playerID. create_room and snapshot_request frames are not
// commands and are routed by the gateway itself.
func CommandOf(playerID string, msg ClientMessage) (game.Command, error) {
	switch msg.Type {
	case MsgJoin:
		return game.Join{PlayerID: playerID}, nil
	case MsgLeave:
		return game.Leave{PlayerID: playerID}, nil
	case MsgGameStart:
		return game.GameStart{PlayerID: playerID}, nil
	case MsgBidDeclare:
		var payload bidDeclarePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("malformed bid_declare payload: %w", err)
		}
		return game.BidDeclare{PlayerID: playerID, Bid: payload.Bid}, nil
	case MsgPlayCard:
		var payload playCardPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("malformed play_card payload: %w", err)
		}
		played, err := card.FromID(payload.CardID)
		if err != nil {
			return nil, err
		}
		played.AsPirates = payload.AsPirates
		played.BetScore = payload.BetScore
		return game.PlayCard{PlayerID: playerID, Card: played}, nil
	case MsgNextTrickLeadPlayerChange:
		var payload leadPlayerChangePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("malformed next_trick_lead_player_change payload: %w", err)
		}
		return game.NextTrickLeadPlayerChange{
			PlayerID:        playerID,
			NewLeadPlayerID: payload.NewLeadPlayerID,
		}, nil
	case MsgPlayerHandChange:
		var payload handChangePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("malformed player_hand_change payload: %w", err)
		}
		return game.PlayerHandChange{PlayerID: playerID, ReturnCardIDs: payload.ReturnCardIDs}, nil
	case MsgFuturePredicateFinish:
		return game.FuturePredicateFinish{PlayerID: playerID}, nil
	case MsgBidDeclareChange:
		var payload bidDeclarePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("malformed bid_declare_change payload: %w", err)
		}
		return game.BidDeclareChange{PlayerID: playerID, Bid: payload.Bid}, nil
	case MsgReplayGame:
		return game.ReplayGame{PlayerID: playerID}, nil
	case MsgEndGame:
		return game.EndGame{PlayerID: playerID}, nil
	}
	return nil, fmt.Errorf("unknown client frame type: %s", msg.Type)
}

type errorPayload struct {
	Message string `json:"message"`
}

// EncodeServerError wraps a transport-level failure, one the engine
// never saw, into an error frame.
func EncodeServerError(roomID, message string) []byte {
	payload, _ := json.Marshal(errorPayload{Message: message})
	raw, _ := json.Marshal(ServerMessage{
		RoomID:    roomID,
		EventType: "error",
		Payload:   payload,
	})
	return raw
}

type snapshotPayload struct {
	GameRoomID string          `json:"gameRoomId"`
	State      json.RawMessage `json:"state"`
}

// EncodeServerEvent wraps an outgoing event into its wire envelope. The
// snapshot event carries the full state and is expanded inline, every
// other event marshals as-is.
func EncodeServerEvent(roomID string, ev game.Event) ([]byte, error) {
	var payload []byte
	var err error
	switch e := ev.(type) {
	case game.Stored:
		return nil, fmt.Errorf("event %s is not publishable", ev.EventType())
	case game.GameSnapshot:
		var state json.RawMessage
		if e.State != nil {
			state, err = game.MarshalState(e.State)
			if err != nil {
				return nil, err
			}
		}
		payload, err = json.Marshal(snapshotPayload{GameRoomID: e.GameRoomID, State: state})
	default:
		payload, err = json.Marshal(ev)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{
		RoomID:    roomID,
		EventType: ev.EventType(),
		Payload:   payload,
	})
}
