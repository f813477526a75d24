package game

import (
	"encoding/json"
	"fmt"
)

// 落盘格式: {"type": "...", "payload": {...}}。
// 事件与状态都用类型标签封包, 回放与快照恢复按标签还原具体类型。

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent 事件编码为落盘 JSON
func EncodeEvent(ev Event) ([]byte, error) {
	switch ev.(type) {
	case GameSnapshot, Stored:
		return nil, fmt.Errorf("event %s is not persistable", ev.EventType())
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: ev.EventType(), Payload: payload})
}

var eventDecoders = map[string]func(json.RawMessage) (Event, error){
	"initialized":                    decodeAs[Initialized],
	"a_player_joined":                decodeAs[APlayerJoined],
	"a_player_left":                  decodeAs[APlayerLeft],
	"room_dealer_changed":            decodeAs[RoomDealerChanged],
	"game_started":                   decodeAs[GameStarted],
	"a_player_bid_declared":          decodeAs[APlayerBidDeclared],
	"round_started":                  decodeAs[RoundStarted],
	"a_player_trick_played":          decodeAs[APlayerTrickPlayed],
	"a_player_won":                   decodeAs[APlayerWon],
	"all_ran_away":                   decodeAs[AllRanAway],
	"kraken_appeared":                decodeAs[KrakenAppeared],
	"round_finished":                 decodeAs[RoundFinished],
	"next_trick_lead_player_changed": decodeAs[NextTrickLeadPlayerChanged],
	"player_hand_changed":            decodeAs[PlayerHandChanged],
	"future_predicated":              decodeAs[FuturePredicated],
	"bid_declare_changed":            decodeAs[BidDeclareChanged],
	"game_finished":                  decodeAs[GameFinished],
	"game_replayed":                  decodeAs[GameReplayed],
	"game_ended":                     decodeAs[GameEnded],
}

func decodeAs[E Event](payload json.RawMessage) (Event, error) {
	var ev E
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeEvent 落盘 JSON 还原为事件
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	decode, ok := eventDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
	return decode(env.Payload)
}

const (
	stateTagStart           = "start_phase"
	stateTagBidding         = "bidding_phase"
	stateTagTrick           = "trick_phase"
	stateTagLeadChanging    = "next_trick_lead_player_changing"
	stateTagHandChange      = "hand_change_waiting"
	stateTagFuturePredicate = "future_predicate_waiting"
	stateTagBidChange       = "bid_declare_change_waiting"
	stateTagFinished        = "finished_phase"
)

func stateTag(state State) (string, error) {
	switch state.(type) {
	case *StartPhase:
		return stateTagStart, nil
	case *BiddingPhase:
		return stateTagBidding, nil
	case *TrickPhase:
		return stateTagTrick, nil
	case *NextTrickLeadPlayerChanging:
		return stateTagLeadChanging, nil
	case *HandChangeWaiting:
		return stateTagHandChange, nil
	case *FuturePredicateWaiting:
		return stateTagFuturePredicate, nil
	case *BidDeclareChangeWaiting:
		return stateTagBidChange, nil
	case *FinishedPhase:
		return stateTagFinished, nil
	}
	return "", fmt.Errorf("unknown state type %T", state)
}

// MarshalState 状态编码为快照 JSON
func MarshalState(state State) ([]byte, error) {
	tag, err := stateTag(state)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: tag, Payload: payload})
}

var stateDecoders = map[string]func(json.RawMessage) (State, error){
	stateTagStart:           decodeStateAs[StartPhase],
	stateTagBidding:         decodeStateAs[BiddingPhase],
	stateTagTrick:           decodeStateAs[TrickPhase],
	stateTagLeadChanging:    decodeStateAs[NextTrickLeadPlayerChanging],
	stateTagHandChange:      decodeStateAs[HandChangeWaiting],
	stateTagFuturePredicate: decodeStateAs[FuturePredicateWaiting],
	stateTagBidChange:       decodeStateAs[BidDeclareChangeWaiting],
	stateTagFinished:        decodeStateAs[FinishedPhase],
}

func decodeStateAs[S any, PS interface {
	*S
	State
}](payload json.RawMessage) (State, error) {
	state := PS(new(S))
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, err
	}
	return state, nil
}

// UnmarshalState 快照 JSON 还原为状态
func UnmarshalState(data []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	decode, ok := stateDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown state type: %s", env.Type)
	}
	return decode(env.Payload)
}
