package game

import (
	"bytes"
	"testing"

	"github.com/deftfitf/skulking-board-game/card"
)

// loggedRoom 按真实编排顺序运转: 校验, 逐条落盘, 应用, 级联排队
type loggedRoom struct {
	state State
	log   [][]byte
}

func (r *loggedRoom) submit(t *testing.T, cmd Command) *Rejection {
	t.Helper()
	ev, rejection, err := Validate(r.state, cmd)
	if err != nil {
		t.Fatalf("validate %s: %v", cmd.CommandType(), err)
	}
	if ev == nil {
		return rejection
	}

	queue := []Event{ev}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		if !head.PublishOnly() {
			data, err := EncodeEvent(head)
			if err != nil {
				t.Fatalf("encode %s: %v", head.EventType(), err)
			}
			r.log = append(r.log, data)
		}
		next, cascades, err := Apply(r.state, head)
		if err != nil {
			t.Fatalf("apply %s: %v", head.EventType(), err)
		}
		r.state = next
		queue = append(queue, cascades...)
	}
	return nil
}

// pickPlayable 从手牌里挑一张能出的牌, 老虎一律按逃跑宣言
func pickPlayable(s *TrickPhase, p *Player) card.Card {
	for _, c := range p.Cards {
		playable := c
		if playable.Kind == card.KindTigress {
			asEscape := false
			playable.AsPirates = &asEscape
		}
		if s.canPut(p, playable) {
			return playable
		}
	}
	// canPut 对非数字牌永远放行, 手牌非空时不可能走到这里
	panic("no playable card")
}

func runUntilFinished(t *testing.T, room *loggedRoom) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		switch s := room.state.(type) {
		case *FinishedPhase:
			return
		case *BiddingPhase:
			for _, playerID := range s.Players {
				if s.IDToPlayer[playerID].DeclaredBid == nil {
					room.submit(t, BidDeclare{PlayerID: playerID, Bid: 1})
					break
				}
			}
		case *TrickPhase:
			next := s.nextPlayer()
			room.submit(t, PlayCard{PlayerID: next.PlayerID, Card: pickPlayable(s, next)})
		case *NextTrickLeadPlayerChanging:
			room.submit(t, NextTrickLeadPlayerChange{
				PlayerID:        s.ChangingPlayerID,
				NewLeadPlayerID: s.ChangingPlayerID,
			})
		case *HandChangeWaiting:
			room.submit(t, PlayerHandChange{PlayerID: s.ChangingPlayerID, ReturnCardIDs: s.DrawCardIDs})
		case *FuturePredicateWaiting:
			room.submit(t, FuturePredicateFinish{PlayerID: s.PredicatingPlayerID})
		case *BidDeclareChangeWaiting:
			room.submit(t, BidDeclareChange{PlayerID: s.ChangingPlayerID, Bid: 0})
		default:
			t.Fatalf("unexpected state %T", room.state)
		}
	}
	t.Fatal("game did not finish")
}

// 落盘日志重放必须还原出与在线运行完全一致的状态
func TestReplay_RoundTrip(t *testing.T) {
	room := &loggedRoom{}
	room.submit(t, Init{
		GameRoomID:    "room-1",
		GameRule:      Rule{RoomSize: 3, NOfRounds: 4, DeckType: DeckExpansion},
		FirstDealerID: "a",
	})
	room.submit(t, Join{PlayerID: "a"})
	room.submit(t, Join{PlayerID: "b"})
	room.submit(t, Join{PlayerID: "c"})
	room.submit(t, GameStart{PlayerID: "a"})
	runUntilFinished(t, room)

	liveSnapshot, err := MarshalState(room.state)
	if err != nil {
		t.Fatalf("marshal live state: %v", err)
	}

	var replayed State
	for _, data := range room.log {
		ev, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("decode event: %v", err)
		}
		next, _, err := Apply(replayed, ev)
		if err != nil {
			t.Fatalf("replay %s: %v", ev.EventType(), err)
		}
		replayed = next
	}

	replayedSnapshot, err := MarshalState(replayed)
	if err != nil {
		t.Fatalf("marshal replayed state: %v", err)
	}
	if !bytes.Equal(liveSnapshot, replayedSnapshot) {
		t.Fatalf("replayed state diverged:\nlive:     %s\nreplayed: %s", liveSnapshot, replayedSnapshot)
	}
}

// 快照再编码也必须闭环
func TestReplay_SnapshotRoundTrip(t *testing.T) {
	room := &loggedRoom{}
	room.submit(t, Init{
		GameRoomID:    "room-2",
		GameRule:      Rule{RoomSize: 2, NOfRounds: 3, DeckType: DeckStandard},
		FirstDealerID: "a",
	})
	room.submit(t, Join{PlayerID: "a"})
	room.submit(t, Join{PlayerID: "b"})
	room.submit(t, GameStart{PlayerID: "a"})
	runUntilFinished(t, room)

	snapshot, err := MarshalState(room.state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := UnmarshalState(snapshot)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, err := MarshalState(restored)
	if err != nil {
		t.Fatalf("marshal restored: %v", err)
	}
	if !bytes.Equal(snapshot, again) {
		t.Fatalf("snapshot diverged after restore:\nfirst:  %s\nsecond: %s", snapshot, again)
	}
}
