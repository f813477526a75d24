package game

import (
	"testing"

	"github.com/deftfitf/skulking-board-game/card"
)

// drive 按先进先出把事件与级联全部应用完, 返回最终状态与应用过的事件序列
func drive(t *testing.T, state State, ev Event) (State, []Event) {
	t.Helper()
	applied := []Event{}
	queue := []Event{ev}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		next, cascades, err := Apply(state, head)
		if err != nil {
			t.Fatalf("apply %s: %v", head.EventType(), err)
		}
		state = next
		applied = append(applied, head)
		queue = append(queue, cascades...)
	}
	return state, applied
}

func startPhaseOf(rule Rule, dealerID string, playerIDs ...string) *StartPhase {
	s := NewStartPhase(rule, dealerID)
	s.Players = append(s.Players, playerIDs...)
	return s
}

func dealtTo(playerID string, cardIDs ...string) DealtPlayer {
	return DealtPlayer{PlayerID: playerID, CardIDs: cardIDs}
}

func declareBids(t *testing.T, state State, bids ...APlayerBidDeclared) State {
	t.Helper()
	for _, bid := range bids {
		state, _ = drive(t, state, bid)
	}
	return state
}

func playCard(t *testing.T, state State, playerID, cardID string) (State, []Event) {
	t.Helper()
	c, err := card.FromID(cardID)
	if err != nil {
		t.Fatalf("card %s: %v", cardID, err)
	}
	return drive(t, state, APlayerTrickPlayed{PlayerID: playerID, PlayedCard: c})
}

func hasEventType(events []Event, eventType string) bool {
	for _, ev := range events {
		if ev.EventType() == eventType {
			return true
		}
	}
	return false
}

func TestApply_NumberTrickAndRoundScore(t *testing.T) {
	// 第 1 轮 3 人: 黑牌吃掉绿色, C 得墩
	rule := Rule{RoomSize: 3, NOfRounds: 1, DeckType: DeckStandard}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b", "c"), RoundStarted{
		Round: 1,
		Players: []DealtPlayer{
			dealtTo("a", "number:GREEN:5"),
			dealtTo("b", "number:GREEN:9"),
			dealtTo("c", "number:BLACK:2"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 1},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 0},
		APlayerBidDeclared{PlayerID: "c", BidDeclared: 0},
	)
	if _, ok := state.(*TrickPhase); !ok {
		t.Fatalf("expected trick phase after all bids, got %T", state)
	}

	state, _ = playCard(t, state, "a", "number:GREEN:5")
	state, _ = playCard(t, state, "b", "number:GREEN:9")
	state, applied := playCard(t, state, "c", "number:BLACK:2")

	if !hasEventType(applied, "a_player_won") {
		t.Fatal("expected a_player_won after trick completes")
	}
	finished, ok := state.(*FinishedPhase)
	if !ok {
		t.Fatalf("expected finished phase after last round, got %T", state)
	}
	if finished.LastWinnerID != "c" {
		t.Fatalf("expected c to take the trick, got %s", finished.LastWinnerID)
	}

	aggregates := finished.ScoreBoard.Aggregate()
	if aggregates["a"] != -10 {
		t.Fatalf("a missed bid 1: expected -10, got %d", aggregates["a"])
	}
	if aggregates["b"] != 10 {
		t.Fatalf("b kept bid 0: expected 10, got %d", aggregates["b"])
	}
	if aggregates["c"] != -10 {
		t.Fatalf("c broke bid 0: expected -10, got %d", aggregates["c"])
	}
	if finished.GameWinnerID() != "b" {
		t.Fatalf("expected b to win the game, got %s", finished.GameWinnerID())
	}
}

func TestApply_MustFollowClearedBetweenTricks(t *testing.T) {
	// 第一墩定下跟色, 结算后必须清除
	rule := Rule{RoomSize: 2, NOfRounds: 2, DeckType: DeckStandard}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 2,
		Players: []DealtPlayer{
			dealtTo("a", "number:GREEN:9", "number:YELLOW:3"),
			dealtTo("b", "number:GREEN:2", "number:PURPLE:8"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 2},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 0},
	)

	state, _ = playCard(t, state, "a", "number:GREEN:9")
	trick := state.(*TrickPhase)
	if trick.MustFollow == nil || *trick.MustFollow != card.Green {
		t.Fatal("expected green must-follow after lead")
	}
	state, _ = playCard(t, state, "b", "number:GREEN:2")

	trick = state.(*TrickPhase)
	if trick.MustFollow != nil {
		t.Fatal("expected must-follow cleared after trick settled")
	}
	if trick.DealerID != "a" {
		t.Fatalf("expected winner a to lead next trick, got %s", trick.DealerID)
	}
}

func TestApply_KrakenNobodyScores(t *testing.T) {
	rule := Rule{RoomSize: 3, NOfRounds: 1, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b", "c"), RoundStarted{
		Round: 1,
		Players: []DealtPlayer{
			dealtTo("a", "kraken"),
			dealtTo("b", "number:GREEN:3"),
			dealtTo("c", "escape:0"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 0},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 0},
		APlayerBidDeclared{PlayerID: "c", BidDeclared: 0},
	)

	state, _ = playCard(t, state, "a", "kraken")
	state, _ = playCard(t, state, "b", "number:GREEN:3")
	state, applied := playCard(t, state, "c", "escape:0")

	if !hasEventType(applied, "kraken_appeared") {
		t.Fatal("expected kraken_appeared")
	}
	finished := state.(*FinishedPhase)
	// 海怪吞墩: 再判定的胜者 b 只拿先手, 不记墩
	if finished.LastWinnerID != "b" {
		t.Fatalf("expected b as must-have-won, got %s", finished.LastWinnerID)
	}
	aggregates := finished.ScoreBoard.Aggregate()
	if aggregates["b"] != 10 {
		t.Fatalf("b bid 0 and must keep 0 tricks: expected 10, got %d", aggregates["b"])
	}
}

func TestApply_HarryBidChange(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 2, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 2,
		Players: []DealtPlayer{
			dealtTo("a", "harryTheGiant", "number:GREEN:2"),
			dealtTo("b", "number:GREEN:3", "escape:0"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 1},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 1},
	)

	state, _ = playCard(t, state, "a", "harryTheGiant")
	state, applied := playCard(t, state, "b", "escape:0")
	if !hasEventType(applied, "declare_bid_change_available") {
		t.Fatal("expected bid change offer after harry won a non-last trick")
	}
	waiting, ok := state.(*BidDeclareChangeWaiting)
	if !ok {
		t.Fatalf("expected bid change waiting, got %T", state)
	}
	if waiting.ChangingPlayerID != "a" {
		t.Fatalf("expected winner a to hold the offer, got %s", waiting.ChangingPlayerID)
	}

	state, _ = drive(t, state, BidDeclareChanged{ChangedPlayerID: "a", ChangedBid: 1})
	trick := state.(*TrickPhase)
	if got := *trick.playerOf("a").DeclaredBid; got != 2 {
		t.Fatalf("expected bid raised to 2, got %d", got)
	}
	if trick.playerOf("a").TookTrick != 1 {
		t.Fatal("expected harry trick credited after resume")
	}

	// 末墩: a 跟出绿 2, b 绿 3 吃掉, 双方各 1 墩
	state, _ = playCard(t, state, "a", "number:GREEN:2")
	state, _ = playCard(t, state, "b", "number:GREEN:3")
	finished := state.(*FinishedPhase)
	aggregates := finished.ScoreBoard.Aggregate()
	if aggregates["a"] != -10 {
		t.Fatalf("a raised to 2 but took 1: expected -10, got %d", aggregates["a"])
	}
	if aggregates["b"] != 20 {
		t.Fatalf("b kept bid 1: expected 20, got %d", aggregates["b"])
	}
}

func TestApply_BahijHandChange(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 2, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 2,
		Players: []DealtPlayer{
			dealtTo("a", "bahijTheBandit", "number:YELLOW:5"),
			dealtTo("b", "escape:0", "number:YELLOW:4"),
		},
		DeckCardIDs: []string{"number:GREEN:1", "number:GREEN:2", "number:GREEN:3"},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 2},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 0},
	)

	state, _ = playCard(t, state, "a", "bahijTheBandit")
	state, applied := playCard(t, state, "b", "escape:0")
	if !hasEventType(applied, "hand_change_available_notice") {
		t.Fatal("expected hand change offer")
	}
	waiting, ok := state.(*HandChangeWaiting)
	if !ok {
		t.Fatalf("expected hand change waiting, got %T", state)
	}
	if len(waiting.DrawCardIDs) != 2 || waiting.DrawCardIDs[0] != "number:GREEN:1" {
		t.Fatalf("expected the top two deck cards drawn, got %v", waiting.DrawCardIDs)
	}
	winner := waiting.TrickPhase.playerOf("a")
	if len(winner.Cards) != 3 {
		t.Fatalf("expected 3 cards in hand after draw, got %d", len(winner.Cards))
	}

	state, _ = drive(t, state, PlayerHandChanged{
		PlayerID:      "a",
		ReturnCardIDs: []string{"number:GREEN:1", "number:YELLOW:5"},
	})
	trick := state.(*TrickPhase)
	if len(trick.playerOf("a").Cards) != 1 {
		t.Fatalf("expected 1 card after returning two, got %d", len(trick.playerOf("a").Cards))
	}
	if !trick.playerOf("a").HasCard("number:GREEN:2") {
		t.Fatal("expected the kept drawn card in hand")
	}
}

func TestApply_RoiseLeadChange(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 2, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 2,
		Players: []DealtPlayer{
			dealtTo("a", "roiseDLaney", "number:GREEN:2"),
			dealtTo("b", "number:GREEN:3", "number:GREEN:4"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 1},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 1},
	)

	state, _ = playCard(t, state, "a", "roiseDLaney")
	state, _ = playCard(t, state, "b", "number:GREEN:3")
	if _, ok := state.(*NextTrickLeadPlayerChanging); !ok {
		t.Fatalf("expected lead change waiting, got %T", state)
	}

	// 胜者 a 把下一墩先手让给 b
	state, _ = drive(t, state, NextTrickLeadPlayerChanged{PlayerID: "a", NewLeadPlayerID: "b"})
	trick := state.(*TrickPhase)
	if trick.DealerID != "b" {
		t.Fatalf("expected b to lead next trick, got %s", trick.DealerID)
	}
	if trick.playerOf("a").TookTrick != 1 {
		t.Fatal("expected a credited for the won trick")
	}

	state, _ = playCard(t, state, "b", "number:GREEN:4")
	state, _ = playCard(t, state, "a", "number:GREEN:2")
	finished := state.(*FinishedPhase)
	if finished.LastWinnerID != "b" {
		t.Fatalf("expected b to take the last trick, got %s", finished.LastWinnerID)
	}
}

func TestApply_JuanitaFuturePredicate(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 2, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 2,
		Players: []DealtPlayer{
			dealtTo("a", "juanitaJade", "number:GREEN:2"),
			dealtTo("b", "escape:0", "number:GREEN:3"),
		},
		DeckCardIDs: []string{"number:PURPLE:7"},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 1},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 1},
	)

	state, _ = playCard(t, state, "a", "juanitaJade")
	state, applied := playCard(t, state, "b", "escape:0")
	if !hasEventType(applied, "future_predicate_available") {
		t.Fatal("expected future predicate offer")
	}
	if _, ok := state.(*FuturePredicateWaiting); !ok {
		t.Fatalf("expected future predicate waiting, got %T", state)
	}

	state, _ = drive(t, state, FuturePredicated{PlayerID: "a"})
	if _, ok := state.(*TrickPhase); !ok {
		t.Fatalf("expected trick phase after predicate finished, got %T", state)
	}
}

func TestApply_RascalBonusOnLastTrick(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 1, DeckType: DeckExpansion}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 1,
		Players: []DealtPlayer{
			dealtTo("a", "rascalOfRoatan"),
			dealtTo("b", "number:GREEN:3"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 1},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 0},
	)

	bet := 10
	trick := state.(*TrickPhase)
	rascal := trick.playerOf("a").Cards["rascalOfRoatan"]
	rascal.BetScore = &bet
	state, _ = drive(t, state, APlayerTrickPlayed{PlayerID: "a", PlayedCard: rascal})
	state, applied := playCard(t, state, "b", "number:GREEN:3")

	// 赌分只通知, 不并入计分
	if !hasEventType(applied, "got_bonus_score") {
		t.Fatal("expected got_bonus_score notice")
	}
	finished := state.(*FinishedPhase)
	if got := finished.ScoreBoard.Aggregate()["a"]; got != 20 {
		t.Fatalf("a bid 1 took 1: expected 20, got %d", got)
	}
}

func TestApply_GameReplayRestartsFromLastWinner(t *testing.T) {
	rule := Rule{RoomSize: 2, NOfRounds: 1, DeckType: DeckStandard}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b"), RoundStarted{
		Round: 1,
		Players: []DealtPlayer{
			dealtTo("a", "number:GREEN:2"),
			dealtTo("b", "number:GREEN:9"),
		},
	})
	state = declareBids(t, state,
		APlayerBidDeclared{PlayerID: "a", BidDeclared: 0},
		APlayerBidDeclared{PlayerID: "b", BidDeclared: 1},
	)
	state, _ = playCard(t, state, "a", "number:GREEN:2")
	state, _ = playCard(t, state, "b", "number:GREEN:9")

	finished := state.(*FinishedPhase)
	if finished.LastWinnerID != "b" {
		t.Fatalf("expected b as last trick winner, got %s", finished.LastWinnerID)
	}

	state, _ = drive(t, state, GameReplayed{GameWinnerID: finished.GameWinnerID()})
	bidding, ok := state.(*BiddingPhase)
	if !ok {
		t.Fatalf("expected bidding phase after replay, got %T", state)
	}
	if bidding.DealerID != "b" {
		t.Fatalf("expected last winner b as new dealer, got %s", bidding.DealerID)
	}
	if bidding.Round != 1 {
		t.Fatalf("expected replay to restart at round 1, got %d", bidding.Round)
	}
	if len(bidding.ScoreBoard.RoundScores) != 0 {
		t.Fatal("expected a fresh score board after replay")
	}
}

func TestApply_DealerLeaveOnStartPhase(t *testing.T) {
	rule := Rule{RoomSize: 3, NOfRounds: 10, DeckType: DeckStandard}
	state, _ := drive(t, startPhaseOf(rule, "a", "a", "b", "c"), RoomDealerChanged{
		LeftPlayerID: "a",
		OldDealerID:  "a",
		NewDealerID:  "b",
	})
	start := state.(*StartPhase)
	if start.DealerID != "b" {
		t.Fatalf("expected b as new dealer, got %s", start.DealerID)
	}
	if len(start.Players) != 2 || start.hasPlayer("a") {
		t.Fatalf("expected a removed, got %v", start.Players)
	}
}
