package game

import (
	"github.com/deftfitf/skulking-board-game/card"
)

// Apply 把一条已落盘事件作用到状态上, 返回新状态与级联事件。
// 级联事件由编排层逐条落盘后再依次 Apply; 回放时级联返回值被丢弃,
// 因为它们本来就排在日志后面。洗牌等随机性只存在于级联事件的构造里,
// 事件一经落盘, Apply 本身完全确定。
func Apply(state State, ev Event) (State, []Event, error) {
	if stored, ok := ev.(Stored); ok {
		return stored.State, nil, nil
	}
	if ev.PublishOnly() {
		return state, nil, nil
	}

	if state == nil {
		if init, ok := ev.(Initialized); ok {
			return NewStartPhase(init.GameRule, init.FirstDealerID), nil, nil
		}
		return nil, nil, invalidStatef("event %s on uninitialized room", ev.EventType())
	}

	switch s := state.(type) {
	case *StartPhase:
		return applyOnStartPhase(s, ev)
	case *BiddingPhase:
		return applyOnBiddingPhase(s, ev)
	case *TrickPhase:
		return applyOnTrickPhase(s, ev)
	case *NextTrickLeadPlayerChanging:
		return applyOnLeadChanging(s, ev)
	case *HandChangeWaiting:
		return applyOnHandChange(s, ev)
	case *FuturePredicateWaiting:
		return applyOnFuturePredicate(s, ev)
	case *BidDeclareChangeWaiting:
		return applyOnBidChange(s, ev)
	case *FinishedPhase:
		return applyOnFinishedPhase(s, ev)
	}
	return nil, nil, invalidStatef("event %s on unknown state", ev.EventType())
}

func applyOnStartPhase(s *StartPhase, ev Event) (State, []Event, error) {
	switch e := ev.(type) {
	case APlayerJoined:
		s.Players = append(s.Players, e.PlayerID)
		return s, nil, nil

	case APlayerLeft:
		s.Players = removePlayer(s.Players, e.PlayerID)
		return s, nil, nil

	case RoomDealerChanged:
		s.Players = removePlayer(s.Players, e.LeftPlayerID)
		s.DealerID = e.NewDealerID
		return s, nil, nil

	case GameStarted:
		roundStarted, err := dealRound(s.Rule, 1, e.PlayerIDs)
		if err != nil {
			return nil, nil, err
		}
		return s, []Event{roundStarted, BiddingStarted{Round: 1, DealerID: s.DealerID}}, nil

	case RoundStarted:
		bidding, err := buildBiddingPhase(s.DealerID, s.Rule, s.DealerID, NewScoreBoard(), e)
		if err != nil {
			return nil, nil, err
		}
		return bidding, nil, nil
	}
	return s, nil, invalidStatef("event %s not applicable on start phase", ev.EventType())
}

func applyOnBiddingPhase(s *BiddingPhase, ev Event) (State, []Event, error) {
	e, ok := ev.(APlayerBidDeclared)
	if !ok {
		return s, nil, invalidStatef("event %s not applicable on bidding phase", ev.EventType())
	}

	bid := e.BidDeclared
	s.IDToPlayer[e.PlayerID].DeclaredBid = &bid
	if !s.allBidsDeclared() {
		return s, nil, nil
	}

	trickPhase, err := s.startTrick()
	if err != nil {
		return nil, nil, err
	}
	rotationIDs := make([]string, 0, len(trickPhase.Rotation))
	for _, p := range trickPhase.Rotation {
		rotationIDs = append(rotationIDs, p.PlayerID)
	}
	return trickPhase, []Event{TrickStarted{
		Deck:      len(trickPhase.Deck),
		Trick:     trickPhase.Trick,
		PlayerIDs: rotationIDs,
	}}, nil
}

func applyOnTrickPhase(s *TrickPhase, ev Event) (State, []Event, error) {
	switch e := ev.(type) {
	case APlayerTrickPlayed:
		s.play(e.PlayerID, e.PlayedCard)
		if !s.isFinishedTrick() {
			return s, nil, nil
		}

		switch result := card.Resolve(s.Field).(type) {
		case card.Won:
			effect, err := pirateEffect(s, result)
			if err != nil {
				return nil, nil, err
			}
			return s, []Event{APlayerWon{
				WinnerID:   result.WinnerID,
				Card:       result.Card,
				TrickBonus: result.TrickBonus,
				Effect:     effect,
			}}, nil
		case card.AllRanAway:
			return s, []Event{AllRanAway{WinnerID: result.WinnerID, Card: result.Card}}, nil
		case card.KrakenAppeared:
			return s, []Event{KrakenAppeared{MustHaveWon: result.MustHaveWon}}, nil
		}
		return nil, nil, invalidStatef("trick resolution produced no result")

	case APlayerWon:
		if e.Effect != nil {
			switch e.Effect.Kind {
			case EffectLeadChange:
				saved := e
				return &NextTrickLeadPlayerChanging{
						TrickPhase:       s,
						ChangingPlayerID: e.Effect.PlayerID,
						PendingWon:       &saved,
					}, []Event{NextTrickLeadPlayerChangeableNotice{PlayerID: e.Effect.PlayerID}},
					nil

			case EffectHandChange:
				winner := s.playerOf(e.Effect.PlayerID)
				if winner == nil {
					return nil, nil, invalidStatef("hand change winner not found: %s", e.Effect.PlayerID)
				}
				for _, cardID := range e.Effect.DrawCardIDs {
					if len(s.Deck) == 0 || s.Deck[0].ID != cardID {
						return nil, nil, invalidStatef("deck out of sync on draw, expected %s", cardID)
					}
					winner.Cards[cardID] = s.Deck[0]
					s.Deck = s.Deck[1:]
				}
				saved := e
				return &HandChangeWaiting{
						TrickPhase:       s,
						ChangingPlayerID: e.Effect.PlayerID,
						DrawCardIDs:      e.Effect.DrawCardIDs,
						PendingWon:       &saved,
					}, []Event{HandChangeAvailableNotice{
						PlayerID:    e.Effect.PlayerID,
						DrawCardIDs: e.Effect.DrawCardIDs,
					}}, nil

			case EffectFuturePredicate:
				deckCardIDs := make([]string, 0, len(s.Deck))
				for _, c := range s.Deck {
					deckCardIDs = append(deckCardIDs, c.ID)
				}
				saved := e
				return &FuturePredicateWaiting{
						TrickPhase:          s,
						PredicatingPlayerID: e.Effect.PlayerID,
						PendingWon:          &saved,
					}, []Event{FuturePredicateAvailable{
						PlayerID:    e.Effect.PlayerID,
						DeckCardIDs: deckCardIDs,
					}}, nil

			case EffectBidChange:
				saved := e
				return &BidDeclareChangeWaiting{
						TrickPhase:       s,
						ChangingPlayerID: e.Effect.PlayerID,
						PendingWon:       &saved,
					}, []Event{DeclareBidChangeAvailable{
						PlayerID: e.Effect.PlayerID,
						Min:      e.Effect.Min,
						Max:      e.Effect.Max,
					}}, nil
			}
		}

		newState, cascades, err := settleTrick(s, e.WinnerID, true, e.TrickBonus)
		if err != nil {
			return nil, nil, err
		}
		if e.Effect != nil && e.Effect.Kind == EffectGotBonusScore {
			cascades = append([]Event{GotBonusScore{
				PlayerID:   e.Effect.PlayerID,
				BonusScore: e.Effect.BonusScore,
			}}, cascades...)
		}
		return newState, cascades, nil

	case AllRanAway:
		return settleTrick(s, e.WinnerID, true, 0)

	case KrakenAppeared:
		// 海怪吞掉整墩: 无人得墩得分, MustHaveWon 只拿下一墩先手
		return settleTrick(s, e.MustHaveWon, false, 0)

	case RoundFinished:
		s.ScoreBoard.AddRoundScore(e.RoundScore)
		if s.isGameFinished() {
			return s, []Event{GameFinished{
				GameWinnerID: s.ScoreBoard.GameWinnerID(),
				ScoreBoard:   s.ScoreBoard,
			}}, nil
		}
		roundStarted, err := dealRound(s.Rule, s.Round+1, s.Players)
		if err != nil {
			return nil, nil, err
		}
		return s, []Event{roundStarted, BiddingStarted{Round: s.Round + 1, DealerID: s.DealerID}}, nil

	case GameFinished:
		return &FinishedPhase{
			OwnerID:      s.OwnerID,
			Rule:         s.Rule,
			LastWinnerID: s.DealerID,
			Players:      s.Players,
			ScoreBoard:   s.ScoreBoard,
		}, nil, nil

	case RoundStarted:
		bidding, err := buildBiddingPhase(s.OwnerID, s.Rule, s.DealerID, s.ScoreBoard, e)
		if err != nil {
			return nil, nil, err
		}
		return bidding, nil, nil
	}
	return s, nil, invalidStatef("event %s not applicable on trick phase", ev.EventType())
}

// settleTrick 所有结算路径共用: 推进墩数, 清场, 改立庄家并轮转,
// 视情况记墩与奖励分, 轮末追加 RoundFinished 级联。
func settleTrick(s *TrickPhase, winnerID string, credit bool, bonus int) (State, []Event, error) {
	s.Trick++
	for _, pc := range s.Field {
		s.Stack = append(s.Stack, pc.Card.ID)
	}
	s.Field = []card.PlayedCard{}
	s.MustFollow = nil

	s.DealerID = winnerID
	if err := s.rotate(winnerID); err != nil {
		return nil, nil, err
	}

	if credit {
		dealer := s.nextPlayer()
		dealer.GotATrick()
		dealer.AddTookBonus(bonus)
	}

	if s.isRoundFinished() {
		return s, []Event{RoundFinished{RoundScore: s.calcRoundScore()}}, nil
	}
	return s, nil, nil
}

func applyOnLeadChanging(s *NextTrickLeadPlayerChanging, ev Event) (State, []Event, error) {
	e, ok := ev.(NextTrickLeadPlayerChanged)
	if !ok {
		return s, nil, invalidStatef("event %s not applicable while lead change pending", ev.EventType())
	}
	newState, cascades, err := settleTrick(s.TrickPhase, s.PendingWon.WinnerID, true, s.PendingWon.TrickBonus)
	if err != nil {
		return nil, nil, err
	}
	if trickPhase, stillTrick := newState.(*TrickPhase); stillTrick && !trickPhase.isRoundFinished() {
		trickPhase.DealerID = e.NewLeadPlayerID
		if err := trickPhase.rotate(e.NewLeadPlayerID); err != nil {
			return nil, nil, err
		}
	}
	return newState, cascades, nil
}

func applyOnHandChange(s *HandChangeWaiting, ev Event) (State, []Event, error) {
	e, ok := ev.(PlayerHandChanged)
	if !ok {
		return s, nil, invalidStatef("event %s not applicable while hand change pending", ev.EventType())
	}
	player := s.TrickPhase.playerOf(s.ChangingPlayerID)
	if player == nil {
		return nil, nil, invalidStatef("hand change player not found: %s", s.ChangingPlayerID)
	}
	for _, cardID := range e.ReturnCardIDs {
		player.RemoveCard(cardID)
		s.TrickPhase.Stack = append(s.TrickPhase.Stack, cardID)
	}
	return settleTrick(s.TrickPhase, s.PendingWon.WinnerID, true, s.PendingWon.TrickBonus)
}

func applyOnFuturePredicate(s *FuturePredicateWaiting, ev Event) (State, []Event, error) {
	if _, ok := ev.(FuturePredicated); !ok {
		return s, nil, invalidStatef("event %s not applicable while future predicate pending", ev.EventType())
	}
	return settleTrick(s.TrickPhase, s.PendingWon.WinnerID, true, s.PendingWon.TrickBonus)
}

func applyOnBidChange(s *BidDeclareChangeWaiting, ev Event) (State, []Event, error) {
	e, ok := ev.(BidDeclareChanged)
	if !ok {
		return s, nil, invalidStatef("event %s not applicable while bid change pending", ev.EventType())
	}
	player := s.TrickPhase.playerOf(e.ChangedPlayerID)
	if player == nil || player.DeclaredBid == nil {
		return nil, nil, invalidStatef("bid change player not found: %s", e.ChangedPlayerID)
	}
	newBid := *player.DeclaredBid + e.ChangedBid
	player.DeclaredBid = &newBid
	return settleTrick(s.TrickPhase, s.PendingWon.WinnerID, true, s.PendingWon.TrickBonus)
}

func applyOnFinishedPhase(s *FinishedPhase, ev Event) (State, []Event, error) {
	switch ev.(type) {
	case GameReplayed:
		roundStarted, err := dealRound(s.Rule, 1, s.Players)
		if err != nil {
			return nil, nil, err
		}
		return s, []Event{roundStarted, BiddingStarted{Round: 1, DealerID: s.LastWinnerID}}, nil

	case GameEnded:
		return s, nil, nil

	case RoundStarted:
		bidding, err := buildBiddingPhase(s.OwnerID, s.Rule, s.LastWinnerID, NewScoreBoard(), ev.(RoundStarted))
		if err != nil {
			return nil, nil, err
		}
		return bidding, nil, nil
	}
	return s, nil, invalidStatef("event %s not applicable on finished phase", ev.EventType())
}

// dealRound 洗牌并发牌, 完整牌序记入事件。随机性止步于此。
func dealRound(rule Rule, round int, playerIDs []string) (RoundStarted, error) {
	deck := rule.ProvideNewDeck()
	card.Shuffle(deck)

	if len(deck) < round*len(playerIDs) {
		return RoundStarted{}, invalidStatef("deck too small for round %d with %d players", round, len(playerIDs))
	}

	dealt := make([]DealtPlayer, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		cardIDs := make([]string, 0, round)
		for r := 0; r < round; r++ {
			cardIDs = append(cardIDs, deck[0].ID)
			deck = deck[1:]
		}
		dealt = append(dealt, DealtPlayer{PlayerID: playerID, CardIDs: cardIDs})
	}

	deckCardIDs := make([]string, 0, len(deck))
	for _, c := range deck {
		deckCardIDs = append(deckCardIDs, c.ID)
	}
	return RoundStarted{Round: round, Players: dealt, DeckCardIDs: deckCardIDs}, nil
}

func buildBiddingPhase(ownerID string, rule Rule, dealerID string, scoreBoard *ScoreBoard, e RoundStarted) (*BiddingPhase, error) {
	playerIDs := make([]string, 0, len(e.Players))
	idToPlayer := make(map[string]*Player, len(e.Players))
	for _, dealt := range e.Players {
		player := NewPlayer(dealt.PlayerID)
		for _, cardID := range dealt.CardIDs {
			c, err := card.FromID(cardID)
			if err != nil {
				return nil, err
			}
			player.Cards[cardID] = c
		}
		playerIDs = append(playerIDs, dealt.PlayerID)
		idToPlayer[dealt.PlayerID] = player
	}

	deck := make([]card.Card, 0, len(e.DeckCardIDs))
	for _, cardID := range e.DeckCardIDs {
		c, err := card.FromID(cardID)
		if err != nil {
			return nil, err
		}
		deck = append(deck, c)
	}

	return &BiddingPhase{
		OwnerID:    ownerID,
		Rule:       rule,
		Players:    playerIDs,
		DealerID:   dealerID,
		Round:      e.Round,
		Deck:       deck,
		IDToPlayer: idToPlayer,
		ScoreBoard: scoreBoard,
	}, nil
}

// pirateEffect 胜牌为海盗系时的二次效果。除 Rascal 外都只在非末墩触发。
func pirateEffect(s *TrickPhase, result card.Won) (*PirateEffect, error) {
	if !result.Card.IsPiratesKind() {
		return nil, nil
	}

	switch result.Card.Kind {
	case card.KindRoiseDLaney:
		if !s.isLastTrick() {
			return &PirateEffect{Kind: EffectLeadChange, PlayerID: result.WinnerID}, nil
		}
	case card.KindBahijTheBandit:
		if !s.isLastTrick() && len(s.Deck) >= 2 {
			return &PirateEffect{
				Kind:        EffectHandChange,
				PlayerID:    result.WinnerID,
				DrawCardIDs: []string{s.Deck[0].ID, s.Deck[1].ID},
			}, nil
		}
	case card.KindRascalOfRoatan:
		if s.isLastTrick() && result.Card.BetScore != nil {
			return &PirateEffect{
				Kind:       EffectGotBonusScore,
				PlayerID:   result.WinnerID,
				BonusScore: *result.Card.BetScore,
			}, nil
		}
	case card.KindJuanitaJade:
		if !s.isLastTrick() {
			return &PirateEffect{Kind: EffectFuturePredicate, PlayerID: result.WinnerID}, nil
		}
	case card.KindHarryTheGiant:
		if !s.isLastTrick() {
			winner := s.playerOf(result.WinnerID)
			if winner == nil || winner.DeclaredBid == nil {
				return nil, invalidStatef("winner not found, winnerId=%s", result.WinnerID)
			}
			bid := *winner.DeclaredBid
			return &PirateEffect{
				Kind:     EffectBidChange,
				PlayerID: result.WinnerID,
				Min:      maxInt(0, bid-1),
				Max:      minInt(s.Round, bid+1),
			}, nil
		}
	}
	return nil, nil
}

func removePlayer(playerIDs []string, playerID string) []string {
	remaining := playerIDs[:0]
	for _, id := range playerIDs {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
