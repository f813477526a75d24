package game

import "github.com/deftfitf/skulking-board-game/card"

// Validate 以当前阶段校验命令。三种结局:
// - 返回事件: 命令被接受, 先落盘再 Apply;
// - 返回 Rejection: 只通知出错玩家, 状态不变;
// - 全为 nil: 命令与当前阶段结构上不适用, 静默忽略。
// error 只用于致命的内部状态问题。
func Validate(state State, cmd Command) (Event, *Rejection, error) {
	if store, ok := cmd.(Store); ok {
		return Stored{State: store.State}, nil, nil
	}

	if state == nil {
		if init, ok := cmd.(Init); ok {
			return Initialized{
				GameRoomID:    init.GameRoomID,
				GameRule:      init.GameRule,
				FirstDealerID: init.FirstDealerID,
			}, nil, nil
		}
		return nil, nil, nil
	}

	switch s := state.(type) {
	case *StartPhase:
		return validateStartPhase(s, cmd)
	case *BiddingPhase:
		return validateBiddingPhase(s, cmd)
	case *TrickPhase:
		return validateTrickPhase(s, cmd)
	case *NextTrickLeadPlayerChanging:
		return validateLeadChanging(s, cmd)
	case *HandChangeWaiting:
		return validateHandChange(s, cmd)
	case *FuturePredicateWaiting:
		return validateFuturePredicate(s, cmd)
	case *BidDeclareChangeWaiting:
		return validateBidChange(s, cmd)
	case *FinishedPhase:
		return validateFinishedPhase(s, cmd)
	}
	return nil, nil, nil
}

func validateStartPhase(s *StartPhase, cmd Command) (Event, *Rejection, error) {
	switch c := cmd.(type) {
	case Join:
		if s.hasPlayer(c.PlayerID) {
			return nil, reject(c.PlayerID, RejectJoinAlreadyJoined), nil
		}
		if len(s.Players) >= s.Rule.RoomSize {
			return nil, reject(c.PlayerID, RejectJoinExceedMaxPlayers), nil
		}
		return APlayerJoined{PlayerID: c.PlayerID}, nil, nil

	case Leave:
		if !s.hasPlayer(c.PlayerID) {
			return nil, reject(c.PlayerID, RejectLeavePlayerNotExists), nil
		}
		if c.PlayerID == s.DealerID && len(s.Players) > 1 {
			newDealerID := ""
			for _, id := range s.Players {
				if id != c.PlayerID {
					newDealerID = id
					break
				}
			}
			return RoomDealerChanged{
				LeftPlayerID: c.PlayerID,
				OldDealerID:  s.DealerID,
				NewDealerID:  newDealerID,
			}, nil, nil
		}
		return APlayerLeft{PlayerID: c.PlayerID}, nil, nil

	case GameStart:
		if c.PlayerID != s.DealerID {
			return nil, reject(c.PlayerID, RejectStartGameNotDealer), nil
		}
		if len(s.Players) < RoomMinSize {
			return nil, reject(c.PlayerID, RejectStartInsufficientPlayers), nil
		}
		return GameStarted{PlayerIDs: append([]string{}, s.Players...)}, nil, nil
	}
	return nil, nil, nil
}

func validateBiddingPhase(s *BiddingPhase, cmd Command) (Event, *Rejection, error) {
	bid, ok := cmd.(BidDeclare)
	if !ok {
		return nil, nil, nil
	}
	if _, exists := s.IDToPlayer[bid.PlayerID]; !exists {
		return nil, reject(bid.PlayerID, RejectPlayerNotExists), nil
	}
	if bid.Bid < 0 || bid.Bid > s.Round {
		return nil, reject(bid.PlayerID, RejectInvalidBidValue), nil
	}
	return APlayerBidDeclared{PlayerID: bid.PlayerID, BidDeclared: bid.Bid}, nil, nil
}

func validateTrickPhase(s *TrickPhase, cmd Command) (Event, *Rejection, error) {
	play, ok := cmd.(PlayCard)
	if !ok {
		return nil, nil, nil
	}
	if s.isRoundFinished() {
		return nil, reject(play.PlayerID, RejectRoundAlreadyEnded), nil
	}
	next := s.nextPlayer()
	if play.PlayerID != next.PlayerID {
		return nil, reject(play.PlayerID, RejectIsNotNextPlayer), nil
	}
	held, exists := next.Cards[play.Card.ID]
	if !exists {
		return nil, reject(play.PlayerID, RejectHasNotCard), nil
	}

	// 手牌为准, 出牌时附带的宣言/赌分取自命令
	played := held
	played.AsPirates = play.Card.AsPirates
	played.BetScore = play.Card.BetScore
	if played.Kind == card.KindTigress && played.AsPirates == nil {
		return nil, reject(play.PlayerID, RejectCantPutCardOnField), nil
	}

	if !s.canPut(next, played) {
		return nil, reject(play.PlayerID, RejectCantPutCardOnField), nil
	}
	return APlayerTrickPlayed{PlayerID: play.PlayerID, PlayedCard: played}, nil, nil
}

func validateLeadChanging(s *NextTrickLeadPlayerChanging, cmd Command) (Event, *Rejection, error) {
	change, ok := cmd.(NextTrickLeadPlayerChange)
	if !ok {
		return nil, nil, nil
	}
	if change.PlayerID != s.ChangingPlayerID {
		return nil, reject(change.PlayerID, RejectIllegalPlayerAction), nil
	}
	if s.TrickPhase.playerOf(change.NewLeadPlayerID) == nil {
		return nil, reject(change.PlayerID, RejectPlayerNotExists), nil
	}
	return NextTrickLeadPlayerChanged{
		PlayerID:        change.PlayerID,
		NewLeadPlayerID: change.NewLeadPlayerID,
	}, nil, nil
}

func validateHandChange(s *HandChangeWaiting, cmd Command) (Event, *Rejection, error) {
	change, ok := cmd.(PlayerHandChange)
	if !ok {
		return nil, nil, nil
	}
	if change.PlayerID != s.ChangingPlayerID {
		return nil, reject(change.PlayerID, RejectIllegalPlayerAction), nil
	}
	unique := map[string]bool{}
	for _, id := range change.ReturnCardIDs {
		unique[id] = true
	}
	if len(unique) != 2 {
		return nil, reject(change.PlayerID, RejectReturnCardSizeInvalid), nil
	}
	player := s.TrickPhase.playerOf(s.ChangingPlayerID)
	if player == nil {
		return nil, nil, invalidStatef("hand change player not found: %s", s.ChangingPlayerID)
	}
	for id := range unique {
		if !player.HasCard(id) {
			return nil, reject(change.PlayerID, RejectReturnCardPlayerNotHas), nil
		}
	}
	return PlayerHandChanged{PlayerID: change.PlayerID, ReturnCardIDs: change.ReturnCardIDs}, nil, nil
}

func validateFuturePredicate(s *FuturePredicateWaiting, cmd Command) (Event, *Rejection, error) {
	finish, ok := cmd.(FuturePredicateFinish)
	if !ok {
		return nil, nil, nil
	}
	if finish.PlayerID != s.PredicatingPlayerID {
		return nil, reject(finish.PlayerID, RejectIllegalPlayerAction), nil
	}
	return FuturePredicated{PlayerID: finish.PlayerID}, nil, nil
}

func validateBidChange(s *BidDeclareChangeWaiting, cmd Command) (Event, *Rejection, error) {
	change, ok := cmd.(BidDeclareChange)
	if !ok {
		return nil, nil, nil
	}
	if change.PlayerID != s.ChangingPlayerID {
		return nil, reject(change.PlayerID, RejectIllegalPlayerAction), nil
	}
	if change.Bid < -1 || change.Bid > 1 {
		return nil, reject(change.PlayerID, RejectInvalidChangeBidValue), nil
	}
	player := s.TrickPhase.playerOf(change.PlayerID)
	if player == nil || player.DeclaredBid == nil {
		return nil, nil, invalidStatef("bid change player not found: %s", change.PlayerID)
	}
	newBid := *player.DeclaredBid + change.Bid
	if newBid < 0 || newBid > s.TrickPhase.Round {
		return nil, reject(change.PlayerID, RejectInvalidChangeBidValue), nil
	}
	return BidDeclareChanged{ChangedPlayerID: change.PlayerID, ChangedBid: change.Bid}, nil, nil
}

func validateFinishedPhase(s *FinishedPhase, cmd Command) (Event, *Rejection, error) {
	switch cmd.(type) {
	case ReplayGame:
		return GameReplayed{GameWinnerID: s.GameWinnerID()}, nil, nil
	case EndGame:
		return GameEnded{}, nil, nil
	}
	return nil, nil, nil
}
