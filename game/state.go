package game

import (
	"github.com/deftfitf/skulking-board-game/card"
)

// StateType 对外展示的房间阶段名, 读模型按它筛选
type StateType string

const (
	StateNameStart    StateType = "START_PHASE"
	StateNamePlaying  StateType = "GAME_PLAYING"
	StateNameFinished StateType = "GAME_FINISHED"
)

// State 房间游戏状态, 八个阶段互斥, 同一时刻只有一个生效。
// 状态只在 Apply 里变化, 校验只在 Validate 里发生。
type State interface {
	StateName() StateType
	RoomOwnerID() string
	GameRule() Rule
	PlayerIDs() []string
}

// StartPhase 开局大厅, 等待玩家加入
type StartPhase struct {
	Rule     Rule     `json:"rule"`
	DealerID string   `json:"dealerId"`
	Players  []string `json:"playerIds"`
}

func NewStartPhase(rule Rule, ownerID string) *StartPhase {
	return &StartPhase{Rule: rule, DealerID: ownerID, Players: []string{}}
}

func (s *StartPhase) StateName() StateType { return StateNameStart }
func (s *StartPhase) RoomOwnerID() string  { return s.DealerID }
func (s *StartPhase) GameRule() Rule       { return s.Rule }
func (s *StartPhase) PlayerIDs() []string  { return s.Players }

func (s *StartPhase) hasPlayer(playerID string) bool {
	for _, id := range s.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

// BiddingPhase 叫牌阶段, 全员叫牌后进入 TrickPhase
type BiddingPhase struct {
	OwnerID    string             `json:"roomOwnerId"`
	Rule       Rule               `json:"rule"`
	Players    []string           `json:"playerIds"`
	DealerID   string             `json:"dealerId"`
	Round      int                `json:"round"`
	Deck       []card.Card        `json:"deck"`
	IDToPlayer map[string]*Player `json:"idToPlayer"`
	ScoreBoard *ScoreBoard        `json:"scoreBoard"`
}

func (s *BiddingPhase) StateName() StateType { return StateNamePlaying }
func (s *BiddingPhase) RoomOwnerID() string  { return s.OwnerID }
func (s *BiddingPhase) GameRule() Rule       { return s.Rule }
func (s *BiddingPhase) PlayerIDs() []string  { return s.Players }

func (s *BiddingPhase) allBidsDeclared() bool {
	for _, p := range s.IDToPlayer {
		if p.DeclaredBid == nil {
			return false
		}
	}
	return true
}

// startTrick 庄家先手, 其余按入座顺序轮转
func (s *BiddingPhase) startTrick() (*TrickPhase, error) {
	players := make([]*Player, 0, len(s.Players))
	for _, playerID := range s.Players {
		players = append(players, s.IDToPlayer[playerID])
	}
	if err := rotatePlayers(s.DealerID, players); err != nil {
		return nil, err
	}

	return &TrickPhase{
		OwnerID:    s.OwnerID,
		Rule:       s.Rule,
		Round:      s.Round,
		DealerID:   s.DealerID,
		Players:    s.Players,
		Rotation:   players,
		Deck:       s.Deck,
		Stack:      []string{},
		Field:      []card.PlayedCard{},
		Trick:      1,
		ScoreBoard: s.ScoreBoard,
	}, nil
}

// TrickPhase 出牌阶段
type TrickPhase struct {
	OwnerID    string            `json:"roomOwnerId"`
	Rule       Rule              `json:"rule"`
	Round      int               `json:"round"`
	DealerID   string            `json:"dealerId"`
	Players    []string          `json:"playerIds"`
	Rotation   []*Player         `json:"players"`
	Deck       []card.Card       `json:"deck"`
	Stack      []string          `json:"stack"`
	MustFollow *card.Color       `json:"mustFollow,omitempty"`
	Field      []card.PlayedCard `json:"field"`
	Trick      int               `json:"trick"`
	ScoreBoard *ScoreBoard       `json:"scoreBoard"`
}

func (s *TrickPhase) StateName() StateType { return StateNamePlaying }
func (s *TrickPhase) RoomOwnerID() string  { return s.OwnerID }
func (s *TrickPhase) GameRule() Rule       { return s.Rule }
func (s *TrickPhase) PlayerIDs() []string  { return s.Players }

func (s *TrickPhase) isLastTrick() bool     { return s.Trick == s.Round }
func (s *TrickPhase) isRoundFinished() bool { return s.Trick > s.Round }
func (s *TrickPhase) isGameFinished() bool  { return s.Round >= s.Rule.NOfRounds }

func (s *TrickPhase) nextPlayer() *Player { return s.Rotation[0] }

// isFinishedTrick 轮转一圈回到庄家即整墩出完
func (s *TrickPhase) isFinishedTrick() bool {
	return s.nextPlayer().PlayerID == s.DealerID
}

func (s *TrickPhase) playerChange() {
	s.Rotation = append(s.Rotation[1:], s.Rotation[0])
}

func (s *TrickPhase) playerOf(playerID string) *Player {
	for _, p := range s.Rotation {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

// rotatePlayers 轮转到庄家为首位, 其余相对顺序不变。
// 庄家不在列表里属于致命状态错误。
func rotatePlayers(dealerID string, players []*Player) error {
	for i := 0; i < len(players); i++ {
		if players[0].PlayerID == dealerID {
			break
		}
		head := players[0]
		copy(players, players[1:])
		players[len(players)-1] = head
	}
	if players[0].PlayerID != dealerID {
		return invalidStatef("dealer is not included in players, dealer=%s", dealerID)
	}
	return nil
}

func (s *TrickPhase) rotate(dealerID string) error {
	return rotatePlayers(dealerID, s.Rotation)
}

func (s *TrickPhase) canPut(player *Player, c card.Card) bool {
	if s.MustFollow == nil {
		return true
	}
	if c.Kind == card.KindNumber {
		if c.Color == *s.MustFollow {
			return true
		}
		return !player.HasColorCard(*s.MustFollow)
	}
	return true
}

func (s *TrickPhase) play(playerID string, c card.Card) {
	player := s.nextPlayer()
	player.RemoveCard(c.ID)
	s.Field = append(s.Field, card.PlayedCard{PlayerID: playerID, Card: c})
	if s.MustFollow == nil && c.Kind == card.KindNumber {
		color := c.Color
		s.MustFollow = &color
	}
	s.playerChange()
}

func (s *TrickPhase) calcRoundScore() map[string]Score {
	roundScore := make(map[string]Score, len(s.Rotation))
	for _, p := range s.Rotation {
		roundScore[p.PlayerID] = p.RoundScore(s.Round)
	}
	return roundScore
}

// NextTrickLeadPlayerChanging RoiseDLaney: 胜者指定下一墩先手
type NextTrickLeadPlayerChanging struct {
	TrickPhase       *TrickPhase `json:"trickPhase"`
	ChangingPlayerID string      `json:"changingPlayerId"`
	PendingWon       *APlayerWon `json:"aPlayerWon"`
}

func (s *NextTrickLeadPlayerChanging) StateName() StateType { return StateNamePlaying }
func (s *NextTrickLeadPlayerChanging) RoomOwnerID() string  { return s.TrickPhase.OwnerID }
func (s *NextTrickLeadPlayerChanging) GameRule() Rule       { return s.TrickPhase.Rule }
func (s *NextTrickLeadPlayerChanging) PlayerIDs() []string  { return s.TrickPhase.Players }

// HandChangeWaiting BahijTheBandit: 胜者摸 2 张后退回 2 张
type HandChangeWaiting struct {
	TrickPhase       *TrickPhase `json:"trickPhase"`
	ChangingPlayerID string      `json:"changingPlayerId"`
	DrawCardIDs      []string    `json:"drawCardIds"`
	PendingWon       *APlayerWon `json:"aPlayerWon"`
}

func (s *HandChangeWaiting) StateName() StateType { return StateNamePlaying }
func (s *HandChangeWaiting) RoomOwnerID() string  { return s.TrickPhase.OwnerID }
func (s *HandChangeWaiting) GameRule() Rule       { return s.TrickPhase.Rule }
func (s *HandChangeWaiting) PlayerIDs() []string  { return s.TrickPhase.Players }

// FuturePredicateWaiting JuanitaJade: 胜者确认看过剩余牌堆
type FuturePredicateWaiting struct {
	TrickPhase          *TrickPhase `json:"trickPhase"`
	PredicatingPlayerID string      `json:"predicatingPlayerId"`
	PendingWon          *APlayerWon `json:"aPlayerWon"`
}

func (s *FuturePredicateWaiting) StateName() StateType { return StateNamePlaying }
func (s *FuturePredicateWaiting) RoomOwnerID() string  { return s.TrickPhase.OwnerID }
func (s *FuturePredicateWaiting) GameRule() Rule       { return s.TrickPhase.Rule }
func (s *FuturePredicateWaiting) PlayerIDs() []string  { return s.TrickPhase.Players }

// BidDeclareChangeWaiting HarryTheGiant: 胜者可 ±1 调整自己的叫牌
type BidDeclareChangeWaiting struct {
	TrickPhase       *TrickPhase `json:"trickPhase"`
	ChangingPlayerID string      `json:"changingPlayerId"`
	PendingWon       *APlayerWon `json:"aPlayerWon"`
}

func (s *BidDeclareChangeWaiting) StateName() StateType { return StateNamePlaying }
func (s *BidDeclareChangeWaiting) RoomOwnerID() string  { return s.TrickPhase.OwnerID }
func (s *BidDeclareChangeWaiting) GameRule() Rule       { return s.TrickPhase.Rule }
func (s *BidDeclareChangeWaiting) PlayerIDs() []string  { return s.TrickPhase.Players }

// FinishedPhase 对局结束, 等待重开或解散
type FinishedPhase struct {
	OwnerID      string      `json:"roomOwnerId"`
	Rule         Rule        `json:"rule"`
	LastWinnerID string      `json:"lastWinnerId"`
	Players      []string    `json:"playerIds"`
	ScoreBoard   *ScoreBoard `json:"scoreBoard"`
}

func (s *FinishedPhase) StateName() StateType { return StateNameFinished }
func (s *FinishedPhase) RoomOwnerID() string  { return s.OwnerID }
func (s *FinishedPhase) GameRule() Rule       { return s.Rule }
func (s *FinishedPhase) PlayerIDs() []string  { return s.Players }

// GameWinnerID 全场合计最高者
func (s *FinishedPhase) GameWinnerID() string { return s.ScoreBoard.GameWinnerID() }
