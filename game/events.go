package game

import (
	"github.com/deftfitf/skulking-board-game/card"
)

// Event 已被接受的状态迁移事实。除了连接类与异常类事件外全部落盘,
// 回放时逐条重放 Apply 以重建状态。
type Event interface {
	EventType() string
	// PublishOnly 为 true 的事件 Apply 为空操作, 只用于客户端通知。
	PublishOnly() bool
}

// PirateEffectKind 海盗效果种类
type PirateEffectKind string

const (
	EffectLeadChange      PirateEffectKind = "next_trick_lead_player_changeable"
	EffectHandChange      PirateEffectKind = "hand_change_available"
	EffectGotBonusScore   PirateEffectKind = "got_bonus_score"
	EffectFuturePredicate PirateEffectKind = "future_predicate_available"
	EffectBidChange       PirateEffectKind = "declare_bid_change_available"
)

// PirateEffect 胜牌为海盗系时附带的二次效果, 嵌在 APlayerWon 里落盘
type PirateEffect struct {
	Kind        PirateEffectKind `json:"kind"`
	PlayerID    string           `json:"playerId"`
	DrawCardIDs []string         `json:"drawCardIds,omitempty"`
	BonusScore  int              `json:"bonusScore,omitempty"`
	Min         int              `json:"min,omitempty"`
	Max         int              `json:"max,omitempty"`
}

type Initialized struct {
	GameRoomID    string `json:"gameRoomId"`
	GameRule      Rule   `json:"gameRule"`
	FirstDealerID string `json:"firstDealerId"`
}

type ConnectionEstablished struct {
	PlayerID string `json:"playerId"`
}

type ConnectionClosed struct {
	PlayerID string `json:"playerId"`
}

type APlayerJoined struct {
	PlayerID string `json:"playerId"`
}

type APlayerLeft struct {
	PlayerID string `json:"playerId"`
}

// RoomDealerChanged 庄家离席: 移除离席者并改立新庄
type RoomDealerChanged struct {
	LeftPlayerID string `json:"leftPlayerId"`
	OldDealerID  string `json:"oldDealer"`
	NewDealerID  string `json:"newDealer"`
}

type GameStarted struct {
	PlayerIDs []string `json:"playerIds"`
}

type BiddingStarted struct {
	Round    int    `json:"round"`
	DealerID string `json:"dealerId"`
}

type APlayerBidDeclared struct {
	PlayerID    string `json:"playerId"`
	BidDeclared int    `json:"bidDeclared"`
}

// DealtPlayer 某玩家本轮发到的手牌
type DealtPlayer struct {
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}

// RoundStarted 落盘完整的发牌结果, 回放由此确定牌序。
// 投递时脱敏: 公开副本只带轮次与余牌数, 各玩家只收到自己的手牌。
type RoundStarted struct {
	Round       int           `json:"round"`
	Players     []DealtPlayer `json:"players"`
	DeckCardIDs []string      `json:"deckCardIds"`
}

type TrickStarted struct {
	Deck      int      `json:"deck"`
	Trick     int      `json:"trick"`
	PlayerIDs []string `json:"playerIds"`
}

type APlayerTrickPlayed struct {
	PlayerID   string    `json:"playerId"`
	PlayedCard card.Card `json:"playedCard"`
}

type APlayerWon struct {
	WinnerID   string        `json:"winnerId"`
	Card       card.Card     `json:"card"`
	TrickBonus int           `json:"trickBonus"`
	Effect     *PirateEffect `json:"piratesEvent,omitempty"`
}

type AllRanAway struct {
	WinnerID string    `json:"winnerId"`
	Card     card.Card `json:"card"`
}

type KrakenAppeared struct {
	MustHaveWon string `json:"mustHaveWon"`
}

type DeclareBidChangeAvailable struct {
	PlayerID string `json:"playerId"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
}

type NextTrickLeadPlayerChangeableNotice struct {
	PlayerID string `json:"playerId"`
}

type HandChangeAvailableNotice struct {
	PlayerID    string   `json:"playerId"`
	DrawCardIDs []string `json:"drawCards"`
}

type FuturePredicateAvailable struct {
	PlayerID    string   `json:"playerId"`
	DeckCardIDs []string `json:"deckCard"`
}

type GotBonusScore struct {
	PlayerID   string `json:"playerId"`
	BonusScore int    `json:"bonusScore"`
}

type RoundFinished struct {
	RoundScore map[string]Score `json:"roundScore"`
}

type NextTrickLeadPlayerChanged struct {
	PlayerID        string `json:"playerId"`
	NewLeadPlayerID string `json:"newLeadPlayerId"`
}

type PlayerHandChanged struct {
	PlayerID      string   `json:"playerId"`
	ReturnCardIDs []string `json:"returnCards"`
}

type FuturePredicated struct {
	PlayerID string `json:"predicatedPlayerId"`
}

type BidDeclareChanged struct {
	ChangedPlayerID string `json:"changedPlayerId"`
	ChangedBid      int    `json:"changedBid"`
}

type GameFinished struct {
	GameWinnerID string      `json:"gameWinnerId"`
	ScoreBoard   *ScoreBoard `json:"scoreBoard"`
}

type GameReplayed struct {
	GameWinnerID string `json:"gameWinnerId"`
}

type GameEnded struct{}

// GameSnapshot 当前完整状态, 在新连接建立或显式请求时单播
type GameSnapshot struct {
	GameRoomID string `json:"gameRoomId"`
	State      State  `json:"-"`
}

// GameException 拒绝通知, 只发给出错玩家, 不落盘
type GameException struct {
	PlayerID string        `json:"playerId"`
	Type     RejectionType `json:"invalidInputType"`
}

// Stored 以快照状态直接落座, 恢复与钝化唤醒专用
type Stored struct {
	State State `json:"-"`
}

func (Initialized) EventType() string                         { return "initialized" }
func (ConnectionEstablished) EventType() string               { return "connection_established" }
func (ConnectionClosed) EventType() string                    { return "connection_closed" }
func (APlayerJoined) EventType() string                       { return "a_player_joined" }
func (APlayerLeft) EventType() string                         { return "a_player_left" }
func (RoomDealerChanged) EventType() string                   { return "room_dealer_changed" }
func (GameStarted) EventType() string                         { return "game_started" }
func (BiddingStarted) EventType() string                      { return "bidding_started" }
func (APlayerBidDeclared) EventType() string                  { return "a_player_bid_declared" }
func (RoundStarted) EventType() string                        { return "round_started" }
func (TrickStarted) EventType() string                        { return "trick_started" }
func (APlayerTrickPlayed) EventType() string                  { return "a_player_trick_played" }
func (APlayerWon) EventType() string                          { return "a_player_won" }
func (AllRanAway) EventType() string                          { return "all_ran_away" }
func (KrakenAppeared) EventType() string                      { return "kraken_appeared" }
func (DeclareBidChangeAvailable) EventType() string           { return "declare_bid_change_available" }
func (NextTrickLeadPlayerChangeableNotice) EventType() string { return "next_trick_lead_player_changeable_notice" }
func (HandChangeAvailableNotice) EventType() string           { return "hand_change_available_notice" }
func (FuturePredicateAvailable) EventType() string            { return "future_predicate_available" }
func (GotBonusScore) EventType() string                       { return "got_bonus_score" }
func (RoundFinished) EventType() string                       { return "round_finished" }
func (NextTrickLeadPlayerChanged) EventType() string          { return "next_trick_lead_player_changed" }
func (PlayerHandChanged) EventType() string                   { return "player_hand_changed" }
func (FuturePredicated) EventType() string                    { return "future_predicated" }
func (BidDeclareChanged) EventType() string                   { return "bid_declare_changed" }
func (GameFinished) EventType() string                        { return "game_finished" }
func (GameReplayed) EventType() string                        { return "game_replayed" }
func (GameEnded) EventType() string                           { return "game_ended" }
func (GameSnapshot) EventType() string                        { return "game_snapshot" }
func (GameException) EventType() string                       { return "game_exception" }
func (Stored) EventType() string                              { return "stored" }

func (Initialized) PublishOnly() bool                         { return false }
func (ConnectionEstablished) PublishOnly() bool               { return true }
func (ConnectionClosed) PublishOnly() bool                    { return true }
func (APlayerJoined) PublishOnly() bool                       { return false }
func (APlayerLeft) PublishOnly() bool                         { return false }
func (RoomDealerChanged) PublishOnly() bool                   { return false }
func (GameStarted) PublishOnly() bool                         { return false }
func (BiddingStarted) PublishOnly() bool                      { return true }
func (APlayerBidDeclared) PublishOnly() bool                  { return false }
func (RoundStarted) PublishOnly() bool                        { return false }
func (TrickStarted) PublishOnly() bool                        { return true }
func (APlayerTrickPlayed) PublishOnly() bool                  { return false }
func (APlayerWon) PublishOnly() bool                          { return false }
func (AllRanAway) PublishOnly() bool                          { return false }
func (KrakenAppeared) PublishOnly() bool                      { return false }
func (DeclareBidChangeAvailable) PublishOnly() bool           { return true }
func (NextTrickLeadPlayerChangeableNotice) PublishOnly() bool { return true }
func (HandChangeAvailableNotice) PublishOnly() bool           { return true }
func (FuturePredicateAvailable) PublishOnly() bool            { return true }
func (GotBonusScore) PublishOnly() bool                       { return true }
func (RoundFinished) PublishOnly() bool                       { return false }
func (NextTrickLeadPlayerChanged) PublishOnly() bool          { return false }
func (PlayerHandChanged) PublishOnly() bool                   { return false }
func (FuturePredicated) PublishOnly() bool                    { return false }
func (BidDeclareChanged) PublishOnly() bool                   { return false }
func (GameFinished) PublishOnly() bool                        { return false }
func (GameReplayed) PublishOnly() bool                        { return false }
func (GameEnded) PublishOnly() bool                           { return false }
func (GameSnapshot) PublishOnly() bool                        { return true }
func (GameException) PublishOnly() bool                       { return true }
func (Stored) PublishOnly() bool                              { return false }
