package game

import "github.com/deftfitf/skulking-board-game/card"

// Command 玩家或系统发起的请求。路由与校验见 Validate。
type Command interface {
	CommandType() string
	SenderID() string
}

type Init struct {
	GameRoomID    string
	GameRule      Rule
	FirstDealerID string
}

type Join struct {
	PlayerID string
}

type Leave struct {
	PlayerID string
}

type GameStart struct {
	PlayerID string
}

type BidDeclare struct {
	PlayerID string
	Bid      int
}

type PlayCard struct {
	PlayerID string
	Card     card.Card
}

type NextTrickLeadPlayerChange struct {
	PlayerID        string
	NewLeadPlayerID string
}

type PlayerHandChange struct {
	PlayerID      string
	ReturnCardIDs []string
}

type FuturePredicateFinish struct {
	PlayerID string
}

type BidDeclareChange struct {
	PlayerID string
	Bid      int
}

type ReplayGame struct {
	PlayerID string
}

type EndGame struct {
	PlayerID string
}

// Store 直接落座指定状态, 仅恢复路径使用
type Store struct {
	State State
}

func (Init) CommandType() string                      { return "init" }
func (Join) CommandType() string                      { return "join" }
func (Leave) CommandType() string                     { return "leave" }
func (GameStart) CommandType() string                 { return "game_start" }
func (BidDeclare) CommandType() string                { return "bid_declare" }
func (PlayCard) CommandType() string                  { return "play_card" }
func (NextTrickLeadPlayerChange) CommandType() string { return "next_trick_lead_player_change" }
func (PlayerHandChange) CommandType() string          { return "player_hand_change" }
func (FuturePredicateFinish) CommandType() string     { return "future_predicate_finish" }
func (BidDeclareChange) CommandType() string          { return "bid_declare_change" }
func (ReplayGame) CommandType() string                { return "replay_game" }
func (EndGame) CommandType() string                   { return "end_game" }
func (Store) CommandType() string                     { return "store" }

func (c Init) SenderID() string                      { return c.FirstDealerID }
func (c Join) SenderID() string                      { return c.PlayerID }
func (c Leave) SenderID() string                     { return c.PlayerID }
func (c GameStart) SenderID() string                 { return c.PlayerID }
func (c BidDeclare) SenderID() string                { return c.PlayerID }
func (c PlayCard) SenderID() string                  { return c.PlayerID }
func (c NextTrickLeadPlayerChange) SenderID() string { return c.PlayerID }
func (c PlayerHandChange) SenderID() string          { return c.PlayerID }
func (c FuturePredicateFinish) SenderID() string     { return c.PlayerID }
func (c BidDeclareChange) SenderID() string          { return c.PlayerID }
func (c ReplayGame) SenderID() string                { return c.PlayerID }
func (c EndGame) SenderID() string                   { return c.PlayerID }
func (Store) SenderID() string                       { return "" }
