package game

import (
	"fmt"

	"github.com/deftfitf/skulking-board-game/card"
)

// DeckType 牌堆种类
type DeckType string

const (
	DeckStandard  DeckType = "STANDARD"
	DeckExpansion DeckType = "EXPANSION"
)

const (
	RoomMinSize = 2
	RoomMaxSize = 6
)

// Rule 房间规则, 建房时确定后不再变更
type Rule struct {
	RoomSize  int      `json:"roomSize"`
	NOfRounds int      `json:"nOfRounds"`
	DeckType  DeckType `json:"deckType"`
}

func (r Rule) Validate() error {
	if r.RoomSize < RoomMinSize || r.RoomSize > RoomMaxSize {
		return fmt.Errorf("room size must be in [%d,%d], got %d", RoomMinSize, RoomMaxSize, r.RoomSize)
	}
	if r.NOfRounds < 1 {
		return fmt.Errorf("number of rounds must be positive, got %d", r.NOfRounds)
	}
	if r.DeckType != DeckStandard && r.DeckType != DeckExpansion {
		return fmt.Errorf("unknown deck type %q", r.DeckType)
	}
	return nil
}

// ProvideNewDeck 按规则给出一副未洗的新牌
func (r Rule) ProvideNewDeck() []card.Card {
	if r.DeckType == DeckExpansion {
		return card.ExpansionDeck()
	}
	return card.StandardDeck()
}
