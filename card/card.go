package card

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind 牌种类
type Kind byte

const (
	KindNumber Kind = iota
	KindEscape
	KindPirates
	KindRoiseDLaney
	KindBahijTheBandit
	KindRascalOfRoatan
	KindJuanitaJade
	KindHarryTheGiant
	KindTigress
	KindSkulking
	KindMermaid
	KindKraken
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindEscape:
		return "Escape"
	case KindPirates:
		return "Pirates"
	case KindRoiseDLaney:
		return "RoiseDLaney"
	case KindBahijTheBandit:
		return "BahijTheBandit"
	case KindRascalOfRoatan:
		return "RascalOfRoatan"
	case KindJuanitaJade:
		return "JuanitaJade"
	case KindHarryTheGiant:
		return "HarryTheGiant"
	case KindTigress:
		return "Tigress"
	case KindSkulking:
		return "Skulking"
	case KindMermaid:
		return "Mermaid"
	case KindKraken:
		return "Kraken"
	}
	return "?"
}

// Card 是一张牌。Kind 决定哪些字段有意义:
// - KindNumber: Color, Number
// - KindTigress: AsPirates (出牌时由玩家申明, 未出牌时为 nil)
// - KindRascalOfRoatan: BetScore (可选的赌分)
type Card struct {
	ID        string
	Kind      Kind
	Color     Color
	Number    int
	AsPirates *bool
	BetScore  *int
}

// MaxNumber 每种颜色的最大点数
const MaxNumber = 14

// NewNumber 构造数字牌, id 形如 "number:GREEN:7"
func NewNumber(color Color, number int) Card {
	return Card{
		ID:     fmt.Sprintf("number:%s:%d", color, number),
		Kind:   KindNumber,
		Color:  color,
		Number: number,
	}
}

// Bonus 返回该牌被赢走时带来的奖励分
func (c Card) Bonus() int {
	if c.Kind != KindNumber || c.Number != MaxNumber {
		return 0
	}
	if c.Color == Black {
		return 20
	}
	return 10
}

// IsPiratesKind 海盗系: 结算时按海盗处理的牌
// (宣言为海盗的 Tigress 不在此列, 它由 battle/judge 单独处理)
func (c Card) IsPiratesKind() bool {
	switch c.Kind {
	case KindPirates, KindRoiseDLaney, KindBahijTheBandit,
		KindRascalOfRoatan, KindJuanitaJade, KindHarryTheGiant:
		return true
	}
	return false
}

// IsEscapeKind Escape 或宣言为逃跑的 Tigress
func (c Card) IsEscapeKind() bool {
	if c.Kind == KindEscape {
		return true
	}
	return c.Kind == KindTigress && c.AsPirates != nil && !*c.AsPirates
}

func (c Card) tigressAsPirates() bool {
	return c.Kind == KindTigress && c.AsPirates != nil && *c.AsPirates
}

func (c Card) String() string {
	return c.ID
}

// FromID 从牌 id 还原一张牌。AsPirates/BetScore 不在 id 内, 还原为未设置。
func FromID(id string) (Card, error) {
	switch {
	case strings.HasPrefix(id, "number:"):
		parts := strings.Split(id, ":")
		if len(parts) != 3 {
			return Card{}, fmt.Errorf("malformed number card id: %s", id)
		}
		color, err := ParseColor(parts[1])
		if err != nil {
			return Card{}, err
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 || n > MaxNumber {
			return Card{}, fmt.Errorf("malformed number card id: %s", id)
		}
		return NewNumber(color, n), nil
	case strings.HasPrefix(id, "escape:"):
		return Card{ID: id, Kind: KindEscape}, nil
	case strings.HasPrefix(id, "pirates:"):
		return Card{ID: id, Kind: KindPirates}, nil
	case strings.HasPrefix(id, "mermaid:"):
		return Card{ID: id, Kind: KindMermaid}, nil
	}
	switch id {
	case "roiseDLaney":
		return Card{ID: id, Kind: KindRoiseDLaney}, nil
	case "bahijTheBandit":
		return Card{ID: id, Kind: KindBahijTheBandit}, nil
	case "rascalOfRoatan":
		return Card{ID: id, Kind: KindRascalOfRoatan}, nil
	case "juanitaJade":
		return Card{ID: id, Kind: KindJuanitaJade}, nil
	case "harryTheGiant":
		return Card{ID: id, Kind: KindHarryTheGiant}, nil
	case "tigress":
		return Card{ID: id, Kind: KindTigress}, nil
	case "skulking":
		return Card{ID: id, Kind: KindSkulking}, nil
	case "kraken":
		return Card{ID: id, Kind: KindKraken}, nil
	}
	return Card{}, fmt.Errorf("unknown card id: %s", id)
}

type cardJSON struct {
	ID        string `json:"id"`
	AsPirates *bool  `json:"asPirates,omitempty"`
	BetScore  *int   `json:"betScore,omitempty"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{ID: c.ID, AsPirates: c.AsPirates, BetScore: c.BetScore})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromID(raw.ID)
	if err != nil {
		return err
	}
	parsed.AsPirates = raw.AsPirates
	parsed.BetScore = raw.BetScore
	*c = parsed
	return nil
}
