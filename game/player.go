package game

import "github.com/deftfitf/skulking-board-game/card"

// Player 一局之内某玩家的手牌与战绩
type Player struct {
	PlayerID    string               `json:"playerId"`
	Cards       map[string]card.Card `json:"cards"`
	DeclaredBid *int                 `json:"declaredBid,omitempty"`
	TookTrick   int                  `json:"tookTrick"`
	TookBonus   int                  `json:"tookBonus"`
}

func NewPlayer(playerID string) *Player {
	return &Player{
		PlayerID: playerID,
		Cards:    make(map[string]card.Card),
	}
}

func (p *Player) HasCard(cardID string) bool {
	_, ok := p.Cards[cardID]
	return ok
}

func (p *Player) HasColorCard(color card.Color) bool {
	for _, c := range p.Cards {
		if c.Kind == card.KindNumber && c.Color == color {
			return true
		}
	}
	return false
}

func (p *Player) RemoveCard(cardID string) {
	delete(p.Cards, cardID)
}

func (p *Player) GotATrick() { p.TookTrick++ }

func (p *Player) AddTookBonus(bonus int) { p.TookBonus += bonus }

// RoundScore 轮末计分:
// 叫中: 叫 0 得 round*10, 否则 bid*20, 奖励分照算;
// 叫错: 叫 0 扣 round*10, 否则按差值每墩扣 10, 奖励分作废。
func (p *Player) RoundScore(round int) Score {
	bid := 0
	if p.DeclaredBid != nil {
		bid = *p.DeclaredBid
	}

	if bid == p.TookTrick {
		base := bid * 20
		if bid == 0 {
			base = round * 10
		}
		return Score{Score: base, Bonus: p.TookBonus}
	}

	if bid == 0 {
		return Score{Score: -round * 10}
	}
	diff := bid - p.TookTrick
	if diff < 0 {
		diff = -diff
	}
	return Score{Score: -diff * 10}
}
