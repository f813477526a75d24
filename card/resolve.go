package card

// PlayedCard 场上的一张牌及其出牌人
type PlayedCard struct {
	PlayerID string `json:"playerId"`
	Card     Card   `json:"card"`
}

// TrickResult 一墩结算结果
type TrickResult interface {
	trickResult()
}

// Won 有人赢下这一墩
type Won struct {
	WinnerID   string
	Card       Card
	TrickBonus int
}

// AllRanAway 全员逃跑, 先出逃跑牌的人收走这一墩 (无奖励分)
type AllRanAway struct {
	WinnerID string
	Card     Card
}

// KrakenAppeared 海怪现身, 无人得墩, MustHaveWon 成为下一墩先手
type KrakenAppeared struct {
	MustHaveWon string
}

func (Won) trickResult()            {}
func (AllRanAway) trickResult()     {}
func (KrakenAppeared) trickResult() {}

type battleResult struct {
	winner       PlayedCard
	baseBonus    int
	piratesCount int
	firstMermaid *PlayedCard
}

func fold(field []PlayedCard) battleResult {
	var result battleResult
	var winner *PlayedCard
	for i := range field {
		next := field[i]
		switch {
		case next.Card.IsPiratesKind():
			result.piratesCount++
		case next.Card.Kind == KindMermaid:
			if result.firstMermaid == nil {
				m := next
				result.firstMermaid = &m
			}
		case next.Card.Kind == KindNumber:
			result.baseBonus += next.Card.Bonus()
		}

		if winner == nil || !Battle(winner.Card, next.Card) {
			w := next
			winner = &w
		}
	}
	result.winner = *winner
	return result
}

// Resolve 按出牌顺序折叠整墩并裁定结果。
// 胜牌为海盗系时调用方负责追加海盗效果, 这里只给出基础奖励分。
func Resolve(field []PlayedCard) TrickResult {
	result := fold(field)
	winner := result.winner

	switch {
	case winner.Card.IsEscapeKind():
		return AllRanAway{WinnerID: winner.PlayerID, Card: winner.Card}
	case winner.Card.Kind == KindSkulking:
		if result.firstMermaid != nil {
			return Won{
				WinnerID:   result.firstMermaid.PlayerID,
				Card:       result.firstMermaid.Card,
				TrickBonus: result.baseBonus + 50,
			}
		}
		return Won{
			WinnerID:   winner.PlayerID,
			Card:       winner.Card,
			TrickBonus: result.baseBonus + 30*result.piratesCount,
		}
	case winner.Card.Kind == KindKraken:
		remainder := make([]PlayedCard, 0, len(field)-1)
		for _, pc := range field {
			if pc.Card.ID != winner.Card.ID {
				remainder = append(remainder, pc)
			}
		}
		suddenDeath := fold(remainder)
		return KrakenAppeared{MustHaveWon: suddenDeath.winner.PlayerID}
	default:
		return Won{
			WinnerID:   winner.PlayerID,
			Card:       winner.Card,
			TrickBonus: result.baseBonus,
		}
	}
}
