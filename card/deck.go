package card

import (
	"math/rand"
	"strconv"
)

// StandardDeck 标准牌堆: 56 数字 + 5 逃跑 + 5 海盗 + Tigress + Skulking
func StandardDeck() []Card {
	deck := allNumberCards()
	for i := 0; i < 5; i++ {
		deck = append(deck, Card{ID: escapeID(i), Kind: KindEscape})
	}
	for i := 0; i < 5; i++ {
		deck = append(deck, Card{ID: piratesID(i), Kind: KindPirates})
	}
	deck = append(deck,
		Card{ID: "tigress", Kind: KindTigress},
		Card{ID: "skulking", Kind: KindSkulking},
	)
	return deck
}

// ExpansionDeck 扩展牌堆: 数字 + 5 逃跑 + 2 美人鱼 + 5 具名海盗 + Tigress + Skulking + Kraken
func ExpansionDeck() []Card {
	deck := allNumberCards()
	for i := 0; i < 5; i++ {
		deck = append(deck, Card{ID: escapeID(i), Kind: KindEscape})
	}
	for i := 0; i < 2; i++ {
		deck = append(deck, Card{ID: mermaidID(i), Kind: KindMermaid})
	}
	deck = append(deck,
		Card{ID: "roiseDLaney", Kind: KindRoiseDLaney},
		Card{ID: "bahijTheBandit", Kind: KindBahijTheBandit},
		Card{ID: "rascalOfRoatan", Kind: KindRascalOfRoatan},
		Card{ID: "juanitaJade", Kind: KindJuanitaJade},
		Card{ID: "harryTheGiant", Kind: KindHarryTheGiant},
		Card{ID: "tigress", Kind: KindTigress},
		Card{ID: "skulking", Kind: KindSkulking},
		Card{ID: "kraken", Kind: KindKraken},
	)
	return deck
}

func allNumberCards() []Card {
	cards := make([]Card, 0, 4*MaxNumber)
	for _, color := range Colors {
		for n := 1; n <= MaxNumber; n++ {
			cards = append(cards, NewNumber(color, n))
		}
	}
	return cards
}

// Shuffle 就地洗牌
func Shuffle(deck []Card) {
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

func escapeID(i int) string  { return "escape:" + strconv.Itoa(i) }
func piratesID(i int) string { return "pirates:" + strconv.Itoa(i) }
func mermaidID(i int) string { return "mermaid:" + strconv.Itoa(i) }
