package card

// Battle 判定 self 对抗后出的 next 之后是否仍然保持场上领先。
// 不可交换: 结算时从先手到后手逐张折叠。
func Battle(self, next Card) bool {
	if self.tigressAsPirates() {
		return piratesBattle(next)
	}
	if self.IsEscapeKind() {
		return escapeBattle(next)
	}

	switch self.Kind {
	case KindNumber:
		return numberBattle(self, next)
	case KindPirates, KindRoiseDLaney, KindBahijTheBandit,
		KindRascalOfRoatan, KindJuanitaJade, KindHarryTheGiant:
		return piratesBattle(next)
	case KindTigress:
		// 未宣言的 Tigress 不应出现在场上
		return false
	case KindSkulking:
		return next.Kind != KindMermaid && next.Kind != KindKraken
	case KindMermaid:
		// 宣言为海盗的 Tigress 不算海盗系, 压不住美人鱼
		return !(next.Kind == KindSkulking || next.IsPiratesKind() || next.Kind == KindKraken)
	case KindKraken:
		return true
	}
	return false
}

func numberBattle(self, next Card) bool {
	switch next.Kind {
	case KindNumber:
		if self.Color == next.Color {
			return self.Number > next.Number
		}
		// 黑色压制其它颜色; 颜色不同且后手非黑则不构成超越
		if self.Color != Black && next.Color == Black {
			return false
		}
		return true
	case KindTigress:
		return next.AsPirates != nil && !*next.AsPirates
	case KindEscape:
		return true
	}
	return false
}

func piratesBattle(next Card) bool {
	return next.Kind != KindSkulking && next.Kind != KindKraken
}

func escapeBattle(next Card) bool {
	if next.Kind == KindEscape {
		return true
	}
	if next.Kind == KindTigress {
		return next.AsPirates != nil && !*next.AsPirates
	}
	return false
}
