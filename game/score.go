package game

// Score 某玩家单轮得分
type Score struct {
	Score int `json:"score"`
	Bonus int `json:"bonus"`
}

func (s Score) All() int { return s.Score + s.Bonus }

// ScoreBoard 逐轮累积的计分板, 末尾为最近一轮
type ScoreBoard struct {
	RoundScores []map[string]Score `json:"roundScores"`
}

func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{RoundScores: []map[string]Score{}}
}

func (b *ScoreBoard) AddRoundScore(roundScore map[string]Score) {
	b.RoundScores = append(b.RoundScores, roundScore)
}

func (b *ScoreBoard) LastRoundScore() map[string]Score {
	if len(b.RoundScores) == 0 {
		return nil
	}
	return b.RoundScores[len(b.RoundScores)-1]
}

// Aggregate 各玩家全场合计
func (b *ScoreBoard) Aggregate() map[string]int {
	aggregated := make(map[string]int)
	for _, roundScore := range b.RoundScores {
		for playerID, score := range roundScore {
			aggregated[playerID] += score.All()
		}
	}
	return aggregated
}

// GameWinnerID 合计最高者。平分时不保证取哪一位。
func (b *ScoreBoard) GameWinnerID() string {
	var winnerID string
	var best int
	first := true
	for playerID, total := range b.Aggregate() {
		if first || total > best {
			winnerID = playerID
			best = total
			first = false
		}
	}
	return winnerID
}
