package card

import "fmt"

// Color 数字牌花色
type Color byte

const (
	Green Color = iota
	Yellow
	Purple
	Black
)

func (c Color) String() string {
	switch c {
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Purple:
		return "PURPLE"
	case Black:
		return "BLACK"
	}
	return "?"
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "GREEN":
		return Green, nil
	case "YELLOW":
		return Yellow, nil
	case "PURPLE":
		return Purple, nil
	case "BLACK":
		return Black, nil
	}
	return 0, fmt.Errorf("unknown color: %s", s)
}

// Colors 全部花色, 构建牌堆时使用
var Colors = []Color{Green, Yellow, Purple, Black}
