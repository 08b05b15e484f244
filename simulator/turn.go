package simulator

import "github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"

// TurnProbabilities 路口转向概率
// 不要求总和为1，累计阈值 >= 1 时后面的分支不会被选中
type TurnProbabilities struct {
	Straight float64
	Left     float64
	Right    float64
	UTurn    float64
}

// DefaultTurnProbabilities 默认转向概率：直行 0.70，左转 0.13，右转 0.13，掉头 0.04
var DefaultTurnProbabilities = TurnProbabilities{
	Straight: 0.70,
	Left:     0.13,
	Right:    0.13,
	UTurn:    0.04,
}

// ChooseTurn 在路口 (y, x) 为从 incoming 方向驶入的车辆选择驶出方向
//
// 抽取一个随机数 r 按累计阈值选出首选方向，然后按
// [首选, 直行, 左转, 右转, 掉头] 顺序返回第一个路网允许的方向（首选与其后某项重复不影响结果）。
// 都不允许时返回 incoming。
func ChooseTurn(mask *element.RoadMask, y, x int, incoming element.Direction, rng Rand, p TurnProbabilities) element.Direction {
	allowed := mask.At(y, x)

	straight := incoming
	left := incoming.Left()
	right := incoming.Right()
	uturn := incoming.Opposite()

	r := rng.Float64()
	var preferred element.Direction
	switch {
	case r < p.Straight:
		preferred = straight
	case r < p.Straight+p.Left:
		preferred = left
	case r < p.Straight+p.Left+p.Right:
		preferred = right
	default:
		preferred = uturn
	}

	for _, c := range [...]element.Direction{preferred, straight, left, right, uturn} {
		if allowed.Has(c) {
			return c
		}
	}
	return incoming
}
