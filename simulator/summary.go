package simulator

import (
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary 一次模拟的汇总统计
type Summary struct {
	Steps           int
	InitialVehicles int
	FinalVehicles   int
	TotalExits      int
	Reseeds         int
	MeanVehicles    float64
	StdVehicles     float64
	MeanExits       float64
	MaxExits        float64
}

// Summarize 根据每步数据计算汇总统计
func Summarize(m Metrics) Summary {
	s := Summary{
		Steps:   len(m.ExitsPerStep),
		Reseeds: len(m.ReseedSteps),
	}

	if n := len(m.VehiclesPerStep); n > 0 {
		vehicles := toFloats(m.VehiclesPerStep)
		s.InitialVehicles = m.VehiclesPerStep[0]
		s.FinalVehicles = m.VehiclesPerStep[n-1]
		if n > 1 {
			s.MeanVehicles, s.StdVehicles = stat.MeanStdDev(vehicles, nil)
		} else {
			s.MeanVehicles = vehicles[0]
		}
	}

	if len(m.ExitsPerStep) > 0 {
		exits := toFloats(m.ExitsPerStep)
		s.TotalExits = m.TotalExits()
		s.MeanExits = stat.Mean(exits, nil)
		s.MaxExits = floats.Max(exits)
	}
	return s
}

func toFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// TotalExits 返回整个运行期间驶出网格的车辆总数
// 启用重新播种时车辆数的减少量不等于驶出数，应以此为准
func (m Metrics) TotalExits() int {
	return lo.Sum(m.ExitsPerStep)
}

// DirectionCounts 按 N, E, S, W 返回各方向的车辆数
func DirectionCounts(occ *element.Occupancy) [element.NumDirections]int {
	var counts [element.NumDirections]int
	for _, d := range element.Directions {
		counts[d] = occ.CountDir(d)
	}
	return counts
}
