package simulator

import (
	"errors"
	"fmt"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/log"
)

// ErrReseedDensity 启用了重新播种但没有配置密度
var ErrReseedDensity = errors.New("reseed enabled without density")

// ReseedConfig 网格车辆清空后的重新播种策略
type ReseedConfig struct {
	Enabled  bool
	Density  *float64
	Announce bool
}

// Options 模拟参数
type Options struct {
	Name   string
	Engine EngineOptions
	Reseed ReseedConfig

	// PrintEvery > 0 时，在 t%PrintEvery==0 的步之前调用 OnTick
	PrintEvery int
	OnTick     func(t int, occ *element.Occupancy)

	// LogEvery > 0 时每隔 LogEvery 步输出一次系统状态
	LogEvery int
}

// Metrics 每步的统计数据
type Metrics struct {
	// VehiclesPerStep 长度为 steps+1，下标0为初始状态
	VehiclesPerStep []int
	// ExitsPerStep 长度为 steps
	ExitsPerStep []int
	// ReseedSteps 触发重新播种的时间步（1..steps）
	ReseedSteps []int
}

// Simulate 从初始状态运行 steps 步
//
// 整个运行只使用一个由 seed 创建的随机数生成器；seed 为 nil 时结果不可复现。
// 启用重新播种时，车辆数在某步之后降为0则立即用同一个随机数流重新生成车辆，
// 该步记录的车辆数为重新播种之后的数量。
func Simulate(mask *element.RoadMask, initial *element.Occupancy, steps int, seed *uint64, opts Options) (*element.Occupancy, Metrics, error) {
	if steps < 0 {
		return nil, Metrics{}, fmt.Errorf("steps must be non-negative, got %d", steps)
	}
	if opts.Reseed.Enabled {
		if opts.Reseed.Density == nil {
			return nil, Metrics{}, ErrReseedDensity
		}
		if d := *opts.Reseed.Density; d < 0 || d > 1 {
			return nil, Metrics{}, fmt.Errorf("reseed density must be in [0,1], got %v", d)
		}
	}
	if err := initial.Validate(mask); err != nil {
		return nil, Metrics{}, fmt.Errorf("initial occupancy: %w", err)
	}

	rng := NewRandFromSeed(seed)
	engine := NewEngine(mask, opts.Engine)
	state := NewSystemState(opts.Name, mask.NumLanes())

	occ := initial
	metrics := Metrics{
		VehiclesPerStep: make([]int, 0, steps+1),
		ExitsPerStep:    make([]int, 0, steps),
	}
	metrics.VehiclesPerStep = append(metrics.VehiclesPerStep, occ.Count())
	state.Update(0, occ.Count(), 0)

	for t := 0; t < steps; t++ {
		if opts.OnTick != nil && opts.PrintEvery > 0 && t%opts.PrintEvery == 0 {
			opts.OnTick(t, occ)
		}

		var exits int
		occ, exits = engine.Step(occ, rng)

		vehicles := occ.Count()
		if opts.Reseed.Enabled && vehicles == 0 {
			occ = element.SeedVehicles(mask, *opts.Reseed.Density, rng)
			vehicles = occ.Count()
			metrics.ReseedSteps = append(metrics.ReseedSteps, t+1)
			if opts.Reseed.Announce {
				log.WriteLog("grid empty, reseeded", "scenario", opts.Name, "tick", t+1, "vehicles", vehicles)
			}
		}

		metrics.ExitsPerStep = append(metrics.ExitsPerStep, exits)
		metrics.VehiclesPerStep = append(metrics.VehiclesPerStep, vehicles)

		state.Update(t+1, vehicles, exits)
		if opts.LogEvery > 0 && (t+1)%opts.LogEvery == 0 {
			state.LogStatus()
		}
	}

	return occ, metrics, nil
}
