package simulator

import (
	"fmt"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
)

// ConflictPolicy 非路口单元格多车冲突的处理方式
type ConflictPolicy int

const (
	// ConflictLaneMerge 按驶出车道分组，每条车道随机放行一辆
	ConflictLaneMerge ConflictPolicy = iota
	// ConflictBlockAll 只要候选多于一辆，全部原地等待
	ConflictBlockAll
)

// ParseConflictPolicy 解析 "lane" / "block"
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "lane":
		return ConflictLaneMerge, nil
	case "block":
		return ConflictBlockAll, nil
	}
	return 0, fmt.Errorf("unknown conflict policy %q", s)
}

func (p ConflictPolicy) String() string {
	if p == ConflictBlockAll {
		return "block"
	}
	return "lane"
}

// BoundaryPolicy 车辆到达网格边界时的处理方式
type BoundaryPolicy int

const (
	// BoundarySink 驶出网格的车辆消失并计入驶出数
	BoundarySink BoundaryPolicy = iota
	// BoundaryHold 车辆停在边界单元格不驶出
	BoundaryHold
)

// ParseBoundaryPolicy 解析 "sink" / "hold"
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "", "sink":
		return BoundarySink, nil
	case "hold":
		return BoundaryHold, nil
	}
	return 0, fmt.Errorf("unknown boundary policy %q", s)
}

func (p BoundaryPolicy) String() string {
	if p == BoundaryHold {
		return "hold"
	}
	return "sink"
}

// EngineOptions 单步引擎参数
type EngineOptions struct {
	Turn     TurnProbabilities
	Conflict ConflictPolicy
	Boundary BoundaryPolicy
}

// DefaultEngineOptions 返回默认参数
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Turn:     DefaultTurnProbabilities,
		Conflict: ConflictLaneMerge,
		Boundary: BoundarySink,
	}
}

// request 一个时间步内的移动请求
type request struct {
	origin   int // 起点单元格下标
	incoming element.Direction
	outgoing element.Direction
}

// move 获准的移动，from/to 为车道槽位 (方向*cells + 单元格下标)
type move struct {
	from     int
	to       int
	reverted bool
}

// Engine 元胞自动机单步引擎
// 请求按目标单元格下标存放在可复用的数组中，避免每步重新分配
type Engine struct {
	mask  *element.RoadMask
	opts  EngineOptions
	cells int

	buckets [][]request
	touched []int

	moves []move
	claim []int32 // 槽位 -> 获准移动下标，-1 表示无
	held  []bool  // 原地停留的槽位
	queue []int
	group []int
}

// NewEngine 创建单步引擎
func NewEngine(mask *element.RoadMask, opts EngineOptions) *Engine {
	cells := mask.Height() * mask.Width()
	claim := make([]int32, element.NumDirections*cells)
	for i := range claim {
		claim[i] = -1
	}
	return &Engine{
		mask:    mask,
		opts:    opts,
		cells:   cells,
		buckets: make([][]request, cells),
		claim:   claim,
		held:    make([]bool, element.NumDirections*cells),
	}
}

// Mask 返回引擎使用的路网
func (e *Engine) Mask() *element.RoadMask {
	return e.mask
}

// Step 是包级便捷函数，使用默认参数执行一步
func Step(mask *element.RoadMask, occ *element.Occupancy, rng Rand) (*element.Occupancy, int) {
	return NewEngine(mask, DefaultEngineOptions()).Step(occ, rng)
}

// Step 执行一个时间步，返回新的占用状态和本步驶出网格的车辆数
// 输入的 occ 不会被修改
func (e *Engine) Step(occ *element.Occupancy, rng Rand) (*element.Occupancy, int) {
	h, w := e.mask.Height(), e.mask.Width()
	if occ.Height() != h || occ.Width() != w {
		panic("occupancy does not match road mask")
	}
	e.reset()

	// 1) 生成请求：方向 N,E,S,W，然后按行优先扫描
	exits := 0
	for _, d := range element.Directions {
		dy, dx := d.Delta()
		lane := occ.Lane(d)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if !lane[i] {
					continue
				}

				ny, nx := y+dy, x+dx
				if !e.mask.InBounds(ny, nx) {
					if e.opts.Boundary == BoundaryHold {
						e.add(i, request{origin: i, incoming: d, outgoing: d})
						continue
					}
					exits++
					continue
				}

				// 目标单元格不支持该方向，原地停留
				if !e.mask.Allows(ny, nx, d) {
					e.add(i, request{origin: i, incoming: d, outgoing: d})
					continue
				}

				out := d
				if e.mask.IsIntersection(ny, nx) {
					out = ChooseTurn(e.mask, ny, nx, d, rng, e.opts.Turn)
				}
				e.add(ny*w+nx, request{origin: i, incoming: d, outgoing: out})
			}
		}
	}

	// 2) 按目标单元格首次出现的顺序解决冲突
	for _, t := range e.touched {
		cands := e.buckets[t]
		switch {
		case len(cands) == 1:
			e.grant(t, cands[0])
		case e.mask.IsIntersection(t/w, t%w):
			e.resolveIntersection(t, cands, rng)
		default:
			e.resolveLanes(t, cands, rng)
		}
	}

	e.repair()
	return e.collect(), exits
}

func (e *Engine) reset() {
	for _, t := range e.touched {
		e.buckets[t] = e.buckets[t][:0]
	}
	e.touched = e.touched[:0]

	for _, m := range e.moves {
		e.claim[m.to] = -1
	}
	e.moves = e.moves[:0]
	clear(e.held)
}

func (e *Engine) add(target int, r request) {
	if len(e.buckets[target]) == 0 {
		e.touched = append(e.touched, target)
	}
	e.buckets[target] = append(e.buckets[target], r)
}

func (e *Engine) slot(d element.Direction, cell int) int {
	return int(d)*e.cells + cell
}

// grant 车辆进入目标单元格的 outgoing 车道
func (e *Engine) grant(target int, r request) {
	from := e.slot(r.incoming, r.origin)
	to := e.slot(r.outgoing, target)
	if from == to {
		e.held[from] = true
		return
	}
	e.claim[to] = int32(len(e.moves))
	e.moves = append(e.moves, move{from: from, to: to})
}

// yield 车辆留在原单元格的原车道
func (e *Engine) yield(r request) {
	e.held[e.slot(r.incoming, r.origin)] = true
}

// resolveIntersection 按优先级选出唯一放行车辆，同方向多辆时随机选一辆
func (e *Engine) resolveIntersection(target int, cands []request, rng Rand) {
	for _, p := range element.PriorityOrder {
		e.group = e.group[:0]
		for k, c := range cands {
			if c.incoming == p {
				e.group = append(e.group, k)
			}
		}
		if len(e.group) == 0 {
			continue
		}

		winner := e.group[0]
		if len(e.group) > 1 {
			winner = e.group[rng.IntN(len(e.group))]
		}
		for k, c := range cands {
			if k == winner {
				e.grant(target, c)
			} else {
				e.yield(c)
			}
		}
		return
	}
}

// resolveLanes 非路口单元格：按驶出车道分组，每组放行一辆
func (e *Engine) resolveLanes(target int, cands []request, rng Rand) {
	if e.opts.Conflict == ConflictBlockAll {
		for _, c := range cands {
			e.yield(c)
		}
		return
	}

	var seen element.DirSet
	for _, first := range cands {
		lane := first.outgoing
		if seen.Has(lane) {
			continue
		}
		seen = seen.With(lane)

		e.group = e.group[:0]
		for k, c := range cands {
			if c.outgoing == lane {
				e.group = append(e.group, k)
			}
		}

		winner := e.group[0]
		if len(e.group) > 1 {
			winner = e.group[rng.IntN(len(e.group))]
		}
		for _, k := range e.group {
			if k == winner {
				e.grant(target, cands[k])
			} else {
				e.yield(cands[k])
			}
		}
	}
}

// repair 获准移动的目标车道若被原地等待的车辆占据，则该移动撤回到起点，
// 撤回会级联到占用其起点车道的其他移动，保证车辆不丢失也不重复
func (e *Engine) repair() {
	e.queue = e.queue[:0]
	for k, m := range e.moves {
		if e.held[m.to] {
			e.queue = append(e.queue, k)
		}
	}

	for len(e.queue) > 0 {
		k := e.queue[len(e.queue)-1]
		e.queue = e.queue[:len(e.queue)-1]

		m := &e.moves[k]
		if m.reverted {
			continue
		}
		m.reverted = true
		e.claim[m.to] = -1
		e.held[m.from] = true
		if j := e.claim[m.from]; j >= 0 {
			e.queue = append(e.queue, int(j))
		}
	}
}

// collect 将本步结果写入新分配的占用网格
func (e *Engine) collect() *element.Occupancy {
	next := element.EmptyState(e.mask.Height(), e.mask.Width())
	for _, d := range element.Directions {
		lane := next.Lane(d)
		base := int(d) * e.cells
		for i := range lane {
			lane[i] = e.held[base+i]
		}
	}
	for _, m := range e.moves {
		if m.reverted {
			continue
		}
		d := element.Direction(m.to / e.cells)
		next.Lane(d)[m.to%e.cells] = true
	}
	return next
}
