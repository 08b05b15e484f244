package element

import "fmt"

// Float64Source 提供 [0,1) 均匀分布的随机数，*rand.Rand 满足该接口
type Float64Source interface {
	Float64() float64
}

// Occupancy 按方向分开的四张车辆占用网格
// 同一单元格的不同方向可以同时为 true（多车道/双向道路），这不是碰撞
type Occupancy struct {
	height int
	width  int
	lanes  [NumDirections][]bool
}

// EmptyState 创建四张全为 false 的占用网格
func EmptyState(height, width int) *Occupancy {
	if height <= 0 || width <= 0 {
		panic("height and width must be positive")
	}

	occ := &Occupancy{height: height, width: width}
	for _, d := range Directions {
		occ.lanes[d] = make([]bool, height*width)
	}
	return occ
}

// SeedVehicles 按密度随机生成初始车辆
// 随机数按行优先的单元格顺序、单元格内按 N, E, S, W 顺序消耗，保证可复现。
// 路口单元格同样按 N, E, S, W 抽取，而不是按道路构建时 E, W, N, S 的顺序
func SeedVehicles(mask *RoadMask, density float64, rng Float64Source) *Occupancy {
	occ := EmptyState(mask.Height(), mask.Width())

	for i, allowed := range mask.cells {
		if allowed == NoDirections {
			continue
		}
		for _, d := range Directions {
			if !allowed.Has(d) {
				continue
			}
			if rng.Float64() < density {
				occ.lanes[d][i] = true
			}
		}
	}
	return occ
}

// Height 返回行数
func (o *Occupancy) Height() int {
	return o.height
}

// Width 返回列数
func (o *Occupancy) Width() int {
	return o.width
}

// Get 返回方向 d 在 (y, x) 处是否有车
func (o *Occupancy) Get(d Direction, y, x int) bool {
	return o.lanes[d][y*o.width+x]
}

// Set 设置方向 d 在 (y, x) 处的占用状态
func (o *Occupancy) Set(d Direction, y, x int, v bool) {
	o.lanes[d][y*o.width+x] = v
}

// Lane 返回方向 d 的行优先网格，供引擎做密集扫描
func (o *Occupancy) Lane(d Direction) []bool {
	return o.lanes[d]
}

// At 返回 (y, x) 处有车的方向集合
func (o *Occupancy) At(y, x int) DirSet {
	i := y*o.width + x
	var s DirSet
	for _, d := range Directions {
		if o.lanes[d][i] {
			s = s.With(d)
		}
	}
	return s
}

// Count 返回网格中车辆总数
func (o *Occupancy) Count() int {
	n := 0
	for _, d := range Directions {
		n += o.CountDir(d)
	}
	return n
}

// CountDir 返回方向 d 上的车辆数
func (o *Occupancy) CountDir(d Direction) int {
	n := 0
	for _, v := range o.lanes[d] {
		if v {
			n++
		}
	}
	return n
}

// Clone 返回一份深拷贝
func (o *Occupancy) Clone() *Occupancy {
	c := &Occupancy{height: o.height, width: o.width}
	for _, d := range Directions {
		c.lanes[d] = make([]bool, len(o.lanes[d]))
		copy(c.lanes[d], o.lanes[d])
	}
	return c
}

// Equal 判断两个占用状态是否完全一致
func (o *Occupancy) Equal(other *Occupancy) bool {
	if other == nil || o.height != other.height || o.width != other.width {
		return false
	}
	for _, d := range Directions {
		a, b := o.lanes[d], other.lanes[d]
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Validate 检查占用状态与路网是否一致：只有路网允许的车道才能有车
func (o *Occupancy) Validate(mask *RoadMask) error {
	if o.height != mask.Height() || o.width != mask.Width() {
		return fmt.Errorf("occupancy %dx%d does not match road mask %dx%d", o.height, o.width, mask.Height(), mask.Width())
	}
	for _, d := range Directions {
		for i, v := range o.lanes[d] {
			if v && !mask.cells[i].Has(d) {
				return fmt.Errorf("vehicle in disallowed lane %s at (%d, %d)", d, i/o.width, i%o.width)
			}
		}
	}
	return nil
}
