package element

// Lane 表示一条车道，即 (方向, 单元格) 对
// 实现 gonum 的 graph.Node 接口，用于构建车道连通图
type Lane struct {
	id  int64
	Dir Direction
	Y   int
	X   int
}

// NewLane 创建车道节点，ID 按 方向*H*W + 行优先下标 计算
func NewLane(mask *RoadMask, d Direction, y, x int) Lane {
	if !mask.InBounds(y, x) {
		panic("lane out of bounds")
	}
	cells := int64(mask.Height() * mask.Width())
	return Lane{
		id:  int64(d)*cells + int64(mask.Index(y, x)),
		Dir: d,
		Y:   y,
		X:   x,
	}
}

// ID 返回车道ID
func (l Lane) ID() int64 {
	return l.id
}

// ExitNodeID 返回表示驶出边界的虚拟节点ID
func ExitNodeID(mask *RoadMask) int64 {
	return int64(NumDirections * mask.Height() * mask.Width())
}

// Lanes 按 N, E, S, W 和行优先顺序返回路网中所有合法车道
func Lanes(mask *RoadMask) []Lane {
	lanes := make([]Lane, 0, mask.NumLanes())
	for _, d := range Directions {
		for y := 0; y < mask.Height(); y++ {
			for x := 0; x < mask.Width(); x++ {
				if mask.Allows(y, x, d) {
					lanes = append(lanes, NewLane(mask, d, y, x))
				}
			}
		}
	}
	return lanes
}
