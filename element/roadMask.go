package element

import "fmt"

// RoadMask 表示静态路网：每个单元格允许进入的方向集合
// 构建后不可修改
type RoadMask struct {
	height int
	width  int
	cells  []DirSet
}

// BuildRoads 根据横向道路所在行和纵向道路所在列构建路网
// 超出范围的行列索引被忽略
func BuildRoads(height, width int, horizontalRows, verticalCols []int) *RoadMask {
	if height <= 0 || width <= 0 {
		panic("height and width must be positive")
	}

	cells := make([]DirSet, height*width)
	for _, y := range horizontalRows {
		if y < 0 || y >= height {
			continue
		}
		for x := 0; x < width; x++ {
			cells[y*width+x] |= Horizontal
		}
	}
	for _, x := range verticalCols {
		if x < 0 || x >= width {
			continue
		}
		for y := 0; y < height; y++ {
			cells[y*width+x] |= Vertical
		}
	}

	return &RoadMask{height: height, width: width, cells: cells}
}

// NewRoadMask 用任意的单元格方向集合创建路网，cells 按行优先排列
func NewRoadMask(height, width int, cells []DirSet) (*RoadMask, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid road mask dimensions %dx%d", height, width)
	}
	if len(cells) != height*width {
		return nil, fmt.Errorf("road mask %dx%d needs %d cells, got %d", height, width, height*width, len(cells))
	}
	for i, c := range cells {
		if c&^AllDirs != 0 {
			return nil, fmt.Errorf("cell %d has invalid direction bits %04b", i, uint8(c))
		}
	}

	// 复制一份，避免外部修改
	own := make([]DirSet, len(cells))
	copy(own, cells)
	return &RoadMask{height: height, width: width, cells: own}, nil
}

// Height 返回行数
func (m *RoadMask) Height() int {
	return m.height
}

// Width 返回列数
func (m *RoadMask) Width() int {
	return m.width
}

// InBounds 判断坐标是否在网格内
func (m *RoadMask) InBounds(y, x int) bool {
	return y >= 0 && y < m.height && x >= 0 && x < m.width
}

// Index 返回坐标对应的行优先下标
func (m *RoadMask) Index(y, x int) int {
	return y*m.width + x
}

// At 返回单元格允许的方向集合
func (m *RoadMask) At(y, x int) DirSet {
	return m.cells[y*m.width+x]
}

// Allows 判断单元格是否允许方向 d
func (m *RoadMask) Allows(y, x int, d Direction) bool {
	return m.At(y, x).Has(d)
}

// IsRoad 判断单元格是否为道路
func (m *RoadMask) IsRoad(y, x int) bool {
	return m.At(y, x) != NoDirections
}

// IsIntersection 判断单元格是否为路口（四个方向均允许）
func (m *RoadMask) IsIntersection(y, x int) bool {
	return m.At(y, x) == AllDirs
}

// NumLanes 返回路网中所有合法车道 (方向, 单元格) 的数量
func (m *RoadMask) NumLanes() int {
	n := 0
	for _, c := range m.cells {
		n += c.Len()
	}
	return n
}

// NumIntersections 返回路口数量
func (m *RoadMask) NumIntersections() int {
	n := 0
	for _, c := range m.cells {
		if c == AllDirs {
			n++
		}
	}
	return n
}
