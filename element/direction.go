package element

import "fmt"

// Direction 表示车辆的行驶方向
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// NumDirections 方向总数
const NumDirections = 4

// Directions 固定的方向遍历顺序 (N, E, S, W)
var Directions = [NumDirections]Direction{North, East, South, West}

// PriorityOrder 路口冲突时的优先级顺序
var PriorityOrder = [NumDirections]Direction{North, East, South, West}

// 每个方向的 (dy, dx) 偏移
var deltas = [NumDirections][2]int{
	North: {-1, 0},
	East:  {0, 1},
	South: {1, 0},
	West:  {0, -1},
}

// Delta 返回方向对应的行列偏移
func (d Direction) Delta() (dy, dx int) {
	return deltas[d][0], deltas[d][1]
}

// Left 返回逆时针旋转90度后的方向
func (d Direction) Left() Direction {
	return (d + 3) % NumDirections
}

// Right 返回顺时针旋转90度后的方向
func (d Direction) Right() Direction {
	return (d + 1) % NumDirections
}

// Opposite 返回反方向（掉头）
func (d Direction) Opposite() Direction {
	return (d + 2) % NumDirections
}

// Bit 返回方向在 DirSet 中对应的位
func (d Direction) Bit() DirSet {
	return 1 << d
}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection 将 "N"/"E"/"S"/"W" 解析为方向
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "N", "n":
		return North, nil
	case "E", "e":
		return East, nil
	case "S", "s":
		return South, nil
	case "W", "w":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// DirSet 是方向集合的位掩码，每个方向占一位
type DirSet uint8

const (
	NoDirections DirSet = 0
	Horizontal   DirSet = 1<<East | 1<<West
	Vertical     DirSet = 1<<North | 1<<South
	AllDirs      DirSet = Horizontal | Vertical
)

// Has 判断集合中是否包含方向 d
func (s DirSet) Has(d Direction) bool {
	return s&d.Bit() != 0
}

// With 返回加入方向 d 后的集合
func (s DirSet) With(d Direction) DirSet {
	return s | d.Bit()
}

// Len 返回集合中方向的数量
func (s DirSet) Len() int {
	n := 0
	for _, d := range Directions {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Dirs 按 N, E, S, W 顺序返回集合中的方向
func (s DirSet) Dirs() []Direction {
	dirs := make([]Direction, 0, NumDirections)
	for _, d := range Directions {
		if s.Has(d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (s DirSet) String() string {
	out := make([]byte, 0, NumDirections)
	for _, d := range s.Dirs() {
		out = append(out, d.String()[0])
	}
	return string(out)
}
