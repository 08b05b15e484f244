// Package render 将路网和车辆占用状态输出为ASCII文本
//
//	'.' 非道路      '-' 横向道路      '|' 纵向道路      '+' 路口
//	'N' 'E' 'S' 'W' 单辆车的行驶方向  '*' 同一单元格多辆车
package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
)

// Glyph 返回单元格 (y, x) 对应的字符
func Glyph(mask *element.RoadMask, occ *element.Occupancy, y, x int) byte {
	allowed := mask.At(y, x)
	if allowed == element.NoDirections {
		return '.'
	}

	if occ != nil {
		present := occ.At(y, x)
		switch present.Len() {
		case 0:
		case 1:
			return present.Dirs()[0].String()[0]
		default:
			return '*'
		}
	}

	horizontal := allowed&element.Horizontal != 0
	vertical := allowed&element.Vertical != 0
	switch {
	case horizontal && vertical:
		return '+'
	case horizontal:
		return '-'
	default:
		return '|'
	}
}

// Render 将网格按行写入 w，occ 为 nil 时只输出路网
func Render(w io.Writer, mask *element.RoadMask, occ *element.Occupancy) error {
	bw := bufio.NewWriter(w)
	row := make([]byte, mask.Width()+1)
	row[mask.Width()] = '\n'
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			row[x] = Glyph(mask, occ, y, x)
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String 返回网格的文本表示
func String(mask *element.RoadMask, occ *element.Occupancy) string {
	var sb strings.Builder
	_ = Render(&sb, mask, occ)
	return sb.String()
}
