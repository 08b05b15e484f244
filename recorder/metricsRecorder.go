package recorder

import (
	"fmt"
	"strconv"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/simulator"
)

// MetricsHeader 每步数据的CSV表头
var MetricsHeader = []string{"t", "vehicles", "exits"}

// MetricsRows 将每步数据转换为CSV行
// vehicles 覆盖 t=0..steps，exits 覆盖 t=1..steps，t=0 的驶出数记为0
func MetricsRows(m simulator.Metrics) [][]string {
	rows := make([][]string, 0, len(m.VehiclesPerStep))
	for t, vehicles := range m.VehiclesPerStep {
		exits := 0
		if t > 0 && t-1 < len(m.ExitsPerStep) {
			exits = m.ExitsPerStep[t-1]
		}
		rows = append(rows, []string{
			strconv.Itoa(t),
			strconv.Itoa(vehicles),
			strconv.Itoa(exits),
		})
	}
	return rows
}

// WriteMetricsCSV 将一次模拟的每步数据写入 filename
func WriteMetricsCSV(filename string, m simulator.Metrics) error {
	if err := initializeCSV(filename, MetricsHeader); err != nil {
		return err
	}
	if err := appendToCSV(filename, MetricsRows(m)); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
