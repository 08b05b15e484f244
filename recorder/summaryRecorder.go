package recorder

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/simulator"
)

var (
	summaryDataCache [][]string = make([][]string, 0)
	summaryDataMutex sync.Mutex
)

// SummaryHeader 场景汇总CSV表头
var SummaryHeader = []string{
	"RunID", "Scenario", "Steps", "InitialVehicles", "FinalVehicles",
	"TotalExits", "MeanVehicles", "StdVehicles", "MeanExits", "MaxExits", "Reseeds",
}

// RecordSummary 缓存一个场景的汇总数据，多个场景可并发调用
func RecordSummary(runID, scenario string, s simulator.Summary) {
	summaryDataMutex.Lock()
	defer summaryDataMutex.Unlock()
	summaryDataCache = append(summaryDataCache, getSummaryData(runID, scenario, s))
}

func getSummaryData(runID, scenario string, s simulator.Summary) []string {
	return []string{
		runID,
		scenario,
		strconv.Itoa(s.Steps),
		strconv.Itoa(s.InitialVehicles),
		strconv.Itoa(s.FinalVehicles),
		strconv.Itoa(s.TotalExits),
		fmt.Sprintf("%.4f", s.MeanVehicles),
		fmt.Sprintf("%.4f", s.StdVehicles),
		fmt.Sprintf("%.4f", s.MeanExits),
		fmt.Sprintf("%.0f", s.MaxExits),
		strconv.Itoa(s.Reseeds),
	}
}

// InitSummaryCSV 初始化汇总CSV文件
func InitSummaryCSV(filename string) error {
	return initializeCSV(filename, SummaryHeader)
}

// WriteToSummaryCSV 将缓存的汇总数据按场景名排序后追加到文件并清空缓存
// 文件不存在时先写入表头
func WriteToSummaryCSV(filename string) error {
	summaryDataMutex.Lock()
	defer summaryDataMutex.Unlock()
	if len(summaryDataCache) == 0 {
		return nil
	}

	if !fileExists(filename) {
		if err := InitSummaryCSV(filename); err != nil {
			return err
		}
	}

	// 场景并发完成，按场景名排序保证输出稳定
	sort.SliceStable(summaryDataCache, func(i, j int) bool {
		return summaryDataCache[i][1] < summaryDataCache[j][1]
	})
	if err := appendToCSV(filename, summaryDataCache); err != nil {
		return err
	}
	summaryDataCache = make([][]string, 0)
	return nil
}
