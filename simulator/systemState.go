package simulator

import (
	"sync"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/log"
)

// SystemState 缓存并管理系统状态信息
// 包括当前时间步、车辆数、驶出数和车道密度
type SystemState struct {
	name       string
	lanes      int
	tick       int
	vehicles   int
	exits      int
	totalExits int
	density    float64
	mu         sync.RWMutex // 保护并发访问
}

// NewSystemState 创建一个新的系统状态对象，lanes 为路网合法车道总数
func NewSystemState(name string, lanes int) *SystemState {
	return &SystemState{name: name, lanes: lanes}
}

// Update 更新系统状态
func (s *SystemState) Update(tick, vehicles, exits int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick = tick
	s.vehicles = vehicles
	s.exits = exits
	s.totalExits += exits
	if s.lanes > 0 {
		s.density = float64(vehicles) / float64(s.lanes)
	} else {
		s.density = 0
	}
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log.WriteLog("status",
		"scenario", s.name,
		"tick", s.tick,
		"vehicles", s.vehicles,
		"exits", s.exits,
		"totalExits", s.totalExits,
		"density", s.density,
	)
}

// GetVehicles 返回当前车辆数
func (s *SystemState) GetVehicles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vehicles
}

// GetTotalExits 返回累计驶出数
func (s *SystemState) GetTotalExits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalExits
}

// GetDensity 返回当前车道占用密度
func (s *SystemState) GetDensity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.density
}
