package simulator

import "math/rand/v2"

// Rand 是引擎消耗随机数的接口，*rand.Rand 满足该接口
// 同一次模拟中的所有随机消耗（生成车辆、转向、平局裁决）共用一个 Rand
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand 根据种子创建可复现的随机数生成器
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// NewRandFromSeed 种子为 nil 时返回不可复现的随机数生成器
func NewRandFromSeed(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return NewRand(*seed)
}
