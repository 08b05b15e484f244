package simulator

import (
	"testing"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
)

func occupancyWith(mask *element.RoadMask, vehicles ...lanePos) *element.Occupancy {
	occ := element.EmptyState(mask.Height(), mask.Width())
	for _, v := range vehicles {
		occ.Set(v.d, v.y, v.x, true)
	}
	return occ
}

type lanePos struct {
	d    element.Direction
	y, x int
}

func TestStepConcreteScenario(t *testing.T) {
	mask := element.BuildRoads(3, 3, []int{1}, []int{1})
	occ := occupancyWith(mask,
		lanePos{element.East, 1, 0},
		lanePos{element.South, 0, 1},
	)

	next, exits := Step(mask, occ, NewRand(42))

	if exits != 0 {
		t.Errorf("Expected 0 exits, got %d", exits)
	}
	if next.Count() != 2 {
		t.Errorf("Expected 2 vehicles, got %d", next.Count())
	}
	if n := next.At(1, 1).Len(); n != 1 {
		t.Errorf("Expected exactly one vehicle at the intersection, got %d", n)
	}
	if next.Get(element.East, 1, 0) {
		t.Error("E-moving vehicle should have left (1, 0)")
	}
	if !next.Get(element.South, 0, 1) {
		t.Error("S-moving vehicle should yield at (0, 1) with direction S")
	}
	if occ.Count() != 2 || !occ.Get(element.East, 1, 0) {
		t.Error("Step must not modify its input")
	}
}

func TestStepIntersectionPriority(t *testing.T) {
	mask := element.BuildRoads(3, 3, []int{1}, []int{1})

	for seed := uint64(0); seed < 50; seed++ {
		occ := occupancyWith(mask,
			lanePos{element.North, 2, 1},
			lanePos{element.East, 1, 0},
		)
		next, exits := Step(mask, occ, NewRand(seed))

		if exits != 0 || next.Count() != 2 {
			t.Fatalf("seed %d: expected 2 vehicles and 0 exits, got %d and %d", seed, next.Count(), exits)
		}
		if next.Get(element.North, 2, 1) {
			t.Errorf("seed %d: N-moving vehicle should win the intersection", seed)
		}
		if next.At(1, 1).Len() != 1 {
			t.Errorf("seed %d: expected one vehicle at the intersection", seed)
		}
		if !next.Get(element.East, 1, 0) {
			t.Errorf("seed %d: E-moving vehicle should yield at (1, 0)", seed)
		}
	}
}

func TestStepIntersectionTieBreak(t *testing.T) {
	// (0,1) 为路口，(0,2) 不通行：(0,1) 处的 E 车原地停留，与从 (0,0) 驶入的 E 车同方向竞争
	mask, err := element.NewRoadMask(1, 3, []element.DirSet{
		element.East.Bit(), element.AllDirs, element.NoDirections,
	})
	if err != nil {
		t.Fatalf("NewRoadMask failed: %v", err)
	}

	for _, pick := range []int{0, 1} {
		occ := occupancyWith(mask,
			lanePos{element.East, 0, 0},
			lanePos{element.East, 0, 1},
		)
		rng := &fakeRand{floats: []float64{0.0}, ints: []int{pick}}
		next, exits := Step(mask, occ, rng)

		if exits != 0 || next.Count() != 2 {
			t.Errorf("pick %d: expected 2 vehicles and 0 exits, got %d and %d", pick, next.Count(), exits)
		}
		if !next.Get(element.East, 0, 0) || !next.Get(element.East, 0, 1) {
			t.Errorf("pick %d: both vehicles should keep their lanes", pick)
		}
		if rng.ii != 1 {
			t.Errorf("pick %d: expected one tie-break draw, got %d", pick, rng.ii)
		}
	}
}

func TestStepLaneMerge(t *testing.T) {
	// (0,1) 处的车目标 (0,2) 不支持 E，原地停留；(0,0) 处的车想进入同一车道
	mask, err := element.NewRoadMask(1, 3, []element.DirSet{
		element.East.Bit(), element.East.Bit(), element.NoDirections,
	})
	if err != nil {
		t.Fatalf("NewRoadMask failed: %v", err)
	}

	for _, pick := range []int{0, 1} {
		occ := occupancyWith(mask,
			lanePos{element.East, 0, 0},
			lanePos{element.East, 0, 1},
		)
		rng := &fakeRand{ints: []int{pick}}
		next, exits := Step(mask, occ, rng)

		if exits != 0 || next.Count() != 2 {
			t.Errorf("pick %d: expected 2 vehicles and 0 exits, got %d and %d", pick, next.Count(), exits)
		}
		if !next.Get(element.East, 0, 1) {
			t.Errorf("pick %d: merge lane should hold exactly one vehicle", pick)
		}
		if !next.Get(element.East, 0, 0) {
			t.Errorf("pick %d: loser should stay at its origin", pick)
		}
		if rng.ii != 1 {
			t.Errorf("pick %d: expected one tie-break draw, got %d", pick, rng.ii)
		}
	}
}

func TestStepOppositeLanesShareCell(t *testing.T) {
	mask := element.BuildRoads(1, 5, []int{0}, nil)

	tests := []struct {
		name     string
		conflict ConflictPolicy
		moved    bool
	}{
		{"lane merge grants both lanes", ConflictLaneMerge, true},
		{"block all holds both", ConflictBlockAll, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := occupancyWith(mask,
				lanePos{element.East, 0, 1},
				lanePos{element.West, 0, 3},
			)
			opts := DefaultEngineOptions()
			opts.Conflict = tt.conflict
			next, _ := NewEngine(mask, opts).Step(occ, NewRand(1))

			if next.Count() != 2 {
				t.Fatalf("Expected 2 vehicles, got %d", next.Count())
			}
			if got := next.At(0, 2) == element.Horizontal; got != tt.moved {
				t.Errorf("Both vehicles at (0, 2) = %v, want %v", got, tt.moved)
			}
			if got := next.Get(element.East, 0, 1) && next.Get(element.West, 0, 3); got == tt.moved {
				t.Errorf("Both vehicles at origin = %v, want %v", got, !tt.moved)
			}
		})
	}
}

func TestStepBoundary(t *testing.T) {
	mask := element.BuildRoads(3, 3, nil, []int{1})

	t.Run("sink", func(t *testing.T) {
		occ := occupancyWith(mask, lanePos{element.South, 2, 1})
		next, exits := Step(mask, occ, NewRand(1))
		if exits != 1 {
			t.Errorf("Expected 1 exit, got %d", exits)
		}
		if next.Count() != 0 {
			t.Errorf("Expected empty grid, got %d vehicles", next.Count())
		}
	})

	t.Run("hold", func(t *testing.T) {
		occ := occupancyWith(mask,
			lanePos{element.South, 2, 1},
			lanePos{element.South, 1, 1},
		)
		opts := DefaultEngineOptions()
		opts.Boundary = BoundaryHold
		next, exits := NewEngine(mask, opts).Step(occ, NewRand(1))
		if exits != 0 {
			t.Errorf("Expected 0 exits, got %d", exits)
		}
		if !next.Get(element.South, 2, 1) || !next.Get(element.South, 1, 1) {
			t.Error("Expected both vehicles to stay in place behind the boundary")
		}
	})
}

func TestStepYieldBlocksFollower(t *testing.T) {
	// 相邻路口 (1,1) 与 (2,1)：A 在 (1,1) 向 S 行驶，与从 (3,1) 北上的 C 争夺 (2,1)，N 优先；
	// B 从 (1,0) 驶入 (1,1) 并右转为 S，但 A 原地等待占据了该车道，B 必须退回
	mask := element.BuildRoads(4, 3, []int{1, 2}, []int{1})
	occ := occupancyWith(mask,
		lanePos{element.North, 3, 1}, // C
		lanePos{element.East, 1, 0},  // B
		lanePos{element.South, 1, 1}, // A
	)
	// 抽取顺序：C 直行，B 右转，A 直行
	rng := &fakeRand{floats: []float64{0.0, 0.9, 0.0}}

	next, exits := Step(mask, occ, rng)

	if exits != 0 {
		t.Errorf("Expected 0 exits, got %d", exits)
	}
	if next.Count() != 3 {
		t.Fatalf("Expected 3 vehicles, got %d", next.Count())
	}
	if !next.Get(element.North, 2, 1) {
		t.Error("C should win (2, 1)")
	}
	if !next.Get(element.South, 1, 1) {
		t.Error("A should yield at (1, 1)")
	}
	if !next.Get(element.East, 1, 0) {
		t.Error("B should be sent back to (1, 0)")
	}
}

func TestStepConservation(t *testing.T) {
	// 相邻的横向和纵向道路制造大量相邻路口
	mask := element.BuildRoads(15, 15, []int{0, 3, 4, 7, 14}, []int{0, 1, 5, 9, 14})

	tests := []struct {
		name string
		opts EngineOptions
	}{
		{"default", DefaultEngineOptions()},
		{"block all", EngineOptions{Turn: DefaultTurnProbabilities, Conflict: ConflictBlockAll}},
		{"hold boundary", EngineOptions{Turn: DefaultTurnProbabilities, Boundary: BoundaryHold}},
		{"uturn heavy", EngineOptions{Turn: TurnProbabilities{Straight: 0.25, Left: 0.25, Right: 0.25, UTurn: 0.25}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := NewRand(99)
			occ := element.SeedVehicles(mask, 0.5, rng)
			engine := NewEngine(mask, tt.opts)

			for tick := 0; tick < 200; tick++ {
				before := occ.Count()
				next, exits := engine.Step(occ, rng)
				after := next.Count()

				if before-after-exits != 0 {
					t.Fatalf("tick %d: before %d, after %d, exits %d", tick, before, after, exits)
				}
				if tt.opts.Boundary == BoundaryHold && exits != 0 {
					t.Fatalf("tick %d: hold boundary reported %d exits", tick, exits)
				}
				if err := next.Validate(mask); err != nil {
					t.Fatalf("tick %d: %v", tick, err)
				}
				occ = next
			}
		})
	}
}

func TestEngineReuseMatchesFreshEngine(t *testing.T) {
	mask := element.BuildRoads(10, 10, []int{2, 6}, []int{3, 7})
	occ := element.SeedVehicles(mask, 0.4, NewRand(5))

	reused := NewEngine(mask, DefaultEngineOptions())
	rngA, rngB := NewRand(11), NewRand(11)
	a, b := occ, occ
	for tick := 0; tick < 50; tick++ {
		var exitsA, exitsB int
		a, exitsA = reused.Step(a, rngA)
		b, exitsB = NewEngine(mask, DefaultEngineOptions()).Step(b, rngB)
		if exitsA != exitsB || !a.Equal(b) {
			t.Fatalf("tick %d: reused engine diverged from a fresh engine", tick)
		}
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseConflictPolicy("block"); err != nil || p != ConflictBlockAll {
		t.Errorf("ParseConflictPolicy(block) = %v, %v", p, err)
	}
	if p, err := ParseConflictPolicy(""); err != nil || p != ConflictLaneMerge {
		t.Errorf("ParseConflictPolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParseConflictPolicy("x"); err == nil {
		t.Error("Expected error for unknown conflict policy")
	}
	if p, err := ParseBoundaryPolicy("hold"); err != nil || p != BoundaryHold {
		t.Errorf("ParseBoundaryPolicy(hold) = %v, %v", p, err)
	}
	if _, err := ParseBoundaryPolicy("wrap"); err == nil {
		t.Error("Expected error for unknown boundary policy")
	}
}
