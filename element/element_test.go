package element

import (
	"math/rand/v2"
	"testing"
)

func TestDirectionTurns(t *testing.T) {
	tests := []struct {
		d                     Direction
		left, right, opposite Direction
	}{
		{North, West, East, South},
		{East, North, South, West},
		{South, East, West, North},
		{West, South, North, East},
	}

	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := tt.d.Left(); got != tt.left {
				t.Errorf("Left() = %s, want %s", got, tt.left)
			}
			if got := tt.d.Right(); got != tt.right {
				t.Errorf("Right() = %s, want %s", got, tt.right)
			}
			if got := tt.d.Opposite(); got != tt.opposite {
				t.Errorf("Opposite() = %s, want %s", got, tt.opposite)
			}
		})
	}
}

func TestDirectionDelta(t *testing.T) {
	want := map[Direction][2]int{
		North: {-1, 0},
		East:  {0, 1},
		South: {1, 0},
		West:  {0, -1},
	}
	for d, w := range want {
		dy, dx := d.Delta()
		if dy != w[0] || dx != w[1] {
			t.Errorf("%s.Delta() = (%d, %d), want (%d, %d)", d, dy, dx, w[0], w[1])
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		if err != nil {
			t.Fatalf("ParseDirection(%q) failed: %v", d.String(), err)
		}
		if got != d {
			t.Errorf("ParseDirection(%q) = %s", d.String(), got)
		}
	}
	if _, err := ParseDirection("X"); err == nil {
		t.Error("Expected error for unknown direction")
	}
}

func TestDirSet(t *testing.T) {
	s := NoDirections.With(West).With(North)
	if !s.Has(North) || !s.Has(West) || s.Has(East) {
		t.Errorf("Unexpected membership for %s", s)
	}
	if s.Len() != 2 {
		t.Errorf("Expected length 2, got %d", s.Len())
	}
	if s.String() != "NW" {
		t.Errorf("Expected NW, got %s", s.String())
	}
	if AllDirs.Len() != 4 {
		t.Errorf("Expected AllDirs to hold 4 directions, got %d", AllDirs.Len())
	}
}

func TestBuildRoads(t *testing.T) {
	mask := BuildRoads(3, 4, []int{1, -1, 3, 99}, []int{2, 4, -5})

	if mask.Height() != 3 || mask.Width() != 4 {
		t.Fatalf("Expected 3x4 mask, got %dx%d", mask.Height(), mask.Width())
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			var want DirSet
			if y == 1 {
				want |= Horizontal
			}
			if x == 2 {
				want |= Vertical
			}
			if got := mask.At(y, x); got != want {
				t.Errorf("Cell (%d, %d) = %s, want %s", y, x, got, want)
			}
		}
	}

	if !mask.IsIntersection(1, 2) {
		t.Error("Expected (1, 2) to be an intersection")
	}
	if mask.IsIntersection(1, 1) || mask.IsIntersection(0, 2) {
		t.Error("Single-axis road cells must not be intersections")
	}
	if mask.NumIntersections() != 1 {
		t.Errorf("Expected 1 intersection, got %d", mask.NumIntersections())
	}
	// 横向 4 个单元格 * 2 + 纵向 3 个单元格 * 2
	if mask.NumLanes() != 14 {
		t.Errorf("Expected 14 lanes, got %d", mask.NumLanes())
	}
}

func TestNewRoadMaskErrors(t *testing.T) {
	if _, err := NewRoadMask(0, 3, nil); err == nil {
		t.Error("Expected error for zero height")
	}
	if _, err := NewRoadMask(1, 3, []DirSet{East.Bit(), East.Bit()}); err == nil {
		t.Error("Expected error for wrong cell count")
	}
	if _, err := NewRoadMask(1, 1, []DirSet{1 << 5}); err == nil {
		t.Error("Expected error for invalid direction bits")
	}

	cells := []DirSet{East.Bit(), AllDirs}
	mask, err := NewRoadMask(1, 2, cells)
	if err != nil {
		t.Fatalf("NewRoadMask failed: %v", err)
	}
	cells[0] = NoDirections
	if mask.At(0, 0) != East.Bit() {
		t.Error("Road mask must not alias the caller's slice")
	}
}

type countingRand struct {
	r     *rand.Rand
	draws int
}

func (c *countingRand) Float64() float64 {
	c.draws++
	return c.r.Float64()
}

func TestSeedVehicles(t *testing.T) {
	mask := BuildRoads(10, 12, []int{2, 7}, []int{1, 5, 11})

	t.Run("density zero", func(t *testing.T) {
		occ := SeedVehicles(mask, 0, rand.New(rand.NewPCG(1, 1)))
		if occ.Count() != 0 {
			t.Errorf("Expected empty grid, got %d vehicles", occ.Count())
		}
	})

	t.Run("density one fills every lane", func(t *testing.T) {
		occ := SeedVehicles(mask, 1, rand.New(rand.NewPCG(1, 1)))
		if occ.Count() != mask.NumLanes() {
			t.Errorf("Expected %d vehicles, got %d", mask.NumLanes(), occ.Count())
		}
		if err := occ.Validate(mask); err != nil {
			t.Errorf("Seeded occupancy invalid: %v", err)
		}
	})

	t.Run("one draw per lane", func(t *testing.T) {
		rng := &countingRand{r: rand.New(rand.NewPCG(3, 3))}
		occ := SeedVehicles(mask, 0.4, rng)
		if rng.draws != mask.NumLanes() {
			t.Errorf("Expected %d draws, got %d", mask.NumLanes(), rng.draws)
		}
		if err := occ.Validate(mask); err != nil {
			t.Errorf("Seeded occupancy invalid: %v", err)
		}
	})

	t.Run("reproducible", func(t *testing.T) {
		a := SeedVehicles(mask, 0.3, rand.New(rand.NewPCG(42, 42)))
		b := SeedVehicles(mask, 0.3, rand.New(rand.NewPCG(42, 42)))
		if !a.Equal(b) {
			t.Error("Same seed produced different occupancies")
		}
	})
}

// scriptedRand 只在第 hit 次抽取时返回 0，其余返回 0.9
type scriptedRand struct {
	hit, draws int
}

func (s *scriptedRand) Float64() float64 {
	defer func() { s.draws++ }()
	if s.draws == s.hit {
		return 0
	}
	return 0.9
}

func TestSeedVehiclesDrawOrder(t *testing.T) {
	mask := BuildRoads(3, 3, []int{1}, []int{1})

	// 行优先单元格，单元格内 N, E, S, W
	order := []struct {
		d    Direction
		y, x int
	}{
		{North, 0, 1}, {South, 0, 1},
		{East, 1, 0}, {West, 1, 0},
		{North, 1, 1}, {East, 1, 1}, {South, 1, 1}, {West, 1, 1},
		{East, 1, 2}, {West, 1, 2},
		{North, 2, 1}, {South, 2, 1},
	}
	if len(order) != mask.NumLanes() {
		t.Fatalf("Expected %d lanes, got %d", mask.NumLanes(), len(order))
	}

	for k, want := range order {
		occ := SeedVehicles(mask, 0.5, &scriptedRand{hit: k})
		if occ.Count() != 1 {
			t.Errorf("draw %d: expected 1 vehicle, got %d", k, occ.Count())
			continue
		}
		if !occ.Get(want.d, want.y, want.x) {
			t.Errorf("draw %d: expected vehicle %s at (%d, %d)", k, want.d, want.y, want.x)
		}
	}
}

func TestOccupancy(t *testing.T) {
	occ := EmptyState(2, 3)
	occ.Set(East, 0, 1, true)
	occ.Set(West, 0, 1, true)
	occ.Set(South, 1, 2, true)

	if occ.Count() != 3 {
		t.Errorf("Expected 3 vehicles, got %d", occ.Count())
	}
	if occ.CountDir(East) != 1 || occ.CountDir(North) != 0 {
		t.Error("Unexpected per-direction counts")
	}
	if got := occ.At(0, 1); got != Horizontal {
		t.Errorf("Expected EW at (0, 1), got %s", got)
	}

	clone := occ.Clone()
	clone.Set(East, 0, 1, false)
	if !occ.Get(East, 0, 1) {
		t.Error("Clone must not alias the original")
	}
	if occ.Equal(clone) {
		t.Error("Expected modified clone to differ")
	}

	mask := BuildRoads(2, 3, []int{0}, nil)
	if err := occ.Validate(mask); err == nil {
		t.Error("Expected validation error for vehicle on non-road lane")
	}
}

func TestLanes(t *testing.T) {
	mask := BuildRoads(3, 3, []int{1}, []int{1})
	lanes := Lanes(mask)
	if len(lanes) != mask.NumLanes() {
		t.Fatalf("Expected %d lanes, got %d", mask.NumLanes(), len(lanes))
	}

	seen := make(map[int64]bool)
	for _, l := range lanes {
		if seen[l.ID()] {
			t.Errorf("Duplicate lane id %d", l.ID())
		}
		seen[l.ID()] = true
		if !mask.Allows(l.Y, l.X, l.Dir) {
			t.Errorf("Lane %s at (%d, %d) not allowed by mask", l.Dir, l.Y, l.X)
		}
		if l.ID() >= ExitNodeID(mask) {
			t.Errorf("Lane id %d collides with exit node", l.ID())
		}
	}
}
