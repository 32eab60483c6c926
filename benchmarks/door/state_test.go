package door

import (
	"testing"

	"github.com/goki/mat32"
)

func TestStateHashBinsPositions(t *testing.T) {
	a := &State{Hand: mat32.Vec3{X: 0.401, Y: 0, Z: 1.0}, Latch: mat32.Vec3{X: 1.55}}
	b := &State{Hand: mat32.Vec3{X: 0.403, Y: 0.002, Z: 1.0}, Latch: mat32.Vec3{X: 1.55}}
	if a.Hash() != b.Hash() {
		t.Errorf("states in the same cell should hash equal")
	}

	c := &State{Hand: mat32.Vec3{X: 0.46, Y: 0, Z: 1.0}, Latch: mat32.Vec3{X: 1.55}}
	if a.Hash() == c.Hash() {
		t.Errorf("states in different cells should hash apart")
	}

	d := &State{Hand: a.Latch, Latch: a.Hand}
	if a.Hash() == d.Hash() {
		t.Errorf("swapping hand and latch should change the hash")
	}
}

func TestBinOfIsMonotoneAcrossZero(t *testing.T) {
	cases := []struct {
		v    float64
		want int
	}{
		{-0.11, -3},
		{-0.06, -2},
		{-0.01, -1},
		{0, 0},
		{0.01, 0},
		{0.06, 1},
		{0.11, 2},
	}
	for _, c := range cases {
		if got := binOf(c.v); got != c.want {
			t.Errorf("binOf(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestDefaultActions(t *testing.T) {
	actions := DefaultActions()
	if len(actions) != 7 {
		t.Fatalf("expected 7 actions, got %d", len(actions))
	}
	seen := make(map[string]bool)
	for _, a := range actions {
		if seen[a.Hash()] {
			t.Errorf("duplicate action hash %s", a.Hash())
		}
		seen[a.Hash()] = true

		pose := a.(*PoseDelta)
		// identity quaternion in the unused orientation slots
		if pose.Delta[3] != 1 || pose.Delta[4] != 0 || pose.Delta[5] != 0 || pose.Delta[6] != 0 {
			t.Errorf("action %s has a non identity orientation", pose.Name)
		}
	}
	if !seen["hold"] {
		t.Errorf("missing hold action")
	}
}
