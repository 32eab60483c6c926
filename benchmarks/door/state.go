package door

import (
	"fmt"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/util"
	"github.com/goki/mat32"
)

// hashBin is the edge length, in meters, of the position cells used to
// hash states. Tabular policies learn over these cells.
const hashBin = 0.05

// State is the per-step observation: the world positions of the hand and
// latch bodies, hand first.
type State struct {
	Hand  mat32.Vec3
	Latch mat32.Vec3
}

var _ core.State = &State{}

// Observation flattens the state into the 6-value observation vector.
func (s *State) Observation() []float64 {
	return []float64{
		float64(s.Hand.X), float64(s.Hand.Y), float64(s.Hand.Z),
		float64(s.Latch.X), float64(s.Latch.Y), float64(s.Latch.Z),
	}
}

// Hash identifies the position cell the state falls in.
func (s *State) Hash() string {
	obs := s.Observation()
	bins := make([]int, len(obs))
	for i, v := range obs {
		bins[i] = binOf(v)
	}
	return util.JsonHash(bins)
}

func binOf(v float64) int {
	if v < 0 {
		return int(v/hashBin) - 1
	}
	return int(v / hashBin)
}

func (s *State) Actions() []core.Action {
	return DefaultActions()
}

func (s *State) String() string {
	return fmt.Sprintf(
		"hand (%.3f, %.3f, %.3f) latch (%.3f, %.3f, %.3f)",
		s.Hand.X, s.Hand.Y, s.Hand.Z,
		s.Latch.X, s.Latch.Y, s.Latch.Z,
	)
}
