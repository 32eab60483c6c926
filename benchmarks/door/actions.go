package door

import "github.com/armlab/door-rl-testing/core"

// PoseDelta is a commanded end effector pose displacement: three translation
// components followed by a wxyz orientation quaternion. The orientation
// components are carried but not applied.
type PoseDelta struct {
	Name  string
	Delta [7]float64
}

var _ core.Action = &PoseDelta{}

func (a *PoseDelta) Hash() string {
	return a.Name
}

func (a *PoseDelta) String() string {
	return "PoseDelta: " + a.Name
}

// DefaultActions is the discrete command set the tabular policies choose
// from: a unit displacement along each axis in both directions, plus hold.
// The identity quaternion fills the unused orientation components.
func DefaultActions() []core.Action {
	return []core.Action{
		&PoseDelta{Name: "+x", Delta: [7]float64{1, 0, 0, 1, 0, 0, 0}},
		&PoseDelta{Name: "-x", Delta: [7]float64{-1, 0, 0, 1, 0, 0, 0}},
		&PoseDelta{Name: "+y", Delta: [7]float64{0, 1, 0, 1, 0, 0, 0}},
		&PoseDelta{Name: "-y", Delta: [7]float64{0, -1, 0, 1, 0, 0, 0}},
		&PoseDelta{Name: "+z", Delta: [7]float64{0, 0, 1, 1, 0, 0, 0}},
		&PoseDelta{Name: "-z", Delta: [7]float64{0, 0, -1, 1, 0, 0, 0}},
		&PoseDelta{Name: "hold", Delta: [7]float64{0, 0, 0, 1, 0, 0, 0}},
	}
}
