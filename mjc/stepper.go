package mjc

import "github.com/goki/mat32"

// Contact is a touching pair of geoms reported for the current step.
// Contacts are recomputed every step and never persisted.
type Contact struct {
	Geom1 int
	Geom2 int
}

// Stepper advances rigid-body state given an actuation command and exposes
// the per-step quantities the episode evaluators read. Implementations are
// single-threaded: a step is one read-modify cycle against the stepper state.
type Stepper interface {
	// Reset restores the initial scene configuration for a new episode.
	Reset()
	// ShiftMocap displaces the mocap-driven body's target position.
	ShiftMocap(delta mat32.Vec3)
	// Step advances the simulation by the given number of frames.
	Step(frames int)
	// BodyPos returns the world position of the body with the given id.
	BodyPos(id int) mat32.Vec3
	// QVel returns the generalized velocities: three base dofs followed by
	// one entry per scene joint.
	QVel() []float64
	// SetState overwrites positions and velocities, as for replaying a
	// recorded configuration.
	SetState(qpos, qvel []float64) error
	// Contacts returns the active contact pairs for the current state.
	Contacts() []Contact
}
