package mjc

import (
	"fmt"
	"math/rand"

	"github.com/goki/mat32"
)

// BaseDofs is the number of generalized velocity entries ahead of the scene
// joints: the three translational dofs of the mobile base.
const BaseDofs = 3

const (
	simTimestep = 0.002
	trackGain   = 0.2
	jointDamp   = 0.95
	jointGain   = 0.5
	resetNoise  = 0.01
)

// Sim is a kinematic stepper over a Scene. The mocap body tracks its target
// position first order, joint velocities damp toward zero between actuation
// commands, and contacts come from bounding sphere overlap. It is not a
// dynamics engine; it supplies the body positions, velocities and contact
// pairs the episode evaluators consume.
type Sim struct {
	scene *Scene
	rng   *rand.Rand

	nv   int
	qpos []float64
	qvel []float64

	initQPos []float64

	mocapBody  int
	mocapInit  mat32.Vec3
	mocapPos   mat32.Vec3
	mocapDelta mat32.Vec3
	underMocap []bool
}

var _ Stepper = &Sim{}

// NewSim builds a stepper for the scene. The scene must contain exactly one
// mocap body to receive actuation commands.
func NewSim(scene *Scene, seed int64) (*Sim, error) {
	mocap := -1
	for _, b := range scene.Bodies {
		if b.Mocap {
			if mocap >= 0 {
				return nil, fmt.Errorf("scene %q has more than one mocap body", scene.Model)
			}
			mocap = b.ID
		}
	}
	if mocap < 0 {
		return nil, fmt.Errorf("scene %q has no mocap body", scene.Model)
	}

	nv := BaseDofs + scene.NumJoints()
	s := &Sim{
		scene:      scene,
		rng:        rand.New(rand.NewSource(seed)),
		nv:         nv,
		qpos:       make([]float64, nv),
		qvel:       make([]float64, nv),
		initQPos:   make([]float64, nv),
		mocapBody:  mocap,
		mocapInit:  scene.Bodies[mocap].Pos,
		underMocap: make([]bool, scene.NumBodies()),
	}
	for _, b := range scene.Bodies {
		s.underMocap[b.ID] = s.isUnderMocap(b.ID)
	}
	s.Reset()
	return s, nil
}

func (s *Sim) isUnderMocap(body int) bool {
	for id := body; id >= 0; id = s.scene.Bodies[id].Parent {
		if id == s.mocapBody {
			return true
		}
	}
	return false
}

// Reset restores the initial configuration with uniform noise in
// [-resetNoise, resetNoise] on positions and velocities.
func (s *Sim) Reset() {
	for i := 0; i < s.nv; i++ {
		s.qpos[i] = s.initQPos[i] + s.uniform()
		s.qvel[i] = s.uniform()
	}
	s.mocapPos = s.mocapInit
	s.mocapDelta = mat32.Vec3{}
}

func (s *Sim) uniform() float64 {
	return s.rng.Float64()*2*resetNoise - resetNoise
}

// ShiftMocap displaces the mocap target and excites the joint velocities in
// proportion to the commanded displacement.
func (s *Sim) ShiftMocap(delta mat32.Vec3) {
	s.mocapPos = s.mocapPos.Add(delta)
	excite := float64(delta.Length()) * jointGain
	for i := BaseDofs; i < s.nv; i++ {
		s.qvel[i] += excite
	}
}

// Step advances the simulation by frames timesteps.
func (s *Sim) Step(frames int) {
	for f := 0; f < frames; f++ {
		cur := s.mocapInit.Add(s.mocapDelta)
		move := s.mocapPos.Sub(cur).MulScalar(trackGain)
		s.mocapDelta = s.mocapDelta.Add(move)

		s.qvel[0] = float64(move.X) / simTimestep
		s.qvel[1] = float64(move.Y) / simTimestep
		s.qvel[2] = float64(move.Z) / simTimestep

		for i := BaseDofs; i < s.nv; i++ {
			s.qvel[i] *= jointDamp
			s.qpos[i] += s.qvel[i] * simTimestep
		}
	}
}

// BodyPos returns the world position of the body. Bodies in the mocap
// subtree move with the mocap target, all others stay at their scene pose.
func (s *Sim) BodyPos(id int) mat32.Vec3 {
	pos := s.scene.Bodies[id].Pos
	if s.underMocap[id] {
		pos = pos.Add(s.mocapDelta)
	}
	return pos
}

// QVel returns a copy of the generalized velocities.
func (s *Sim) QVel() []float64 {
	out := make([]float64, s.nv)
	copy(out, s.qvel)
	return out
}

// SetState overwrites positions and velocities.
func (s *Sim) SetState(qpos, qvel []float64) error {
	if len(qpos) != s.nv {
		return fmt.Errorf("setState: invalid qpos length, have(%v) want(%v)", len(qpos), s.nv)
	}
	if len(qvel) != s.nv {
		return fmt.Errorf("setState: invalid qvel length, have(%v) want(%v)", len(qvel), s.nv)
	}
	copy(s.qpos, qpos)
	copy(s.qvel, qvel)
	return nil
}

// Contacts reports overlapping geom pairs. Plane and unsized geoms do not
// participate, nor do pairs on the same body or on bodies in a direct
// parent-child relation.
func (s *Sim) Contacts() []Contact {
	contacts := make([]Contact, 0)
	geoms := s.scene.Geoms
	for i := 0; i < len(geoms); i++ {
		gi := geoms[i]
		if gi.Type == "plane" || gi.Size <= 0 {
			continue
		}
		for j := i + 1; j < len(geoms); j++ {
			gj := geoms[j]
			if gj.Type == "plane" || gj.Size <= 0 {
				continue
			}
			if gi.Body == gj.Body || s.related(gi.Body, gj.Body) {
				continue
			}
			if s.geomPos(gi).DistTo(s.geomPos(gj)) < gi.Size+gj.Size {
				contacts = append(contacts, Contact{Geom1: gi.ID, Geom2: gj.ID})
			}
		}
	}
	return contacts
}

func (s *Sim) related(a, b int) bool {
	return s.scene.Bodies[a].Parent == b || s.scene.Bodies[b].Parent == a
}

func (s *Sim) geomPos(g Geom) mat32.Vec3 {
	pos := g.Pos
	if s.underMocap[g.Body] {
		pos = pos.Add(s.mocapDelta)
	}
	return pos
}
