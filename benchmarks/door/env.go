// Package door implements the door-opening manipulation benchmark: a mobile
// robot arm commanded by end effector pose deltas, rewarded for holding its
// hand at the door latch and terminated on unfiltered collisions.
package door

import (
	"fmt"
	"math"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/mjc"
	"github.com/goki/mat32"
)

// armJoints is the number of arm joints whose velocities are penalized.
// They follow the base dofs in the generalized velocity vector.
const armJoints = 7

type Config struct {
	ScenePath string
	// EpisodeLen is the step limit after which the episode truncates.
	EpisodeLen int
	// FrameSkip is the number of simulation frames per environment step.
	FrameSkip int
	// SuccessDist is the hand-latch distance below which (strictly) a step
	// counts as a success.
	SuccessDist float64
	// SuccessHold is the consecutive-success count that must be exceeded
	// for the episode to terminate successfully.
	SuccessHold int
	// ActionScale converts commanded pose delta units to meters.
	ActionScale float64
	// CorrectedPenalties subtracts the velocity and collision terms from
	// the reward. The default keeps the original controller's algebra,
	// where both terms add their magnitudes.
	CorrectedPenalties bool
	Seed               int64
}

func DefaultConfig() Config {
	return Config{
		ScenePath:   "benchmarks/door/assets/door_scene.xml",
		EpisodeLen:  500,
		FrameSkip:   10,
		SuccessDist: 0.1,
		SuccessHold: 20,
		ActionScale: 0.01,
	}
}

// episodeState holds the per-episode counters. It is reset wholesale on
// Reset so no counter survives across episodes.
type episodeState struct {
	stepNumber    int
	successStreak int
}

// Env evaluates episodes over a mjc.Stepper. The excluded geom set is
// computed once at construction and never changes afterwards.
type Env struct {
	config  Config
	scene   *mjc.Scene
	stepper mjc.Stepper

	handBody  int
	latchBody int
	excluded  map[int]bool

	episode episodeState
}

var _ core.Environment = &Env{}

// NewEnv loads the scene named by the config and runs it on the built-in
// kinematic stepper.
func NewEnv(config Config) (*Env, error) {
	scene, err := mjc.LoadScene(config.ScenePath)
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	sim, err := mjc.NewSim(scene, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	return NewEnvWithStepper(config, scene, sim)
}

// NewEnvWithStepper builds the environment over an externally supplied
// stepper. The scene must name the "hand" and "latch" bodies and the
// "door_handle" geom; missing names are fatal.
func NewEnvWithStepper(config Config, scene *mjc.Scene, stepper mjc.Stepper) (*Env, error) {
	hand, err := scene.BodyID("hand")
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	latch, err := scene.BodyID("latch")
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	if scene.NumJoints() < armJoints {
		return nil, fmt.Errorf("door env: scene has %d joints, need at least %d arm joints", scene.NumJoints(), armJoints)
	}

	// The door handle must be grasped and the fingers touch it while
	// opening, so neither counts toward collisions.
	handle, err := scene.GeomID("door_handle")
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	excluded := map[int]bool{handle: true}
	for _, id := range scene.GeomsWithPrefix("finger") {
		excluded[id] = true
	}

	return &Env{
		config:    config,
		scene:     scene,
		stepper:   stepper,
		handBody:  hand,
		latchBody: latch,
		excluded:  excluded,
	}, nil
}

func (e *Env) Reset(_ *core.EpisodeContext) (core.State, error) {
	e.stepper.Reset()
	e.episode = episodeState{}
	return e.observe(), nil
}

func (e *Env) Step(a core.Action, _ *core.StepContext) (*core.StepResult, error) {
	pose, ok := a.(*PoseDelta)
	if !ok {
		return nil, fmt.Errorf("door env: unexpected action type %T", a)
	}

	// Only the translation components of the commanded pose are applied.
	e.stepper.ShiftMocap(mat32.Vec3{
		X: float32(pose.Delta[0] * e.config.ActionScale),
		Y: float32(pose.Delta[1] * e.config.ActionScale),
		Z: float32(pose.Delta[2] * e.config.ActionScale),
	})
	e.stepper.Step(e.config.FrameSkip)
	e.episode.stepNumber++

	state := e.observe()
	reward, terminated, info := e.evaluate(state)

	return &core.StepResult{
		State:      state,
		Reward:     reward,
		Terminated: terminated,
		Truncated:  e.episode.stepNumber >= e.config.EpisodeLen,
		Info:       info,
	}, nil
}

func (e *Env) observe() *State {
	return &State{
		Hand:  e.stepper.BodyPos(e.handBody),
		Latch: e.stepper.BodyPos(e.latchBody),
	}
}

// evaluate turns the current poses, joint velocities and contacts into the
// step reward and termination flag, and updates the success streak.
func (e *Env) evaluate(s *State) (float64, bool, map[string]interface{}) {
	dist := float64(s.Hand.DistTo(s.Latch))
	success := dist < e.config.SuccessDist

	velSum := float64(0)
	qvel := e.stepper.QVel()
	for _, v := range qvel[mjc.BaseDofs : mjc.BaseDofs+armJoints] {
		velSum += math.Abs(v)
	}

	collided := e.collision()

	reward := boolScale(success, 10) + 1/(1+dist)
	if e.config.CorrectedPenalties {
		reward -= 0.001*velSum + boolScale(collided, 10)
	} else {
		reward += 0.001*velSum + boolScale(collided, 10)
	}

	// The streak is read before this step's update: termination fires on
	// the step after the hold count was exceeded.
	terminated := e.episode.successStreak > e.config.SuccessHold || collided
	if success {
		e.episode.successStreak++
	} else {
		e.episode.successStreak = 0
	}

	return reward, terminated, map[string]interface{}{
		"dist":           dist,
		"success":        success,
		"collision":      collided,
		"success_streak": e.episode.successStreak,
	}
}

// collision reports whether any contact joins two valid geoms that are both
// outside the excluded set. The first qualifying contact decides.
func (e *Env) collision() bool {
	for _, c := range e.stepper.Contacts() {
		if c.Geom1 != 0 && c.Geom2 != 0 && !e.excluded[c.Geom1] && !e.excluded[c.Geom2] {
			return true
		}
	}
	return false
}

func boolScale(b bool, scale float64) float64 {
	if b {
		return scale
	}
	return 0
}
