package door

import (
	"math"
	"testing"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/mjc"
	"github.com/goki/mat32"
)

const doorTestXML = `
<mujoco model="door_test">
  <worldbody>
    <geom name="floor" type="plane" size="5 5 0.1"/>
    <body name="arm">
      <joint name="joint1"/>
      <joint name="joint2"/>
      <joint name="joint3"/>
      <joint name="joint4"/>
      <joint name="joint5"/>
      <joint name="joint6"/>
      <joint name="joint7"/>
      <geom name="arm_link" size="0.05"/>
      <body name="hand" mocap="true" pos="0.4 0 1.0">
        <geom name="hand_palm" size="0.04"/>
        <body name="finger_left" pos="0.05 0.03 0">
          <geom name="finger_left_pad" size="0.02"/>
        </body>
      </body>
    </body>
    <body name="door" pos="1.2 0 0">
      <geom name="door_panel" size="0.12"/>
      <body name="latch" pos="0.35 -0.25 1.0">
        <geom name="door_handle" size="0.03"/>
      </body>
    </body>
  </worldbody>
</mujoco>`

// fakeStepper is a scripted mjc.Stepper. Tests set the body positions,
// velocities and contacts directly to exercise the episode evaluation.
type fakeStepper struct {
	handID  int
	latchID int
	hand    mat32.Vec3
	latch   mat32.Vec3

	qvel     []float64
	contacts []mjc.Contact

	shifts []mat32.Vec3
	frames int
	resets int
}

var _ mjc.Stepper = &fakeStepper{}

func (f *fakeStepper) Reset() {
	f.resets++
}

func (f *fakeStepper) ShiftMocap(delta mat32.Vec3) {
	f.hand = f.hand.Add(delta)
	f.shifts = append(f.shifts, delta)
}

func (f *fakeStepper) Step(frames int) {
	f.frames += frames
}

func (f *fakeStepper) BodyPos(id int) mat32.Vec3 {
	switch id {
	case f.handID:
		return f.hand
	case f.latchID:
		return f.latch
	}
	return mat32.Vec3{}
}

func (f *fakeStepper) QVel() []float64 {
	out := make([]float64, len(f.qvel))
	copy(out, f.qvel)
	return out
}

func (f *fakeStepper) SetState(qpos, qvel []float64) error {
	copy(f.qvel, qvel)
	return nil
}

func (f *fakeStepper) Contacts() []mjc.Contact {
	return f.contacts
}

func newFakeEnv(t *testing.T, config Config) (*Env, *fakeStepper, *mjc.Scene) {
	t.Helper()
	scene, err := mjc.ParseScene([]byte(doorTestXML))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	hand, err := scene.BodyID("hand")
	if err != nil {
		t.Fatalf("missing hand body: %v", err)
	}
	latch, err := scene.BodyID("latch")
	if err != nil {
		t.Fatalf("missing latch body: %v", err)
	}
	fake := &fakeStepper{
		handID:  hand,
		latchID: latch,
		hand:    scene.Bodies[hand].Pos,
		latch:   scene.Bodies[latch].Pos,
		qvel:    make([]float64, mjc.BaseDofs+armJoints),
	}
	env, err := NewEnvWithStepper(config, scene, fake)
	if err != nil {
		t.Fatalf("unexpected env error: %v", err)
	}
	return env, fake, scene
}

func geomID(t *testing.T, scene *mjc.Scene, name string) int {
	t.Helper()
	id, err := scene.GeomID(name)
	if err != nil {
		t.Fatalf("missing geom %s: %v", name, err)
	}
	return id
}

func holdStep(t *testing.T, env *Env) *core.StepResult {
	t.Helper()
	actions := DefaultActions()
	res, err := env.Step(actions[len(actions)-1], nil)
	if err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	return res
}

func TestNewEnvWithStepperValidation(t *testing.T) {
	cases := []struct {
		name string
		xml  string
	}{
		{
			"no hand body",
			`<mujoco><worldbody><body name="latch"><joint name="j1"/><joint name="j2"/><joint name="j3"/><joint name="j4"/><joint name="j5"/><joint name="j6"/><joint name="j7"/><geom name="door_handle" size="0.03"/></body></worldbody></mujoco>`,
		},
		{
			"no latch body",
			`<mujoco><worldbody><body name="hand"><joint name="j1"/><joint name="j2"/><joint name="j3"/><joint name="j4"/><joint name="j5"/><joint name="j6"/><joint name="j7"/><geom name="door_handle" size="0.03"/></body></worldbody></mujoco>`,
		},
		{
			"too few joints",
			`<mujoco><worldbody><body name="hand"><joint name="j1"/><geom name="door_handle" size="0.03"/></body><body name="latch"/></worldbody></mujoco>`,
		},
		{
			"no door handle geom",
			`<mujoco><worldbody><body name="hand"><joint name="j1"/><joint name="j2"/><joint name="j3"/><joint name="j4"/><joint name="j5"/><joint name="j6"/><joint name="j7"/></body><body name="latch"/></worldbody></mujoco>`,
		},
	}
	for _, c := range cases {
		scene, err := mjc.ParseScene([]byte(c.xml))
		if err != nil {
			t.Fatalf("%s: unexpected parse error: %v", c.name, err)
		}
		if _, err := NewEnvWithStepper(DefaultConfig(), scene, &fakeStepper{}); err == nil {
			t.Errorf("%s: expected construction error", c.name)
		}
	}
}

func TestObservationOrder(t *testing.T) {
	env, fake, _ := newFakeEnv(t, DefaultConfig())
	fake.hand = mat32.Vec3{X: 1, Y: 2, Z: 3}
	fake.latch = mat32.Vec3{X: 4, Y: 5, Z: 6}

	state, err := env.Reset(nil)
	if err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	obs := state.(*State).Observation()
	want := []float64{1, 2, 3, 4, 5, 6}
	if len(obs) != len(want) {
		t.Fatalf("expected %d observation values, got %d", len(want), len(obs))
	}
	for i := range want {
		if obs[i] != want[i] {
			t.Errorf("observation[%d] = %v, want %v", i, obs[i], want[i])
		}
	}
	if fake.resets != 1 {
		t.Errorf("expected 1 stepper reset, got %d", fake.resets)
	}
}

func TestStepRejectsWrongActionType(t *testing.T) {
	env, _, _ := newFakeEnv(t, DefaultConfig())
	env.Reset(nil)
	if _, err := env.Step(&badAction{}, nil); err == nil {
		t.Errorf("expected error for non pose delta action")
	}
}

type badAction struct{}

func (badAction) Hash() string { return "bad" }

func TestStepAppliesActionScale(t *testing.T) {
	config := DefaultConfig()
	config.ActionScale = 0.5
	config.FrameSkip = 7
	env, fake, _ := newFakeEnv(t, config)
	env.Reset(nil)

	res, err := env.Step(DefaultActions()[0], nil)
	if err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	if len(fake.shifts) != 1 {
		t.Fatalf("expected 1 mocap shift, got %d", len(fake.shifts))
	}
	want := mat32.Vec3{X: 0.5}
	if fake.shifts[0] != want {
		t.Errorf("mocap shift = %v, want %v", fake.shifts[0], want)
	}
	if fake.frames != 7 {
		t.Errorf("expected 7 simulation frames, got %d", fake.frames)
	}
	if res.State == nil {
		t.Errorf("step result carries no state")
	}
}

func TestSuccessBoundaryIsStrict(t *testing.T) {
	config := DefaultConfig()
	config.SuccessDist = 0.125
	env, fake, _ := newFakeEnv(t, config)
	env.Reset(nil)

	fake.hand = mat32.Vec3{}
	fake.latch = mat32.Vec3{X: 0.125}
	res := holdStep(t, env)
	if res.Info["success"].(bool) {
		t.Errorf("distance equal to the threshold should not count as success")
	}

	fake.latch = mat32.Vec3{X: 0.124}
	res = holdStep(t, env)
	if !res.Info["success"].(bool) {
		t.Errorf("distance below the threshold should count as success")
	}
}

func TestStreakResetsOnMiss(t *testing.T) {
	env, fake, _ := newFakeEnv(t, DefaultConfig())
	env.Reset(nil)

	fake.hand = fake.latch
	for i := 1; i <= 3; i++ {
		res := holdStep(t, env)
		if streak := res.Info["success_streak"].(int); streak != i {
			t.Errorf("expected streak %d, got %d", i, streak)
		}
	}

	fake.hand = fake.latch.Add(mat32.Vec3{X: 1})
	res := holdStep(t, env)
	if streak := res.Info["success_streak"].(int); streak != 0 {
		t.Errorf("expected streak reset to 0, got %d", streak)
	}

	fake.hand = fake.latch
	res = holdStep(t, env)
	if streak := res.Info["success_streak"].(int); streak != 1 {
		t.Errorf("expected streak restart at 1, got %d", streak)
	}
}

func TestTerminationLagsHoldCount(t *testing.T) {
	config := DefaultConfig()
	config.SuccessHold = 2
	env, fake, _ := newFakeEnv(t, config)
	env.Reset(nil)
	fake.hand = fake.latch

	// The streak is checked before it is incremented, so the episode
	// terminates on the step after it exceeds the hold count.
	for i := 1; i <= config.SuccessHold+1; i++ {
		if res := holdStep(t, env); res.Terminated {
			t.Fatalf("step %d terminated early", i)
		}
	}
	if res := holdStep(t, env); !res.Terminated {
		t.Errorf("expected termination after holding %d successes", config.SuccessHold+1)
	}
}

func TestCollisionFiltering(t *testing.T) {
	env, fake, scene := newFakeEnv(t, DefaultConfig())
	floor := geomID(t, scene, "floor")
	palm := geomID(t, scene, "hand_palm")
	finger := geomID(t, scene, "finger_left_pad")
	panel := geomID(t, scene, "door_panel")
	handle := geomID(t, scene, "door_handle")

	cases := []struct {
		name     string
		contacts []mjc.Contact
		want     bool
	}{
		{"no contacts", nil, false},
		{"world geom contact", []mjc.Contact{{Geom1: floor, Geom2: panel}}, false},
		{"both excluded", []mjc.Contact{{Geom1: handle, Geom2: finger}}, false},
		{"one excluded", []mjc.Contact{{Geom1: handle, Geom2: panel}}, false},
		{"valid pair", []mjc.Contact{{Geom1: palm, Geom2: panel}}, true},
		{"valid pair after filtered", []mjc.Contact{{Geom1: handle, Geom2: finger}, {Geom1: palm, Geom2: panel}}, true},
	}
	for _, c := range cases {
		env.Reset(nil)
		fake.contacts = c.contacts
		res := holdStep(t, env)
		if got := res.Info["collision"].(bool); got != c.want {
			t.Errorf("%s: collision = %v, want %v", c.name, got, c.want)
		}
		if res.Terminated != c.want {
			t.Errorf("%s: terminated = %v, want %v", c.name, res.Terminated, c.want)
		}
	}
}

func TestRewardLegacyAddsPenalties(t *testing.T) {
	env, fake, scene := newFakeEnv(t, DefaultConfig())
	env.Reset(nil)

	fake.hand = fake.latch
	fake.qvel[mjc.BaseDofs] = 2
	fake.qvel[mjc.BaseDofs+1] = -3
	fake.contacts = []mjc.Contact{
		{Geom1: geomID(t, scene, "hand_palm"), Geom2: geomID(t, scene, "door_panel")},
	}

	res := holdStep(t, env)
	// success bonus + proximity at zero distance + velocity and collision
	// magnitudes added in
	want := 10.0 + 1.0 + 0.001*5 + 10.0
	if math.Abs(res.Reward-want) > 1e-9 {
		t.Errorf("legacy reward = %v, want %v", res.Reward, want)
	}
}

func TestRewardCorrectedSubtractsPenalties(t *testing.T) {
	config := DefaultConfig()
	config.CorrectedPenalties = true
	env, fake, scene := newFakeEnv(t, config)
	env.Reset(nil)

	fake.hand = fake.latch
	fake.qvel[mjc.BaseDofs] = 2
	fake.qvel[mjc.BaseDofs+1] = -3
	fake.contacts = []mjc.Contact{
		{Geom1: geomID(t, scene, "hand_palm"), Geom2: geomID(t, scene, "door_panel")},
	}

	res := holdStep(t, env)
	want := 10.0 + 1.0 - 0.001*5 - 10.0
	if math.Abs(res.Reward-want) > 1e-9 {
		t.Errorf("corrected reward = %v, want %v", res.Reward, want)
	}
}

func TestVelocityPenaltyCoversArmJointsOnly(t *testing.T) {
	env, fake, _ := newFakeEnv(t, DefaultConfig())
	env.Reset(nil)
	fake.hand = fake.latch.Add(mat32.Vec3{X: 1})

	// base dofs do not contribute
	fake.qvel = make([]float64, mjc.BaseDofs+armJoints)
	for i := 0; i < mjc.BaseDofs; i++ {
		fake.qvel[i] = 100
	}
	base := holdStep(t, env)

	fake.qvel = make([]float64, mjc.BaseDofs+armJoints)
	none := holdStep(t, env)
	if math.Abs(base.Reward-none.Reward) > 1e-9 {
		t.Errorf("base velocities changed the reward: %v vs %v", base.Reward, none.Reward)
	}

	fake.qvel[mjc.BaseDofs+armJoints-1] = 4
	arm := holdStep(t, env)
	if math.Abs(arm.Reward-(none.Reward+0.004)) > 1e-9 {
		t.Errorf("arm velocity penalty = %v, want %v", arm.Reward-none.Reward, 0.004)
	}
}

func TestTruncationAtEpisodeLen(t *testing.T) {
	config := DefaultConfig()
	config.EpisodeLen = 3
	env, fake, _ := newFakeEnv(t, config)
	env.Reset(nil)
	fake.hand = fake.latch.Add(mat32.Vec3{X: 1})

	for i := 1; i < config.EpisodeLen; i++ {
		if res := holdStep(t, env); res.Truncated {
			t.Fatalf("step %d truncated early", i)
		}
	}
	if res := holdStep(t, env); !res.Truncated {
		t.Errorf("expected truncation at step %d", config.EpisodeLen)
	}
}

func TestResetClearsEpisodeCounters(t *testing.T) {
	config := DefaultConfig()
	config.EpisodeLen = 2
	env, fake, _ := newFakeEnv(t, config)
	env.Reset(nil)
	fake.hand = fake.latch

	holdStep(t, env)
	if res := holdStep(t, env); !res.Truncated {
		t.Fatalf("expected truncation before reset")
	}

	env.Reset(nil)
	res := holdStep(t, env)
	if res.Truncated {
		t.Errorf("step counter survived the reset")
	}
	if streak := res.Info["success_streak"].(int); streak != 1 {
		t.Errorf("success streak survived the reset: %d", streak)
	}
}

func TestNewEnvLoadsSceneAsset(t *testing.T) {
	config := DefaultConfig()
	config.ScenePath = "assets/door_scene.xml"
	env, err := NewEnv(config)
	if err != nil {
		t.Fatalf("unexpected env error: %v", err)
	}
	state, err := env.Reset(nil)
	if err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	res, err := env.Step(DefaultActions()[0], nil)
	if err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	if res.Terminated || res.Truncated {
		t.Errorf("episode over after a single step: %+v", res.Info)
	}
	if state.Hash() == "" || res.State.Hash() == "" {
		t.Errorf("states should hash")
	}
}

func TestEnvConstructorBuildsInstances(t *testing.T) {
	config := DefaultConfig()
	config.ScenePath = "assets/door_scene.xml"
	ec, err := NewEnvConstructor(config)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	a := ec.NewEnvironment(0)
	b := ec.NewEnvironment(1)
	if a == b {
		t.Errorf("instances should be distinct")
	}
	if _, err := a.Reset(nil); err != nil {
		t.Errorf("unexpected reset error: %v", err)
	}
}
