package door

import (
	"fmt"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/mjc"
)

// EnvConstructor builds door environments for parallel experiments. The
// scene is loaded and validated once and shared read-only; every instance
// gets its own stepper seeded from the config seed and the instance number.
type EnvConstructor struct {
	config Config
	scene  *mjc.Scene
}

var _ core.EnvironmentConstructor = &EnvConstructor{}

func NewEnvConstructor(config Config) (*EnvConstructor, error) {
	scene, err := mjc.LoadScene(config.ScenePath)
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	// validate the scene once so instance construction cannot fail
	sim, err := mjc.NewSim(scene, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("door env: %v", err)
	}
	if _, err := NewEnvWithStepper(config, scene, sim); err != nil {
		return nil, err
	}
	return &EnvConstructor{
		config: config,
		scene:  scene,
	}, nil
}

func (c *EnvConstructor) NewEnvironment(instance int) core.Environment {
	config := c.config
	config.Seed = c.config.Seed + int64(instance)
	sim, err := mjc.NewSim(c.scene, config.Seed)
	if err != nil {
		panic(fmt.Sprintf("door env: %v", err))
	}
	env, err := NewEnvWithStepper(config, c.scene, sim)
	if err != nil {
		panic(fmt.Sprintf("door env: %v", err))
	}
	return env
}
