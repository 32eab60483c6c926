package policies

import (
	"math"
	"time"

	"github.com/armlab/door-rl-testing/core"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// SoftMaxPolicy is tabular Q-learning with softmax action selection at a
// fixed temperature. Value updates use the environment reward.
type SoftMaxPolicy struct {
	QTable      map[string]map[string]float64
	Alpha       float64
	Gamma       float64
	Temperature float64

	rand erand.Source
}

// NewSoftMaxPolicy instantiates the SoftMaxPolicy
func NewSoftMaxPolicy(alpha, gamma, temperature float64) *SoftMaxPolicy {
	return &SoftMaxPolicy{
		QTable:      make(map[string]map[string]float64),
		Alpha:       alpha,
		Gamma:       gamma,
		Temperature: temperature,
		rand:        erand.NewSource(uint64(time.Now().UnixMilli())),
	}
}

// Checking interface compatibility
var _ core.Policy = &SoftMaxPolicy{}

// Reset clears the QTable
func (s *SoftMaxPolicy) Reset() {
	s.QTable = make(map[string]map[string]float64)
	s.rand = erand.NewSource(uint64(time.Now().UnixMilli()))
}

func (s *SoftMaxPolicy) ResetEpisode(_ *core.EpisodeContext) {
}

func (s *SoftMaxPolicy) UpdateEpisode(_ *core.EpisodeContext) {
}

func (s *SoftMaxPolicy) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	stateHash := state.Hash()

	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}

	// Initializing QTable entry to 0 if it does not exist
	for _, a := range actions {
		aName := a.Hash()
		if _, ok := s.QTable[stateHash][aName]; !ok {
			s.QTable[stateHash][aName] = 0
		}
	}

	sum := float64(0)
	weights := make([]float64, len(actions))
	vals := make([]float64, len(actions))
	largestValue := s.QTable[stateHash][actions[0].Hash()]

	for i := 0; i < len(actions); i++ {
		action := actions[i]
		val := s.QTable[stateHash][action.Hash()]
		vals[i] = val
		if val > largestValue {
			largestValue = val
		}
	}

	// Normalizing
	for i := 0; i < len(vals); i++ {
		vals[i] = (vals[i] - largestValue) / s.Temperature
		vals[i] = math.Exp(vals[i])
		sum += vals[i]
	}

	// Computing weights for each action
	for i, v := range vals {
		weights[i] = v / sum
	}
	// using the sampleuv library to sample based on the weights
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil
	}
	return actions[i]
}

func (s *SoftMaxPolicy) UpdateStep(sCtx *core.StepContext, state core.State, action core.Action, result *core.StepResult) {
	stateHash := state.Hash()

	nextStateHash := result.State.Hash()
	actionKey := action.Hash()
	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}
	if _, ok := s.QTable[stateHash][actionKey]; !ok {
		s.QTable[stateHash][actionKey] = 0
	}
	curVal := s.QTable[stateHash][actionKey]
	max := float64(0)
	if _, ok := s.QTable[nextStateHash]; ok {
		for _, val := range s.QTable[nextStateHash] {
			if val > max {
				max = val
			}
		}
	}
	// terminal steps carry no successor value
	if result.Terminated {
		max = 0
	}
	nextVal := (1-s.Alpha)*curVal + s.Alpha*(result.Reward+s.Gamma*max)
	s.QTable[stateHash][actionKey] = nextVal
}

type SoftMaxPolicyConstructor struct {
	alpha float64
	gamma float64
	temp  float64
}

var _ core.PolicyConstructor = &SoftMaxPolicyConstructor{}

func NewSoftMaxPolicyConstructor(alpha, gamma, temp float64) *SoftMaxPolicyConstructor {
	return &SoftMaxPolicyConstructor{
		alpha: alpha,
		gamma: gamma,
		temp:  temp,
	}
}

func (s *SoftMaxPolicyConstructor) NewPolicy() core.Policy {
	return NewSoftMaxPolicy(s.alpha, s.gamma, s.temp)
}
