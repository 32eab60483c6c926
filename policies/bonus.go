package policies

import (
	"math/rand"
	"time"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/util"
)

// BonusGreedyPolicy is epsilon-greedy Q-learning with a 1/visit-count
// exploration bonus added to the environment reward.
type BonusGreedyPolicy struct {
	qTable   *QTable
	alpha    float64
	discount float64
	visits   *QTable
	epsilon  float64
	rand     *rand.Rand
}

var _ core.Policy = &BonusGreedyPolicy{}

func NewBonusGreedyPolicy(alpha, discount, epsilon float64) *BonusGreedyPolicy {
	return &BonusGreedyPolicy{
		qTable:   NewQTable(),
		alpha:    alpha,
		discount: discount,
		visits:   NewQTable(),
		epsilon:  epsilon,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *BonusGreedyPolicy) Record(path string) {
	b.qTable.Record(path)
}

func (b *BonusGreedyPolicy) Reset() {
	b.qTable = NewQTable()
	b.visits = NewQTable()
}

func (b *BonusGreedyPolicy) ResetEpisode(_ *core.EpisodeContext) {
}

func (b *BonusGreedyPolicy) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	if b.rand.Float64() < b.epsilon {
		i := b.rand.Intn(len(actions))
		return actions[i]
	}

	actionsMap := make(map[string]core.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := b.qTable.MaxAmong(state.Hash(), availableActions, 1)
	if maxAction == "" {
		return nil
	}
	return actionsMap[maxAction]
}

func (b *BonusGreedyPolicy) UpdateStep(sCtx *core.StepContext, state core.State, action core.Action, result *core.StepResult) {
	stateHash := state.Hash()
	actionHash := action.Hash()
	nextStateHash := result.State.Hash()
	t := b.visits.Get(stateHash, actionHash, 0) + 1
	b.visits.Set(stateHash, actionHash, t)

	_, nextStateVal := b.qTable.Max(nextStateHash, 1)
	if result.Terminated {
		nextStateVal = 0
	}
	curVal := b.qTable.Get(stateHash, actionHash, 1)

	newVal := (1-b.alpha)*curVal + b.alpha*(result.Reward+util.MaxFloat(1/t, b.discount*nextStateVal))
	b.qTable.Set(stateHash, actionHash, newVal)
}

func (b *BonusGreedyPolicy) UpdateEpisode(episode *core.EpisodeContext) {
}

type BonusGreedyPolicyConstructor struct {
	alpha    float64
	discount float64
	epsilon  float64
}

var _ core.PolicyConstructor = &BonusGreedyPolicyConstructor{}

func NewBonusGreedyPolicyConstructor(alpha, discount, epsilon float64) *BonusGreedyPolicyConstructor {
	return &BonusGreedyPolicyConstructor{
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
	}
}

func (b *BonusGreedyPolicyConstructor) NewPolicy() core.Policy {
	return NewBonusGreedyPolicy(b.alpha, b.discount, b.epsilon)
}
