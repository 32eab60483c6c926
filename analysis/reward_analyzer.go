package analysis

import (
	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/util"
)

// RewardDataset collects per-episode returns together with how each episode
// ended.
type RewardDataset struct {
	Returns     []float64
	Successes   int
	Collisions  int
	Truncations int
}

func (d *RewardDataset) Copy() *RewardDataset {
	return &RewardDataset{
		Returns:     util.CopyFloatSlice(d.Returns),
		Successes:   d.Successes,
		Collisions:  d.Collisions,
		Truncations: d.Truncations,
	}
}

type RewardAnalyzer struct {
	dataset *RewardDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{
		dataset: &RewardDataset{Returns: make([]float64, 0)},
	}
}

func (a *RewardAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.IsError() || trace.Len() == 0 {
		return
	}
	a.dataset.Returns = append(a.dataset.Returns, trace.Return())

	last := trace.Last().Result
	switch {
	case last.Terminated:
		if collided, ok := last.Info["collision"].(bool); ok && collided {
			a.dataset.Collisions++
		} else {
			a.dataset.Successes++
		}
	case last.Truncated:
		a.dataset.Truncations++
	}
}

func (a *RewardAnalyzer) DataSet() core.DataSet {
	return a.dataset.Copy()
}

func (a *RewardAnalyzer) Reset() {
	a.dataset = &RewardDataset{Returns: make([]float64, 0)}
}

type RewardAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &RewardAnalyzerConstructor{}

func NewRewardAnalyzerConstructor() *RewardAnalyzerConstructor {
	return &RewardAnalyzerConstructor{}
}

func (c *RewardAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewRewardAnalyzer()
}
