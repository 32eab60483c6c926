package door

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/armlab/door-rl-testing/analysis"
	"github.com/armlab/door-rl-testing/benchmarks/common"
	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/policies"
	"github.com/armlab/door-rl-testing/util"
)

func ConfigFromFlags(flags *common.Flags) Config {
	config := DefaultConfig()
	config.ScenePath = flags.ScenePath
	config.EpisodeLen = flags.EpisodeLen
	config.FrameSkip = flags.FrameSkip
	config.SuccessDist = flags.SuccessDist
	config.SuccessHold = flags.SuccessHold
	config.CorrectedPenalties = flags.CorrectedPenalties
	config.Seed = flags.Seed
	return config
}

// PrepareComparison wires the door environment, the named policies and the
// standard analyses into a parallel comparison.
func PrepareComparison(flags *common.Flags, policyNames ...string) (*core.ParallelComparison, error) {
	config := ConfigFromFlags(flags)
	envC, err := NewEnvConstructor(config)
	if err != nil {
		return nil, err
	}

	cmp := core.NewParallelComparison()
	for _, name := range policyNames {
		policy, err := policyConstructor(name, flags)
		if err != nil {
			return nil, err
		}
		cmp.AddExperiment(&core.ParallelExperiment{
			Name:        name,
			Environment: envC,
			Policy:      policy,
		})
	}

	cmp.AddAnalysis(
		"reward",
		analysis.NewRewardAnalyzerConstructor(),
		analysis.NewRewardPlotComparatorConstructor(path.Join(flags.SavePath, "returns")),
	)
	cmp.AddAnalysis(
		"coverage",
		analysis.NewCoverageAnalyzerConstructor(),
		analysis.NewNoOpComparatorConstructor(),
	)
	cmp.AddAnalysis(
		"errors",
		analysis.NewErrorAnalyzerConstructor(flags.SavePath),
		analysis.NewNoOpComparatorConstructor(),
	)
	if flags.Debug {
		cmp.AddAnalysis(
			"traces",
			analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, flags.Episodes-5),
			analysis.NewNoOpComparatorConstructor(),
		)
	}
	return cmp, nil
}

// PrepareSingle wires one policy into a sequential comparison, for the
// per-policy subcommands where no experiments compete for workers.
func PrepareSingle(flags *common.Flags, policyName string) (*core.Comparison, error) {
	config := ConfigFromFlags(flags)
	env, err := NewEnv(config)
	if err != nil {
		return nil, err
	}
	policyC, err := policyConstructor(policyName, flags)
	if err != nil {
		return nil, err
	}

	cmp := core.NewComparison()
	cmp.AddExperiment(&core.Experiment{
		Name:        policyName,
		Environment: env,
		Policy:      policyC.NewPolicy(),
	})

	cmp.AddAnalysis(
		"reward",
		analysis.NewRewardAnalyzer(),
		analysis.NewRewardPlotComparator(path.Join(flags.SavePath, "returns"), 0),
	)
	cmp.AddAnalysis(
		"coverage",
		analysis.NewCoverageAnalyzer(),
		analysis.NewNoOpComparator(),
	)
	cmp.AddAnalysis(
		"errors",
		analysis.NewErrorAnalyzer(flags.SavePath),
		analysis.NewNoOpComparator(),
	)
	if flags.Debug {
		cmp.AddAnalysis(
			"traces",
			analysis.NewPrintDebugAnalyzer(flags.SavePath, flags.Episodes-5),
			analysis.NewNoOpComparator(),
		)
	}
	return cmp, nil
}

func policyConstructor(name string, flags *common.Flags) (core.PolicyConstructor, error) {
	switch name {
	case "random":
		return &policies.RandomPolicyConstructor{}, nil
	case "softmax":
		return policies.NewSoftMaxPolicyConstructor(0.3, 0.95, 0.5), nil
	case "bonus":
		return policies.NewBonusGreedyPolicyConstructor(0.3, 0.95, 0.05), nil
	case "ucbzero":
		return policies.NewUCBZeroPolicyConstructor(policies.UCBZeroParams{
			StateSize:   10000,
			ActionsSize: len(DefaultActions()),
			Horizon:     flags.Horizon,
			Episodes:    flags.Episodes,
			Constant:    0.1,
			Epsilon:     0.05,
		}), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// RunDemo plays a single episode with the random policy and streams step
// summaries to the terminal.
func RunDemo(ctx context.Context, flags *common.Flags) error {
	env, err := NewEnv(ConfigFromFlags(flags))
	if err != nil {
		return err
	}
	policy := policies.NewRandomPolicy()

	printer := util.NewTerminalPrinter(100 * time.Millisecond)
	out := printer.NewOutput()
	printer.Start(ctx)
	defer printer.Stop()

	eCtx := core.NewEpisodeContext(ctx)
	state, err := env.Reset(eCtx)
	if err != nil {
		return err
	}
	for step := 0; step < flags.Horizon; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sCtx := &core.StepContext{Step: step, EpisodeContext: eCtx}
		action := policy.PickAction(sCtx, state, state.Actions())
		res, err := env.Step(action, sCtx)
		if err != nil {
			return err
		}
		eCtx.Trace.AddStep(&core.Step{State: state, Action: action, Result: res})

		out.TrySet(fmt.Sprintf(
			"Step %d: %s, reward %.3f, dist %.3f, streak %v",
			step, action.Hash(), res.Reward, res.Info["dist"], res.Info["success_streak"],
		))
		time.Sleep(10 * time.Millisecond)

		if res.Done() {
			break
		}
		state = res.State
	}

	last := eCtx.Trace.Last()
	fmt.Printf(
		"\nEpisode finished after %d steps, return %.3f, terminated: %v, truncated: %v\n",
		eCtx.Trace.Len(), eCtx.Trace.Return(), last.Result.Terminated, last.Result.Truncated,
	)
	return nil
}
