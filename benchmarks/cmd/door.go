package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/armlab/door-rl-testing/benchmarks/door"
	"github.com/armlab/door-rl-testing/core"
	"github.com/spf13/cobra"
)

func DoorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "door",
		Short: "Run door-opening benchmarks",
	}

	cmd.AddCommand(
		doorPolicyCommand("random", "Run the door benchmark with the random policy"),
		doorPolicyCommand("softmax", "Run the door benchmark with softmax Q-learning"),
		doorPolicyCommand("bonus", "Run the door benchmark with bonus-greedy Q-learning"),
		doorPolicyCommand("ucbzero", "Run the door benchmark with UCB-Zero"),
		doorCompareCommand(),
		doorDemoCommand(),
	)

	return cmd
}

func doorPolicyCommand(policy, short string) *cobra.Command {
	return &cobra.Command{
		Use:   policy,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(policy)
		},
	}
}

func doorCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare all policies on the door benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComparison("random", "softmax", "bonus", "ucbzero")
		},
	}
}

func doorDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Play one episode with the random policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return door.RunDemo(ctx, flags)
		},
	}
}

func runSingle(policy string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cmp, err := door.PrepareSingle(flags, policy)
	if err != nil {
		return err
	}
	cmp.Run(ctx, flags.NumRuns, runConfig())
	return nil
}

func runComparison(policyNames ...string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cmp, err := door.PrepareComparison(flags, policyNames...)
	if err != nil {
		return err
	}
	cmp.Run(ctx, flags.NumRuns, runConfig(), flags.Parallelism)
	return nil
}

func runConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     flags.Episodes,
		Horizon:                      flags.Horizon,
		ThresholdConsecutiveErrors:   flags.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: flags.MaxConsecutiveTimeouts,
		EpisodeTimeout:               flags.EpisodeTimeout,
	}
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
