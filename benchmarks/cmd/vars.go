package cmd

import (
	"os"
	"time"

	"github.com/armlab/door-rl-testing/benchmarks/common"
	"github.com/spf13/cobra"
)

var (
	flags              *common.Flags = common.DefaultFlags()
	savePath           string
	scenePath          string
	episodeLen         int
	frameSkip          int
	successDist        float64
	successHold        int
	correctedPenalties bool
	seed               int64

	numRuns                int
	episodes               int
	horizon                int
	maxConsecutiveErrors   int
	maxConsecutiveTimeouts int
	episodeTimeout         int
	parallelism            int
	debug                  bool
)

func AddFlags(cmd *cobra.Command) {
	defaultScene := flags.ScenePath
	if env := os.Getenv("DOOR_SCENE"); env != "" {
		defaultScene = env
	}

	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().StringVar(&scenePath, "scene", defaultScene, "Path to the scene model file")
	cmd.PersistentFlags().IntVar(&episodeLen, "episode-len", flags.EpisodeLen, "Steps before an episode truncates")
	cmd.PersistentFlags().IntVar(&frameSkip, "frame-skip", flags.FrameSkip, "Simulation frames per step")
	cmd.PersistentFlags().Float64Var(&successDist, "success-dist", flags.SuccessDist, "Hand-latch distance counting as success")
	cmd.PersistentFlags().IntVar(&successHold, "success-hold", flags.SuccessHold, "Consecutive successes to terminate")
	cmd.PersistentFlags().BoolVar(&correctedPenalties, "corrected-penalties", flags.CorrectedPenalties, "Subtract velocity and collision penalties instead of adding them")
	cmd.PersistentFlags().Int64Var(&seed, "seed", flags.Seed, "Base random seed")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of episodes")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", flags.Horizon, "Horizon")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	cmd.PersistentFlags().IntVar(&maxConsecutiveTimeouts, "max-consecutive-timeouts", flags.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	cmd.PersistentFlags().IntVar(&episodeTimeout, "episode-timeout", int(flags.EpisodeTimeout.Seconds()), "Episode timeout")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", flags.Parallelism, "Number of parallel runs")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Record late-episode traces")
}

func UpdateFlags() {
	flags.SavePath = savePath
	flags.ScenePath = scenePath
	flags.EpisodeLen = episodeLen
	flags.FrameSkip = frameSkip
	flags.SuccessDist = successDist
	flags.SuccessHold = successHold
	flags.CorrectedPenalties = correctedPenalties
	flags.Seed = seed

	flags.NumRuns = numRuns
	flags.Episodes = episodes
	flags.Horizon = horizon
	flags.MaxConsecutiveErrors = maxConsecutiveErrors
	flags.MaxConsecutiveTimeouts = maxConsecutiveTimeouts
	flags.EpisodeTimeout = time.Duration(episodeTimeout) * time.Second
	flags.Parallelism = parallelism
	flags.Debug = debug
}
