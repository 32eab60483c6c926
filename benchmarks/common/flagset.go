package common

import (
	"path"
	"time"

	"github.com/armlab/door-rl-testing/util"
)

type Flags struct {
	SceneFlags
	SavePath string
	RunFlags
	Parallelism int
	Debug       bool
}

type SceneFlags struct {
	ScenePath          string
	EpisodeLen         int
	FrameSkip          int
	SuccessDist        float64
	SuccessHold        int
	CorrectedPenalties bool
	Seed               int64
}

type RunFlags struct {
	NumRuns                int
	Episodes               int
	Horizon                int
	MaxConsecutiveErrors   int
	MaxConsecutiveTimeouts int
	EpisodeTimeout         time.Duration
}

func DefaultFlags() *Flags {
	return &Flags{
		SceneFlags: SceneFlags{
			ScenePath:   "benchmarks/door/assets/door_scene.xml",
			EpisodeLen:  500,
			FrameSkip:   10,
			SuccessDist: 0.1,
			SuccessHold: 20,
			Seed:        1,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               1000,
			Horizon:                500,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         30 * time.Second,
		},
		Parallelism: 4,
		Debug:       false,
	}
}

// Record writes the resolved flags next to the run results so every results
// directory names the configuration that produced it.
func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
