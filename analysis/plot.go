package analysis

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/armlab/door-rl-testing/core"
	"github.com/armlab/door-rl-testing/util"
)

// smoothWindow is the trailing window for the plotted return curves.
const smoothWindow = 10

// RewardPlotComparator draws the smoothed per-episode returns of all
// experiments of a run into one line chart and prints summary statistics.
type RewardPlotComparator struct {
	savePath string
	run      int
}

var _ core.Comparator = &RewardPlotComparator{}

func NewRewardPlotComparator(savePath string, run int) *RewardPlotComparator {
	if _, err := os.Stat(savePath); os.IsNotExist(err) {
		os.MkdirAll(savePath, 0755)
	}
	return &RewardPlotComparator{
		savePath: savePath,
		run:      run,
	}
}

func (r *RewardPlotComparator) Compare(names []string, datasets []core.DataSet) {
	p := plot.New()
	p.Title.Text = "Episode returns"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	for i := 0; i < len(names); i++ {
		ds, ok := datasets[i].(*RewardDataset)
		if !ok || ds == nil || len(ds.Returns) == 0 {
			continue
		}

		smoothed := smooth(ds.Returns, smoothWindow)
		points := make(plotter.XYs, len(smoothed))
		for j, v := range smoothed {
			points[j] = plotter.XY{X: float64(j), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)

		mean, std := stat.MeanStdDev(ds.Returns, nil)
		fmt.Printf(
			"Experiment %s: mean return %.3f (stddev %.3f), success: %d, collision: %d, truncated: %d\n",
			names[i], mean, std, ds.Successes, ds.Collisions, ds.Truncations,
		)

		err = util.SaveJson(
			path.Join(r.savePath, fmt.Sprintf("%d_%s_returns.json", r.run, names[i])),
			ds,
		)
		if err != nil {
			fmt.Printf("Experiment %s: saving returns dataset: %v\n", names[i], err)
		}
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path.Join(r.savePath, strconv.Itoa(r.run)+"_returns.png")); err != nil {
		fmt.Printf("saving returns plot: %v\n", err)
	}
}

func smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := float64(0)
		for j := lo; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(i-lo+1)
	}
	return out
}

type RewardPlotComparatorConstructor struct {
	SavePath string
}

var _ core.ComparatorConstructor = &RewardPlotComparatorConstructor{}

func NewRewardPlotComparatorConstructor(savePath string) *RewardPlotComparatorConstructor {
	return &RewardPlotComparatorConstructor{SavePath: savePath}
}

func (c *RewardPlotComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewRewardPlotComparator(c.SavePath, run)
}
