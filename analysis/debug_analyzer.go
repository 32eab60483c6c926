package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/armlab/door-rl-testing/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	// create a traces directory under save path if not exists
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	buf := new(bytes.Buffer)

	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(step)))
		buf.WriteString("\n")
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	os.WriteFile(file, buf.Bytes(), 0644)
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: %s\nAction: %s\nReward: %.4f, Terminated: %v, Truncated: %v\nNext State: %s\nAdditional Info:\n%s",
		stateToString(step.State),
		actionToString(step.Action),
		step.Result.Reward,
		step.Result.Terminated,
		step.Result.Truncated,
		stateToString(step.Result.State),
		addInfoToString(step.Result.Info),
	)
}

func addInfoToString(info map[string]interface{}) string {
	out := ""
	if dist, ok := info["dist"].(float64); ok {
		out += fmt.Sprintf("Distance: %.4f\n", dist)
	}
	if success, ok := info["success"].(bool); ok {
		out += fmt.Sprintf("Success: %v\n", success)
	}
	if streak, ok := info["success_streak"].(int); ok {
		out += fmt.Sprintf("Success Streak: %d\n", streak)
	}
	if collided, ok := info["collision"].(bool); ok {
		out += fmt.Sprintf("Collision: %v\n", collided)
	}
	return out
}

func stateToString(state core.State) string {
	if s, ok := state.(fmt.Stringer); ok {
		return s.String()
	}
	return state.Hash()
}

func actionToString(action core.Action) string {
	if a, ok := action.(fmt.Stringer); ok {
		return a.String()
	}
	return action.Hash()
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n\n", i, stepToString(trace.Step(i))))
	}
	return buf.String()
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {
	// do nothing
}

type PrintDebugAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	if _, err := os.Stat(path.Join(c.SavePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(c.SavePath, "traces"), 0755)
	}
	return &PrintDebugAnalyzer{
		savePath:         path.Join(c.SavePath, "traces"),
		exp:              exp,
		thresholdEpisode: c.ThresholdEpisode,
	}
}
