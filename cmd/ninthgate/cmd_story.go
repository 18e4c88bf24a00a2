package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/ninth-gate/internal/engine"
	"github.com/talgya/ninth-gate/internal/entropy"
)

var (
	simRuns int
	simDays int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the story asset",
	Long: `Check that every choice in the story leads somewhere the engine can
show, and that every scene the hidden gates can route to is defined.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play many sessions at random and report how often each gate opens",
	Long: `Run headless play-throughs that pick uniformly among the offered
choices, and report how many runs reached each gated scene. Nothing is
saved. Set NINTHGATE_SEED for a reproducible report.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func runCheck(cmd *cobra.Command, args []string) error {
	st, err := loadStory()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	issues := st.Validate()
	for _, issue := range issues {
		fmt.Fprintln(out, issue)
	}
	if len(issues) > 0 {
		return fmt.Errorf("story has %d issues", len(issues))
	}
	fmt.Fprintf(out, "%s scenes, start %q, checksum %s: ok\n",
		humanize.Comma(int64(len(st.Scenes))), st.Start, st.Checksum()[:12])
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simRuns <= 0 || simDays <= 0 {
		return fmt.Errorf("--runs and --days must be positive")
	}

	st, err := loadStory()
	if err != nil {
		return err
	}

	stats, err := engine.Simulate(st, entropy.New(cfg.Seed), engine.SimConfig{Runs: simRuns, MaxDays: simDays})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s runs, %s choices, %.1f days on average, %s near misses\n\n",
		humanize.Comma(int64(stats.Runs)), humanize.Comma(int64(stats.Choices)),
		stats.AvgDays(), humanize.Comma(int64(stats.NearMiss)))

	scenes := newTable().Headers("SCENE", "RUNS", "RATE")
	for _, id := range stats.Scenes() {
		scenes.Row(id, humanize.Comma(int64(stats.Reached[id])), percent(stats.Rate(id)))
	}
	fmt.Fprintln(out, scenes)

	outcomes := newTable().Headers("OUTCOME", "RUNS")
	for _, o := range []string{engine.OutcomeReassigned, engine.OutcomeAbsorbed, engine.OutcomeLateral, engine.OutcomeLooping} {
		outcomes.Row(o, humanize.Comma(int64(stats.Outcomes[o])))
	}
	fmt.Fprintln(out, outcomes)
	return nil
}
