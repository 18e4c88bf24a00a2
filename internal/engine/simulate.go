package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/talgya/ninth-gate/internal/entropy"
	"github.com/talgya/ninth-gate/internal/gate"
	"github.com/talgya/ninth-gate/internal/story"
)

// SimConfig controls a batch of headless play-throughs.
type SimConfig struct {
	Runs    int // play-throughs to run
	MaxDays int // a run that survives this long is counted as still looping
}

// SimStats aggregates the outcome of a batch.
type SimStats struct {
	Runs      int            `json:"runs"`
	Reached   map[string]int `json:"reached"`  // runs that reached each outcome scene at least once
	Outcomes  map[string]int `json:"outcomes"` // how each run ended
	NearMiss  int            `json:"near_misses"`
	TotalDays int            `json:"total_days"`
	Choices   int            `json:"choices"`
}

// AvgDays is the mean number of days a run lasted.
func (st SimStats) AvgDays() float64 {
	if st.Runs == 0 {
		return 0
	}
	return float64(st.TotalDays) / float64(st.Runs)
}

// Rate is the fraction of runs that reached scene at least once.
func (st SimStats) Rate(scene string) float64 {
	if st.Runs == 0 {
		return 0
	}
	return float64(st.Reached[scene]) / float64(st.Runs)
}

// Scenes lists the scenes with a reach count, sorted.
func (st SimStats) Scenes() []string {
	out := make([]string, 0, len(st.Reached))
	for id := range st.Reached {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Outcome labels for how a simulated run ended.
const (
	OutcomeReassigned = "reassigned"
	OutcomeAbsorbed   = "absorbed"
	OutcomeLateral    = "left through the lateral door"
	OutcomeLooping    = "still looping"
)

var tracked = map[string]bool{
	gate.SceneHiddenDoor: true,
	gate.SceneReassigned: true,
	gate.SceneNearMiss:   true,
	gate.SceneAbsorbed:   true,
	gate.SceneAbsorption: true,
}

// Simulate plays cfg.Runs sessions of st, choosing uniformly among the
// offered choices, and reports how often each gated scene was reached.
// All randomness, gates and choices alike, comes from src.
func Simulate(st *story.Story, src entropy.Source, cfg SimConfig) (SimStats, error) {
	stats := SimStats{
		Reached:  make(map[string]int),
		Outcomes: make(map[string]int),
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	for run := 0; run < cfg.Runs; run++ {
		e := New(st, NewMemoryStore(), src)
		e.Logger = quiet
		seen := make(map[string]bool)
		e.OnTransition = func(t Transition) {
			if tracked[t.To] {
				seen[t.To] = true
			}
		}

		v, err := e.Start(ModeNew)
		if err != nil {
			return stats, fmt.Errorf("run %d: %w", run, err)
		}

		outcome := OutcomeLooping
		for v.Day <= cfg.MaxDays {
			if end, ok := simOutcome(v); ok {
				outcome = end
				break
			}
			if v.Ending {
				break
			}
			pick := int(src.Float() * float64(len(v.Choices)))
			if pick >= len(v.Choices) {
				pick = len(v.Choices) - 1
			}
			v, err = e.Choose(pick)
			if err != nil {
				return stats, fmt.Errorf("run %d: %w", run, err)
			}
			stats.Choices++
		}

		final := e.Snapshot()
		stats.Runs++
		stats.TotalDays += final.Day
		stats.NearMiss += final.NearMisses
		stats.Outcomes[outcome]++
		for id := range seen {
			stats.Reached[id]++
		}
	}

	slog.Info("simulation complete",
		"runs", stats.Runs,
		"choices", stats.Choices,
		"avg_days", fmt.Sprintf("%.2f", stats.AvgDays()),
		"reassigned", stats.Reached[gate.SceneReassigned],
		"hidden_door", stats.Reached[gate.SceneHiddenDoor],
		"absorbed", stats.Reached[gate.SceneAbsorbed],
	)
	return stats, nil
}

// simOutcome reports whether the run has reached a scene that ends it.
func simOutcome(v View) (string, bool) {
	switch {
	case v.SceneID == gate.SceneReassigned:
		return OutcomeReassigned, true
	case v.SceneID == gate.SceneAbsorbed:
		return OutcomeAbsorbed, true
	case v.ToTitle:
		return OutcomeLateral, true
	}
	return "", false
}
