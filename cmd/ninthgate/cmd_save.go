package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/ninth-gate/internal/gate"
	"github.com/talgya/ninth-gate/internal/persistence"
)

var (
	statusReveal bool
	historyLimit int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session",
	Long: `Show where the saved session stands. Only what the player can see is
printed unless --reveal is given, which adds the hidden values and how
close each gate is to opening.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the saved session",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scene transitions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	s, err := db.LoadSession(cfg.SaveKey)
	if errors.Is(err, persistence.ErrNoSave) {
		fmt.Fprintln(out, "No saved session.")
		return nil
	}
	if err != nil {
		return err
	}

	t := newTable()
	t.Row("run", s.RunID)
	t.Row("scene", s.SceneID)
	t.Row("day", humanize.Ordinal(s.Day))
	t.Row("status", gate.ExhaustionLabel(s.Exhaustion))
	t.Row("actions", humanize.Comma(int64(s.Ticks)))

	if statusReveal {
		t.Row("stability", fmt.Sprintf("%.2f", s.Stability))
		t.Row("observation", fmt.Sprintf("%.2f", s.Observation))
		t.Row("regulation", fmt.Sprintf("%.2f", s.Regulation))
		t.Row("instability", fmt.Sprintf("%.2f", s.Instability))
		t.Row("compound", fmt.Sprintf("%.2f", s.Compound()))
		t.Row("seam exposure", fmt.Sprintf("%.2f", s.SeamExposure))
		t.Row("attention", fmt.Sprintf("%.2f", s.Attention))
		t.Row("near misses", fmt.Sprint(s.NearMisses))
		t.Row("absorbed event", fmt.Sprint(s.AbsorbedEventSeen))
		t.Row("flags", joinOrDash(s.Flags.Sorted()))
		t.Row("work history", joinOrDash(s.WorkHistory))
		t.Row("degrade risk", percent(gate.DegradeRisk(s)))
		if gate.IsAssessmentEligible(s) {
			t.Row("assessment", "eligible, "+percent(gate.AssessmentChance(s)))
		} else {
			t.Row("assessment", "not eligible")
		}
		if gate.LateralDoorReady(s) {
			t.Row("lateral door", "ready, "+percent(gate.LateralDoorChance(s)))
		} else {
			t.Row("lateral door", "closed")
		}
	}
	fmt.Fprintln(out, t)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ClearSession(cfg.SaveKey); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Save cleared.")
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ts, err := db.RecentTransitions(historyLimit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	total, err := db.CountTransitions()
	if err != nil {
		return fmt.Errorf("count journal: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(ts) == 0 {
		fmt.Fprintln(out, "No transitions recorded.")
		return nil
	}

	t := newTable().Headers("RUN", "DAY", "ACTION", "CAUSE", "FROM", "TO")
	for _, tr := range ts {
		t.Row(shortID(tr.RunID), fmt.Sprint(tr.Day), fmt.Sprint(tr.Tick), tr.Cause, tr.From, tr.To)
	}
	fmt.Fprintln(out, t)
	fmt.Fprintf(out, "\nshowing %d of %s transitions\n", len(ts), humanize.Comma(int64(total)))
	return nil
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
