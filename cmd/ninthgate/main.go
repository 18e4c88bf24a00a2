// Command ninthgate plays the Ninth Gate story in the terminal and gives
// authors tools to inspect saves and check the hidden gates.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/talgya/ninth-gate/internal/config"
	"github.com/talgya/ninth-gate/internal/engine"
	"github.com/talgya/ninth-gate/internal/entropy"
	"github.com/talgya/ninth-gate/internal/persistence"
	"github.com/talgya/ninth-gate/internal/story"
)

var (
	cfg     config.Config
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ninthgate",
	Short: "The Ninth Gate, a text story about routine and the way out of it",
	Long: `The Ninth Gate is a branching text story. Most of what decides where it
goes is hidden: the only thing you are ever shown is how tired you are.

Run without arguments to continue your session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playMode, "mode", string(engine.ModeContinue), "new or continue")
	statusCmd.Flags().BoolVar(&statusReveal, "reveal", false, "Also print hidden values and gate readiness")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of transitions to show")
	simulateCmd.Flags().IntVar(&simRuns, "runs", 1000, "Play-throughs to run")
	simulateCmd.Flags().IntVar(&simDays, "days", 60, "Stop a run after this many days")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger. The TUI owns the
// terminal while playing, so play logs to a file.
func setupLogging(cmd *cobra.Command) error {
	var w io.Writer = os.Stderr
	if !cmd.HasParent() || cmd.Name() == "play" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = f
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)
	return nil
}

func openDB() (*persistence.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("database opened", "path", cfg.DBPath)
	return db, nil
}

func loadStory() (*story.Story, error) {
	st, err := story.Open(cfg.StoryPath)
	if err != nil {
		return nil, fmt.Errorf("load story: %w", err)
	}
	return st, nil
}

func newEngine(st *story.Story, store engine.Store) *engine.Engine {
	e := engine.New(st, store, entropy.New(cfg.Seed))
	e.SaveKey = cfg.SaveKey
	e.Logger = slog.Default()
	return e
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false)
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
