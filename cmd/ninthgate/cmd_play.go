package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/talgya/ninth-gate/internal/engine"
	"github.com/talgya/ninth-gate/internal/persistence"
	"github.com/talgya/ninth-gate/internal/story"
	"github.com/talgya/ninth-gate/internal/tui"
)

var playMode string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Open the title screen. With --mode new the save is discarded and a new
session begins immediately; with --mode continue (the default) the title
screen is shown and the save is resumed from there.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	mode := engine.Mode(playMode)
	if mode != engine.ModeNew && mode != engine.ModeContinue {
		return fmt.Errorf("unknown mode %q: want new or continue", playMode)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := loadStory()
	if err != nil {
		return err
	}
	recordStory(db, st)

	e := newEngine(st, db)
	app := tui.NewApp(e, cfg.ChoiceDelay)
	if mode == engine.ModeNew {
		app.Begin(engine.ModeNew)
	}

	slog.Info("play started", "mode", mode, "story", st.Start, "save_key", cfg.SaveKey)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	slog.Info("play ended")
	return nil
}

// recordStory notes which story asset the save was made with and warns
// when it has changed since the last session.
func recordStory(db *persistence.DB, st *story.Story) {
	prev, err := db.GetMeta(persistence.MetaStoryChecksum)
	if err != nil {
		slog.Warn("read story checksum", "error", err)
	}
	if prev != "" && prev != st.Checksum() {
		slog.Warn("story asset changed since the last session", "previous", prev, "current", st.Checksum())
	}
	if err := db.SaveMeta(persistence.MetaStoryChecksum, st.Checksum()); err != nil {
		slog.Warn("save story checksum", "error", err)
	}
	path := cfg.StoryPath
	if path == "" {
		path = "embedded"
	}
	if err := db.SaveMeta(persistence.MetaStoryPath, path); err != nil {
		slog.Warn("save story path", "error", err)
	}
}
