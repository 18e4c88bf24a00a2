// Package tui is the terminal front end: a title screen and a scene view
// with numbered choices. It follows the bubbletea model/update/view loop
// and only ever talks to the engine.
package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/ninth-gate/internal/engine"
)

// screen is which view is active.
type screen int

const (
	screenTitle screen = iota
	screenScene
)

// choiceReadyMsg fires when the pause after a click is over.
type choiceReadyMsg struct {
	index int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C9A227")).
			MarginBottom(1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")).
			MarginBottom(1)
	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	waitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// App is the bubbletea model.
type App struct {
	engine *engine.Engine
	delay  time.Duration
	logger *slog.Logger

	screen  screen
	view    engine.View
	cursor  int
	waiting bool // a choice was made and is pending
	note    string
	err     error

	width int
}

// NewApp creates the model. delay is the pause between picking a choice
// and applying it; input is ignored while it runs.
func NewApp(e *engine.Engine, delay time.Duration) *App {
	return &App{engine: e, delay: delay, logger: slog.Default()}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case choiceReadyMsg:
		return a, a.applyChoice(msg.index)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			return a, tea.Quit
		}
		if a.waiting {
			return a, nil
		}
		if a.screen == screenTitle {
			return a, a.handleTitleKey(key)
		}
		return a, a.handleSceneKey(key)
	}
	return a, nil
}

func (a *App) handleTitleKey(key string) tea.Cmd {
	switch key {
	case "n":
		a.Begin(engine.ModeNew)
	case "c", "enter":
		a.Begin(engine.ModeContinue)
	}
	return nil
}

func (a *App) handleSceneKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.view.Choices)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.pick(a.cursor)
	case "r":
		if err := a.engine.Reset(); err != nil {
			a.err = err
			return nil
		}
		a.toTitle("The save was cleared.")
	case "t", "esc":
		a.toTitle("")
	case "n":
		if a.view.Ending {
			a.Begin(engine.ModeNew)
		}
	default:
		if n, err := strconv.Atoi(key); err == nil {
			return a.pick(n - 1)
		}
	}
	return nil
}

// pick starts the pause before a choice is applied.
func (a *App) pick(index int) tea.Cmd {
	if index < 0 || index >= len(a.view.Choices) {
		return nil
	}
	a.cursor = index
	a.waiting = true
	return tea.Tick(a.delay, func(time.Time) tea.Msg {
		return choiceReadyMsg{index: index}
	})
}

func (a *App) applyChoice(index int) tea.Cmd {
	a.waiting = false
	v, err := a.engine.Choose(index)
	if err != nil {
		a.logger.Error("choice failed", "index", index, "error", err)
		a.err = err
		return nil
	}
	a.show(v)
	return nil
}

// Begin starts or resumes a session and shows its first scene.
func (a *App) Begin(mode engine.Mode) {
	v, err := a.engine.Start(mode)
	if err != nil {
		a.logger.Error("start failed", "mode", mode, "error", err)
		a.err = err
		return
	}
	if v.ToTitle {
		a.note = "That run ended. Press n to begin again."
		return
	}
	a.show(v)
}

func (a *App) show(v engine.View) {
	a.err = nil
	a.note = ""
	if v.ToTitle {
		a.toTitle("")
		return
	}
	a.view = v
	a.cursor = 0
	a.screen = screenScene
}

func (a *App) toTitle(note string) {
	a.screen = screenTitle
	a.view = engine.View{}
	a.cursor = 0
	a.note = note
}

// View implements tea.Model.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 80
	}
	var content string
	switch a.screen {
	case screenTitle:
		content = a.renderTitle()
	case screenScene:
		content = a.renderScene(width)
	}
	if a.err != nil {
		content += "\n" + errStyle.Render(a.err.Error())
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (a *App) renderTitle() string {
	lines := []string{
		titleStyle.Render("THE NINTH GATE"),
		"[n] new session",
		"[c] continue",
		"[q] quit",
	}
	if a.note != "" {
		lines = append(lines, "", statusStyle.Render(a.note))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderScene(width int) string {
	var b strings.Builder
	b.WriteString(statusStyle.Render(a.view.Status))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Width(max(20, width-4)).Render(strings.TrimSpace(a.view.Text)))
	b.WriteString("\n")

	for i, label := range a.view.Choices {
		line := fmt.Sprintf("%d. %s", i+1, label)
		switch {
		case a.waiting && i != a.cursor:
			line = waitStyle.Render("  " + line)
		case i == a.cursor:
			line = cursorStyle.Render("> " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	hint := "↑/↓ choose · enter confirm · t title · r reset · q quit"
	if a.view.Ending {
		hint = "n begin again · t title · q quit"
	}
	b.WriteString(hintStyle.Render(hint))
	return b.String()
}
