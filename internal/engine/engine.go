// Package engine drives a play-through: it owns the session, applies the
// player's choices, asks the gate core to resolve system scenes, falls
// back to the start scene when the story cannot show where it landed, and
// saves after every cycle.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/ninth-gate/internal/entropy"
	"github.com/talgya/ninth-gate/internal/gate"
	"github.com/talgya/ninth-gate/internal/story"
)

// DefaultSaveKey is the single save slot a player has.
const DefaultSaveKey = "ninthGateSave_v1"

var (
	// ErrNoSave is returned by a Store when the slot is empty.
	ErrNoSave = errors.New("no saved session")

	// ErrNotStarted is returned before Start has been called, or after Reset.
	ErrNotStarted = errors.New("no session in progress")

	// ErrChoiceOutOfRange is returned for a choice the current scene does
	// not offer.
	ErrChoiceOutOfRange = errors.New("choice out of range")
)

// Mode selects how Start treats an existing save.
type Mode string

const (
	ModeNew      Mode = "new"      // discard any save and start fresh
	ModeContinue Mode = "continue" // resume the save, or start fresh if there is none
)

// Store persists the session snapshot and the transition journal.
type Store interface {
	SaveSession(key string, s *gate.Session) error
	LoadSession(key string) (*gate.Session, error)
	ClearSession(key string) error
	AppendTransitions(ts []Transition) error
}

// Transition is one scene change within a run.
type Transition struct {
	RunID string `db:"run_id" json:"run_id"`
	Day   int    `db:"day" json:"day"`
	Tick  int    `db:"tick" json:"tick"`
	From  string `db:"from_scene" json:"from"`
	To    string `db:"to_scene" json:"to"`
	Cause string `db:"cause" json:"cause"` // "choice", "resolve" or "failsafe"
}

// View is everything the UI may show for the current scene. Hidden
// values never leave the engine through it.
type View struct {
	SceneID string
	Text    string
	Choices []string
	Status  string // exhaustion label
	Day     int
	ToTitle bool // the story asked to go back to the title screen
	Ending  bool // the scene offers no choices
}

// Engine runs one session at a time. All methods are safe for concurrent
// use; each holds the engine for a full choose-resolve-save cycle.
type Engine struct {
	Story   *story.Story
	Store   Store
	Rand    entropy.Source
	SaveKey string
	Logger  *slog.Logger

	// OnTransition is called for each journaled transition, after it has
	// been handed to the store.
	OnTransition func(Transition)

	mu       sync.Mutex
	session  *gate.Session
	resolver *gate.Resolver
	pending  []Transition
}

// New creates an engine for st. The session is not loaded until Start.
func New(st *story.Story, store Store, src entropy.Source) *Engine {
	e := &Engine{
		Story:   st,
		Store:   store,
		Rand:    src,
		SaveKey: DefaultSaveKey,
		Logger:  slog.Default(),
	}
	e.resolver = gate.NewResolver(st.Start, src)
	e.resolver.OnHop = func(s *gate.Session, from, to string) {
		e.record(s, from, to, "resolve")
	}
	return e
}

// Start opens a session according to mode and settles it on a scene.
func (e *Engine) Start(mode Mode) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session = nil

	switch mode {
	case ModeNew:
		if err := e.Store.ClearSession(e.SaveKey); err != nil {
			return View{}, fmt.Errorf("clear save: %w", err)
		}
	case ModeContinue:
		s, err := e.Store.LoadSession(e.SaveKey)
		switch {
		case err == nil:
			e.session = s
		case errors.Is(err, ErrNoSave):
		default:
			// An unreadable save is treated like no save at all.
			e.Logger.Warn("discarding unreadable save", "key", e.SaveKey, "error", err)
		}
	default:
		return View{}, fmt.Errorf("unknown mode %q", mode)
	}

	if e.session == nil {
		e.session = gate.NewSession(e.Story.Start)
		e.Logger.Info("new session", "run_id", e.session.RunID)
	} else {
		e.Logger.Info("session resumed", "run_id", e.session.RunID, "day", e.session.Day, "scene", e.session.SceneID)
	}
	return e.settle()
}

// View returns the current scene without changing anything.
func (e *Engine) View() (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return View{}, ErrNotStarted
	}
	return e.view(), nil
}

// Choose takes the choice at index in the current scene: its effects are
// applied, the hidden die is rolled, and the next scene is resolved.
func (e *Engine) Choose(index int) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil {
		return View{}, ErrNotStarted
	}
	sc, ok := e.Story.Scene(s.SceneID)
	if !ok || index < 0 || index >= len(sc.Choices) {
		return View{}, fmt.Errorf("%w: %d in %q", ErrChoiceOutOfRange, index, s.SceneID)
	}
	choice := sc.Choices[index]

	gate.ApplyEffects(s, choice.Effects)
	if choice.Next == gate.SceneAbsorption {
		s.AbsorbedEventSeen = true
	}

	// The die is part of the canon but nothing reads it yet.
	die := entropy.RollD20(e.Rand)
	e.Logger.Debug("hidden die", "roll", die)

	from := s.SceneID
	s.SceneID = choice.Next
	e.record(s, from, choice.Next, "choice")

	return e.settle()
}

// Reset discards the save and the session. The caller returns to the
// title screen and starts again with Start.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session = nil
	e.pending = nil
	if err := e.Store.ClearSession(e.SaveKey); err != nil {
		return fmt.Errorf("clear save: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the session, or nil before Start.
func (e *Engine) Snapshot() *gate.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	return e.session.Clone()
}

// settle resolves the current scene until it is something the story can
// show, saves, and flushes the journal. Callers hold e.mu.
func (e *Engine) settle() (View, error) {
	// Rand and Logger may be swapped after New; the gates follow them.
	e.resolver.Rand = e.Rand
	e.resolver.Logger = e.Logger

	s := e.session
	e.resolver.Resolve(s)

	if s.SceneID != gate.SceneToTitle {
		if _, ok := e.Story.Scene(s.SceneID); !ok {
			e.Logger.Warn("unknown scene, returning to start", "scene", s.SceneID, "start", e.Story.Start)
			from := s.SceneID
			s.SceneID = e.Story.Start
			e.record(s, from, s.SceneID, "failsafe")
			e.resolver.Resolve(s)
			if _, ok := e.Story.Scene(s.SceneID); !ok {
				return View{}, fmt.Errorf("%w: %q", story.ErrMissingStart, s.SceneID)
			}
		}
	}

	e.save()
	return e.view(), nil
}

func (e *Engine) save() {
	// A failed save is logged and play goes on.
	if err := e.Store.SaveSession(e.SaveKey, e.session); err != nil {
		e.Logger.Error("save failed", "key", e.SaveKey, "error", err)
	}
	if len(e.pending) == 0 {
		return
	}
	if err := e.Store.AppendTransitions(e.pending); err != nil {
		e.Logger.Error("journal write failed", "count", len(e.pending), "error", err)
	}
	if e.OnTransition != nil {
		for _, t := range e.pending {
			e.OnTransition(t)
		}
	}
	e.pending = e.pending[:0]
}

func (e *Engine) record(s *gate.Session, from, to, cause string) {
	e.pending = append(e.pending, Transition{
		RunID: s.RunID,
		Day:   s.Day,
		Tick:  s.Ticks,
		From:  from,
		To:    to,
		Cause: cause,
	})
}

func (e *Engine) view() View {
	s := e.session
	v := View{
		SceneID: s.SceneID,
		Status:  gate.ExhaustionLabel(s.Exhaustion),
		Day:     s.Day,
	}
	if s.SceneID == gate.SceneToTitle {
		v.ToTitle = true
		return v
	}
	sc, ok := e.Story.Scene(s.SceneID)
	if !ok {
		return v
	}
	v.Text = sc.Text
	for _, c := range sc.Choices {
		v.Choices = append(v.Choices, c.Label)
	}
	v.Ending = sc.Ending()
	return v
}
