// Package gate is the hidden-state core of the story: the session record,
// the effect rules that mutate it, the routine-work selector, and the
// gates that decide which branch a new morning opens.
//
// Every function takes the session explicitly. Nothing here keeps state
// between calls, and every random draw goes through an entropy.Source.
package gate

import (
	"sort"

	"github.com/google/uuid"
)

// FlagSet is a set of narrative markers. Markers are only ever added.
type FlagSet map[string]bool

// Has reports whether name is set.
func (f FlagSet) Has(name string) bool { return f[name] }

// Any reports whether at least one of names is set.
func (f FlagSet) Any(names ...string) bool {
	for _, n := range names {
		if f[n] {
			return true
		}
	}
	return false
}

// Sorted returns the set members in lexical order.
func (f FlagSet) Sorted() []string {
	out := make([]string, 0, len(f))
	for name, on := range f {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Session is the full state of one play-through. Only Exhaustion is ever
// shown to the player.
type Session struct {
	RunID   string `json:"run_id"`
	SceneID string `json:"scene_id"`
	Day     int    `json:"day"`

	// Visible
	Exhaustion int `json:"exhaustion"` // 0–4, 4 is terminal

	// Hidden compound variables
	Stability   float64 `json:"stability"`
	Observation float64 `json:"observation"`
	Regulation  float64 `json:"regulation"`
	Instability float64 `json:"instability"`

	Flags FlagSet `json:"flags"`

	// Internal counters
	NearMisses        int      `json:"near_misses"`
	LastWork          string   `json:"last_work,omitempty"`
	WorkHistory       []string `json:"work_history"`
	AbsorbedEventSeen bool     `json:"absorbed_event_seen"`

	// Hidden progression pressure
	Ticks        int     `json:"ticks"`
	SeamExposure float64 `json:"seam_exposure"`
	Attention    float64 `json:"attention"`
}

// NewSession creates a fresh play-through positioned at start.
func NewSession(start string) *Session {
	return &Session{
		RunID:       uuid.NewString(),
		SceneID:     start,
		Day:         defaultStartDay,
		Flags:       FlagSet{},
		WorkHistory: []string{},
	}
}

// Compound is stability + observation + regulation, the readiness signal
// for official assessment.
func (s *Session) Compound() float64 {
	return s.Stability + s.Observation + s.Regulation
}

// SetFlag adds a marker. Setting an existing marker is a no-op.
func (s *Session) SetFlag(name string) {
	if s.Flags == nil {
		s.Flags = FlagSet{}
	}
	s.Flags[name] = true
}

// Terminal reports whether exhaustion has reached the absorbed state.
func (s *Session) Terminal() bool {
	return s.Exhaustion >= MaxExhaustion
}

// Clone returns a deep copy, safe to hand to readers outside the owner.
func (s *Session) Clone() *Session {
	c := *s
	c.Flags = make(FlagSet, len(s.Flags))
	for k, v := range s.Flags {
		c.Flags[k] = v
	}
	c.WorkHistory = append([]string{}, s.WorkHistory...)
	return &c
}

// recordWork appends id to the work history, evicting the oldest entries
// beyond MaxWorkHistory.
func (s *Session) recordWork(id string) {
	s.LastWork = id
	s.WorkHistory = append(s.WorkHistory, id)
	if len(s.WorkHistory) > MaxWorkHistory {
		s.WorkHistory = s.WorkHistory[len(s.WorkHistory)-MaxWorkHistory:]
	}
}

func clamp(n, lo, hi float64) float64 {
	if n > hi {
		return hi
	}
	if n >= lo {
		return n
	}
	// Below range, or NaN.
	return lo
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
