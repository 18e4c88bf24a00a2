package gate

import (
	"log/slog"

	"github.com/talgya/ninth-gate/internal/entropy"
)

// Resolver turns system scene identifiers into concrete story scenes.
type Resolver struct {
	Start  string         // scene a reset returns to
	Rand   entropy.Source // every gate roll draws from here
	Logger *slog.Logger

	// OnHop is called for every transition the resolver makes.
	OnHop func(s *Session, from, to string)
}

// NewResolver creates a resolver for a story that starts at start.
func NewResolver(start string, src entropy.Source) *Resolver {
	return &Resolver{Start: start, Rand: src, Logger: slog.Default()}
}

// Resolve settles s.SceneID on something the story layer can show and
// returns it. Ordinary scenes and the title instruction come back
// unchanged. The loop terminates within four hops: reset then start, or
// morning then work assignment then absorption.
func (r *Resolver) Resolve(s *Session) string {
	for hop := 0; hop < maxResolveHops; hop++ {
		from := s.SceneID
		more := r.step(s)
		r.hop(s, from)
		if !more {
			return s.SceneID
		}
	}
	r.logger().Error("scene resolution did not settle", "scene", s.SceneID, "hops", maxResolveHops)
	return s.SceneID
}

// step applies one transition. It reports whether the new scene needs
// another pass.
func (r *Resolver) step(s *Session) bool {
	// Broken means absorbed, whatever was queued.
	if s.Terminal() {
		s.SceneID = SceneAbsorbed
		return false
	}

	switch s.SceneID {
	case SceneReset:
		*s = *NewSession(r.Start)
		return true

	case SceneWorkAssign:
		s.SceneID = PickWork(s, r.Rand)
		return false

	case SceneMorning:
		r.morning(s)
		return s.SceneID == SceneWorkAssign
	}
	return false
}

// morning advances the day and runs the gates in order: degrade, lateral
// door, then official assessment.
func (r *Resolver) morning(s *Session) {
	s.Day++
	DegradeTick(s, r.Rand)

	if LateralDoorAvailable(s, r.Rand) {
		s.SceneID = SceneHiddenDoor
		return
	}

	if !IsAssessmentEligible(s) {
		// Not yet: back to the routine.
		s.SceneID = SceneWorkAssign
		return
	}

	if r.Rand.Float() < AssessmentChance(s) {
		s.SceneID = SceneReassigned
		return
	}
	s.NearMisses++
	s.SceneID = SceneNearMiss
}

func (r *Resolver) hop(s *Session, from string) {
	if from == s.SceneID {
		return
	}
	r.logger().Debug("scene resolved", "from", from, "to", s.SceneID, "day", s.Day)
	if r.OnHop != nil {
		r.OnHop(s, from, s.SceneID)
	}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
