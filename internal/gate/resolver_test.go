package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ninth-gate/internal/entropy"
)

type hop struct{ from, to string }

func newTestResolver(src entropy.Source) (*Resolver, *[]hop) {
	var hops []hop
	r := NewResolver("arc1_start", src)
	r.OnHop = func(_ *Session, from, to string) {
		hops = append(hops, hop{from, to})
	}
	return r, &hops
}

func TestResolveExhaustionCapsAndAbsorbs(t *testing.T) {
	s := NewSession("arc1_start")
	for i := 0; i < 5; i++ {
		ApplyEffects(s, Effects{Exhaustion: Delta(1)})
	}
	require.Equal(t, MaxExhaustion, s.Exhaustion)

	for _, scene := range []string{"arc1_start", SceneMorning, SceneWorkAssign, SceneReset, SceneToTitle} {
		c := s.Clone()
		c.SceneID = scene
		r, _ := newTestResolver(noDraw{t})
		assert.Equal(t, SceneAbsorbed, r.Resolve(c), scene)
		assert.Equal(t, SceneAbsorbed, c.SceneID)
	}
}

func TestResolveMorningNotEligibleGoesToWork(t *testing.T) {
	for _, draw := range []float64{0, 0.99} {
		s := NewSession("arc1_start")
		s.Day = 5
		s.SceneID = SceneMorning
		r, hops := newTestResolver(entropy.Fixed(draw))

		got := r.Resolve(s)

		assert.Equal(t, 6, s.Day)
		assert.Contains(t, WorkPool(), got)
		assert.NotEqual(t, SceneReassigned, got)
		assert.NotEqual(t, SceneNearMiss, got)
		assert.Zero(t, s.NearMisses)
		assert.Equal(t, []hop{{SceneMorning, SceneWorkAssign}, {SceneWorkAssign, got}}, *hops)
	}
}

func assessmentReadySession() *Session {
	s := NewSession("arc1_start")
	s.Day = 10
	s.Stability, s.Observation, s.Regulation = 4, 4, 4
	s.Instability = 0
	s.Exhaustion = 0
	s.SetFlag("counted_cycle")
	s.SceneID = SceneMorning
	return s
}

func TestResolveAssessmentSuccess(t *testing.T) {
	s := assessmentReadySession()
	r, _ := newTestResolver(entropy.Fixed(0))

	assert.Equal(t, SceneReassigned, r.Resolve(s))
	assert.Equal(t, 11, s.Day)
	assert.Zero(t, s.NearMisses)
}

func TestResolveAssessmentNearMiss(t *testing.T) {
	s := assessmentReadySession()
	r, _ := newTestResolver(entropy.Fixed(0.99))

	assert.Equal(t, SceneNearMiss, r.Resolve(s))
	assert.Equal(t, 1, s.NearMisses)
	assert.Zero(t, s.Exhaustion, "0.99 clears the degrade roll")
}

func TestResolveHiddenDoorBeatsAssessment(t *testing.T) {
	s := assessmentReadySession()
	s.Observation = 6
	s.SetFlag("forced_seam")
	s.SeamExposure = 5
	r, _ := newTestResolver(entropy.Fixed(0))

	assert.Equal(t, SceneHiddenDoor, r.Resolve(s))
	assert.Zero(t, s.NearMisses)
}

func TestResolveMorningDegradeIntoAbsorption(t *testing.T) {
	s := NewSession("arc1_start")
	s.Exhaustion = 3
	s.SceneID = SceneMorning
	r, hops := newTestResolver(entropy.Fixed(0))

	assert.Equal(t, SceneAbsorbed, r.Resolve(s))
	assert.Equal(t, []hop{{SceneMorning, SceneWorkAssign}, {SceneWorkAssign, SceneAbsorbed}}, *hops)
	assert.Empty(t, s.WorkHistory, "no work is picked once absorbed")
}

func TestResolveReset(t *testing.T) {
	s := NewSession("arc1_start")
	oldRun := s.RunID
	s.Day = 9
	s.Stability = 3
	s.NearMisses = 2
	s.SetFlag("held_gaze")
	s.recordWork("work_brush_1")
	s.SceneID = SceneReset
	r, hops := newTestResolver(noDraw{t})

	assert.Equal(t, "arc1_start", r.Resolve(s))
	assert.Equal(t, 1, s.Day)
	assert.Zero(t, s.Stability)
	assert.Zero(t, s.NearMisses)
	assert.Empty(t, s.Flags)
	assert.Empty(t, s.WorkHistory)
	assert.NotEqual(t, oldRun, s.RunID)
	assert.Equal(t, []hop{{SceneReset, "arc1_start"}}, *hops)
}

func TestResolveWorkAssignStops(t *testing.T) {
	s := NewSession("arc1_start")
	s.SceneID = SceneWorkAssign
	r, _ := newTestResolver(entropy.Fixed(0))

	assert.Equal(t, "work_brush_1", r.Resolve(s))
	assert.Equal(t, 1, s.Day, "work assignment does not advance the day")
}

func TestResolvePassesThroughOrdinaryAndTitle(t *testing.T) {
	for _, scene := range []string{"arc1_start", "no_such_scene", SceneToTitle, SceneNearMiss} {
		s := NewSession("arc1_start")
		s.SceneID = scene
		r, hops := newTestResolver(noDraw{t})

		assert.Equal(t, scene, r.Resolve(s))
		assert.Empty(t, *hops)
	}
}

func TestResolveStopsOnRunawayReset(t *testing.T) {
	s := NewSession(SceneReset)
	s.SceneID = SceneReset
	r, hops := newTestResolver(noDraw{t})
	r.Start = SceneReset

	// A story whose start is itself a reset never settles; the hop guard
	// ends the loop.
	assert.Equal(t, SceneReset, r.Resolve(s))
	assert.Empty(t, *hops)
}
