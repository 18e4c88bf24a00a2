package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession("arc1_start")

	assert.Equal(t, "arc1_start", s.SceneID)
	assert.Equal(t, 1, s.Day)
	assert.Zero(t, s.Exhaustion)
	assert.Zero(t, s.Compound())
	assert.Zero(t, s.Instability)
	assert.Empty(t, s.Flags)
	assert.Empty(t, s.WorkHistory)
	assert.Empty(t, s.LastWork)
	assert.Zero(t, s.NearMisses)
	assert.Zero(t, s.Ticks)
	assert.Zero(t, s.SeamExposure)
	assert.Zero(t, s.Attention)
	assert.False(t, s.AbsorbedEventSeen)
	assert.NotEmpty(t, s.RunID)
	assert.NotEqual(t, s.RunID, NewSession("arc1_start").RunID)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("start")
	s.SetFlag("held_gaze")
	s.recordWork("work_brush_1")

	c := s.Clone()
	c.SetFlag("night_listen")
	c.WorkHistory[0] = "changed"

	assert.False(t, s.Flags.Has("night_listen"))
	assert.Equal(t, "work_brush_1", s.WorkHistory[0])
	assert.True(t, c.Flags.Has("held_gaze"))
}

func TestRecordWorkEvictsOldest(t *testing.T) {
	s := NewSession("start")
	for i := 0; i < 13; i++ {
		s.recordWork(workPool[i%len(workPool)])
	}
	require.Len(t, s.WorkHistory, MaxWorkHistory)
	// Entries 3..12 survive.
	assert.Equal(t, workPool[3], s.WorkHistory[0])
	assert.Equal(t, workPool[12%len(workPool)], s.LastWork)
}

func TestFlagSet(t *testing.T) {
	var empty FlagSet
	assert.False(t, empty.Has("x"))
	assert.False(t, empty.Any("x", "y"))

	s := &Session{}
	s.SetFlag("b")
	s.SetFlag("a")
	s.SetFlag("a")
	assert.Equal(t, []string{"a", "b"}, s.Flags.Sorted())
	assert.True(t, s.Flags.Any("z", "b"))
}

func TestExhaustionLabel(t *testing.T) {
	cases := map[int]string{
		-1: "Stable",
		0:  "Stable",
		1:  "Winded",
		2:  "Strained",
		3:  "Failing",
		4:  "Broken",
		9:  "Broken",
	}
	for n, want := range cases {
		assert.Equal(t, want, ExhaustionLabel(n), "level %d", n)
	}
}

func TestIsSystemScene(t *testing.T) {
	for _, id := range []string{SceneToTitle, SceneReset, SceneMorning, SceneWorkAssign} {
		assert.True(t, IsSystemScene(id), id)
	}
	for _, id := range append([]string{"arc1_start"}, OutputScenes...) {
		assert.False(t, IsSystemScene(id), id)
	}
}
