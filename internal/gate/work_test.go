package gate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/ninth-gate/internal/entropy"
)

func TestPickWorkRouletteEnds(t *testing.T) {
	s := NewSession("start")
	assert.Equal(t, "work_brush_1", PickWork(s, entropy.Fixed(0)))

	s = NewSession("start")
	// Weights 1,1,1,1,0.8,0.9: a draw near the top lands on crates.
	assert.Equal(t, "work_crates_1", PickWork(s, entropy.Fixed(0.99)))
}

func TestPickWorkRecordsHistory(t *testing.T) {
	s := NewSession("start")
	src := entropy.NewSeeded(5)
	for i := 0; i < 25; i++ {
		id := PickWork(s, src)
		require.Equal(t, id, s.LastWork)
		require.Equal(t, id, s.WorkHistory[len(s.WorkHistory)-1])
		require.LessOrEqual(t, len(s.WorkHistory), MaxWorkHistory)
	}
	assert.Len(t, s.WorkHistory, MaxWorkHistory)
}

func TestPickWorkAvoidsRecentAssignments(t *testing.T) {
	s := NewSession("start")
	s.LastWork = "work_brush_1"
	s.WorkHistory = []string{"work_linen_1", "work_water_1", "work_brush_1"}

	got := workCandidates(s, workPool[:])
	assert.Equal(t, []string{"work_linen_1", "work_plaque_1", "work_mortar_1", "work_crates_1"}, got)

	// With a single history entry only the last assignment is excluded.
	s.WorkHistory = []string{"work_brush_1"}
	assert.Len(t, workCandidates(s, workPool[:]), len(workPool)-1)
}

func TestWorkCandidatesFallback(t *testing.T) {
	pool := []string{"a", "b"}

	s := NewSession("start")
	s.LastWork = "a"
	s.WorkHistory = []string{"b", "a"}

	// Excluding the last two empties the set, so only "a" is excluded.
	assert.Equal(t, []string{"b"}, workCandidates(s, pool))
	assert.Equal(t, "b", pickWork(s, entropy.Fixed(0.5), pool))
	assert.Equal(t, []string{"a", "b"}, pool)
}

func TestWorkPoolReturnsCopy(t *testing.T) {
	got := WorkPool()
	require.Len(t, got, len(workPool))
	got[0] = "tampered"

	assert.Equal(t, "work_brush_1", WorkPool()[0])
	assert.Equal(t, "work_brush_1", PickWork(NewSession("start"), entropy.Fixed(0)))
}

func TestWorkWeight(t *testing.T) {
	assert.Equal(t, 1.0, workWeight("work_brush_1", 4))
	assert.InDelta(t, 0.8, workWeight(workMortar, 0), 1e-9)
	assert.InDelta(t, 0.4, workWeight(workMortar, 4), 1e-9)
	assert.InDelta(t, 0.9, workWeight(workCrates, 0), 1e-9)
	assert.InDelta(t, 0.58, workWeight(workCrates, 4), 1e-9)
	assert.Equal(t, minWorkWeight, workWeight(workMortar, 10))
}

func TestPickWorkFatigueShiftsOdds(t *testing.T) {
	count := func(exhaustion int) int {
		src := entropy.NewSeeded(99)
		mortar := 0
		for i := 0; i < 3000; i++ {
			s := NewSession("start")
			s.Exhaustion = exhaustion
			if PickWork(s, src) == workMortar {
				mortar++
			}
		}
		return mortar
	}
	assert.Greater(t, count(0), count(4))
}

func TestPickWorkNeverRepeatsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	pool := make([]interface{}, len(workPool))
	for i, id := range workPool {
		pool[i] = id
	}

	properties.Property("never picks the last or the two most recent assignments", prop.ForAll(
		func(history []string, exhaustion int, draw float64) bool {
			s := NewSession("start")
			s.Exhaustion = exhaustion
			if len(history) > 0 {
				s.WorkHistory = append([]string{}, history...)
				s.LastWork = history[len(history)-1]
			}
			got := PickWork(s, entropy.Fixed(draw))
			if got == "" || got == history0(history, 1) || got == history0(history, 2) {
				return false
			}
			return len(s.WorkHistory) <= MaxWorkHistory
		},
		gen.SliceOfN(10, gen.OneConstOf(pool...)).Map(func(v []string) []string {
			out := make([]string, len(v))
			copy(out, v)
			return out
		}),
		gen.IntRange(0, MaxExhaustion),
		gen.Float64Range(0, 0.999999),
	))

	properties.TestingRun(t)
}

// history0 returns the n-th most recent entry, or "" when there is none.
func history0(h []string, n int) string {
	if len(h) < n {
		return ""
	}
	return h[len(h)-n]
}
