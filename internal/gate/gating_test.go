package gate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/talgya/ninth-gate/internal/entropy"
)

// noDraw fails the test if a gate consults randomness.
type noDraw struct{ t *testing.T }

func (n noDraw) Float() float64 {
	n.t.Helper()
	n.t.Fatalf("unexpected random draw")
	return 0
}

func TestDegradeRisk(t *testing.T) {
	s := NewSession("start")
	assert.InDelta(t, 0.28, DegradeRisk(s), 1e-9, "fresh session pays for missing regulation")

	s.Day = 7
	s.Attention = 5
	s.Instability = 1
	s.Regulation = 1
	assert.InDelta(t, 0.54, DegradeRisk(s), 1e-9)

	s.Instability = 20
	assert.Equal(t, degradeMax, DegradeRisk(s))

	s = NewSession("start")
	s.Regulation = 10
	s.Instability = -10
	assert.Equal(t, degradeMin, DegradeRisk(s), "risk never reaches zero")
}

func TestDegradeTick(t *testing.T) {
	s := NewSession("start")
	DegradeTick(s, entropy.Fixed(0.2))
	assert.Equal(t, 1, s.Exhaustion)

	DegradeTick(s, entropy.Fixed(0.3))
	assert.Equal(t, 1, s.Exhaustion)

	s.Exhaustion = MaxExhaustion
	DegradeTick(s, entropy.Fixed(0))
	assert.Equal(t, MaxExhaustion, s.Exhaustion)
}

func TestDegradeRiskMonotonicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	session := func(day int, attention, instability, regulation float64) *Session {
		s := NewSession("start")
		s.Day = day
		s.Attention = attention
		s.Instability = instability
		s.Regulation = regulation
		return s
	}

	properties.Property("risk stays within bounds and responds in the right direction", prop.ForAll(
		func(day int, attention, instability, regulation, step float64) bool {
			base := DegradeRisk(session(day, attention, instability, regulation))
			if base < degradeMin || base > degradeMax {
				return false
			}
			return DegradeRisk(session(day+1, attention, instability, regulation)) >= base &&
				DegradeRisk(session(day, attention+step, instability, regulation)) >= base &&
				DegradeRisk(session(day, attention, instability+step, regulation)) >= base &&
				DegradeRisk(session(day, attention, instability, regulation+step)) <= base
		},
		gen.IntRange(1, 60),
		gen.Float64Range(0, 20),
		gen.Float64Range(-5, 25),
		gen.Float64Range(-5, 15),
		gen.Float64Range(0, 3),
	))

	properties.TestingRun(t)
}

func eligibleSession() *Session {
	s := NewSession("start")
	s.Day = 6
	s.Stability = 4
	s.Observation = 3
	s.Regulation = 3
	s.Instability = 4.5
	s.Exhaustion = 2
	s.SetFlag("controlled_breath")
	return s
}

func TestIsAssessmentEligible(t *testing.T) {
	assert.True(t, IsAssessmentEligible(eligibleSession()))

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"too early", func(s *Session) { s.Day = 5 }},
		{"compound short", func(s *Session) { s.Regulation = 2.9 }},
		{"too unstable", func(s *Session) { s.Instability = 4.6 }},
		{"too exhausted", func(s *Session) { s.Exhaustion = 3 }},
		{"no pattern", func(s *Session) { s.Flags = FlagSet{"held_gaze": true} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := eligibleSession()
			tt.mutate(s)
			assert.False(t, IsAssessmentEligible(s))
		})
	}
}

func TestIsAssessmentEligibleNeverBeforeDaySixProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("day < 6 is never eligible", prop.ForAll(
		func(day int, compound float64) bool {
			s := eligibleSession()
			s.Day = day
			s.Stability = compound
			return !IsAssessmentEligible(s)
		},
		gen.IntRange(-10, 5),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func TestAssessmentChance(t *testing.T) {
	assert.Equal(t, assessmentMin, AssessmentChance(eligibleSession()))

	s := NewSession("start")
	s.Day = 30
	s.Stability = 30
	assert.InDelta(t, 0.58, AssessmentChance(s), 1e-9)

	s = NewSession("start")
	s.Day = 10
	s.Stability, s.Observation, s.Regulation = 4, 4, 4
	assert.InDelta(t, 0.31, AssessmentChance(s), 1e-9)
	s.Exhaustion = 1
	assert.InDelta(t, 0.23, AssessmentChance(s), 1e-9)
}

func TestAssessmentChanceBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("chance stays within 0.03..0.65", prop.ForAll(
		func(day, exhaustion int, stability, observation, regulation, instability float64) bool {
			s := NewSession("start")
			s.Day = day
			s.Exhaustion = exhaustion
			s.Stability = stability
			s.Observation = observation
			s.Regulation = regulation
			s.Instability = instability
			p := AssessmentChance(s)
			return p >= assessmentMin && p <= assessmentMax
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-10, 10),
		gen.Float64(),
		gen.Float64(),
		gen.Float64(),
		gen.Float64(),
	))

	properties.TestingRun(t)
}

func readySession() *Session {
	s := NewSession("start")
	s.Day = 5
	s.Exhaustion = 2
	s.Observation = 6
	s.Instability = 6
	s.SeamExposure = 5
	return s
}

func TestLateralDoorReady(t *testing.T) {
	assert.True(t, LateralDoorReady(readySession()))

	viaFlags := readySession()
	viaFlags.Observation = 0
	viaFlags.Instability = 0
	viaFlags.SetFlag("night_listen")
	viaFlags.SetFlag("broke_rhythm")
	assert.True(t, LateralDoorReady(viaFlags))
}

func TestLateralDoorClosedWithoutDraw(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"too early", func(s *Session) { s.Day = 4 }},
		{"too exhausted", func(s *Session) { s.Exhaustion = 3 }},
		{"not observant", func(s *Session) { s.Observation = 5.9 }},
		{"not deviant", func(s *Session) { s.Instability = 5.9 }},
		{"seam unexposed", func(s *Session) { s.SeamExposure = 4.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readySession()
			tt.mutate(s)
			assert.False(t, LateralDoorAvailable(s, noDraw{t}))
		})
	}
}

func TestLateralDoorChance(t *testing.T) {
	s := readySession()
	assert.InDelta(t, 0.06, LateralDoorChance(s), 1e-9)

	s.SeamExposure = 20
	assert.InDelta(t, 0.24, LateralDoorChance(s), 1e-9)

	s.Attention = 2
	assert.InDelta(t, 0.18, LateralDoorChance(s), 1e-9)

	s.SeamExposure = 5
	s.Attention = 10
	assert.Equal(t, lateralMin, LateralDoorChance(s))
}

func TestLateralDoorAvailableRolls(t *testing.T) {
	s := readySession()
	assert.True(t, LateralDoorAvailable(s, entropy.Fixed(0.05)))
	assert.False(t, LateralDoorAvailable(s, entropy.Fixed(0.07)))
}

func TestLateralDoorRareUnderBlindAttempts(t *testing.T) {
	// A player who never builds seam exposure never sees the door, no
	// matter how many mornings pass.
	src := entropy.NewSeeded(1)
	s := readySession()
	s.SeamExposure = 0
	for day := 5; day < 200; day++ {
		s.Day = day
		assert.False(t, LateralDoorAvailable(s, src))
	}
}
