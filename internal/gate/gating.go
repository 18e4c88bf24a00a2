package gate

import (
	"math"

	"github.com/talgya/ninth-gate/internal/entropy"
)

// DegradeRisk is the chance that tonight costs the player an exhaustion
// level. It never drops below the base rate: there are no neutral days.
func DegradeRisk(s *Session) float64 {
	timeBoost := clamp(float64(s.Day-1)*degradeDaySlope, 0, degradeDayCap)
	attentionBoost := clamp(s.Attention*degradeAttentionSlope, 0, degradeAttentionCap)
	instabilityBoost := s.Instability * degradeInstability
	regulationGap := math.Max(0, degradeRegulationNeed-s.Regulation) * degradeRegulationGap

	return clamp(degradeBase+timeBoost+attentionBoost+instabilityBoost+regulationGap, degradeMin, degradeMax)
}

// DegradeTick rolls the nightly degrade check and raises exhaustion on a hit.
func DegradeTick(s *Session, src entropy.Source) {
	if src.Float() < DegradeRisk(s) {
		s.Exhaustion = clampInt(s.Exhaustion+1, 0, MaxExhaustion)
	}
}

// IsAssessmentEligible reports whether the Gate will consider the player
// for official reassignment this morning.
func IsAssessmentEligible(s *Session) bool {
	// The Gate needs time to observe you.
	if s.Day < assessmentMinDay {
		return false
	}
	return s.Compound() >= assessmentMinCompound &&
		s.Instability <= assessmentMaxInstability &&
		s.Exhaustion <= assessmentMaxExhaustion &&
		s.Flags.Any(patternFlags...)
}

// AssessmentChance is the success probability of an eligible assessment.
// It starts low, rises slowly with sustained alignment, and is never
// certain.
func AssessmentChance(s *Session) float64 {
	compBoost := clamp((s.Compound()-assessmentMinCompound)*assessmentCompoundSlope, 0, assessmentCompoundCap)
	dayBoost := clamp(float64(s.Day-assessmentMinDay)*assessmentDaySlope, 0, assessmentDayCap)
	instabilityPenalty := clamp(s.Instability*assessmentInstSlope, 0, assessmentInstCap)
	exhaustionPenalty := clamp(float64(s.Exhaustion)*assessmentExhaustionSlope, 0, assessmentExhaustionCap)

	return clamp(assessmentBase+compBoost+dayBoost-instabilityPenalty-exhaustionPenalty, assessmentMin, assessmentMax)
}

// LateralDoorReady reports whether the hidden lateral route is open to a
// roll at all. It needs time in the loop, enough strength left, signals
// of both observation and deliberate instability, and sustained seam
// exposure.
func LateralDoorReady(s *Session) bool {
	if s.Day < lateralMinDay || s.Exhaustion >= lateralMaxExhaustion {
		return false
	}
	observed := s.Observation >= lateralObservationNeed || s.Flags.Any(lateralObservationFlags...)
	deviated := s.Instability >= lateralInstabilityNeed || s.Flags.Any(lateralInstabilityFlags...)
	exposed := s.SeamExposure >= lateralSeamNeed
	return observed && deviated && exposed
}

// LateralDoorChance is the roll window once the door is ready: small,
// widened by seam exposure, narrowed by attention.
func LateralDoorChance(s *Session) float64 {
	seamBoost := clamp((s.SeamExposure-lateralSeamNeed)*lateralSeamSlope, 0, lateralSeamCap)
	attentionPenalty := clamp(s.Attention*lateralAttentionSlope, 0, lateralAttentionCap)
	return clamp(lateralBase+seamBoost-attentionPenalty, lateralMin, lateralMax)
}

// LateralDoorAvailable decides whether the hidden door appears this
// morning. No draw is made unless the door is ready.
func LateralDoorAvailable(s *Session, src entropy.Source) bool {
	if !LateralDoorReady(s) {
		return false
	}
	return src.Float() < LateralDoorChance(s)
}
