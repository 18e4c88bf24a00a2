package gate

import (
	"math"
)

// Effects is the bundle of deltas attached to a story choice. A nil delta
// means the choice does not touch that value.
type Effects struct {
	Exhaustion  *float64 `json:"exhaustion,omitempty" yaml:"exhaustion,omitempty"`
	Stability   *float64 `json:"stability,omitempty" yaml:"stability,omitempty"`
	Observation *float64 `json:"observation,omitempty" yaml:"observation,omitempty"`
	Regulation  *float64 `json:"regulation,omitempty" yaml:"regulation,omitempty"`
	Instability *float64 `json:"instability,omitempty" yaml:"instability,omitempty"`
	Flags       []string `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// Delta returns a pointer to v, for building Effects literals.
func Delta(v float64) *float64 { return &v }

// ApplyEffects folds one chosen option into the session. It never fails:
// whatever the bundle leaves out is left alone.
func ApplyEffects(s *Session, e Effects) {
	// Every action advances the hidden clock, even an empty one.
	s.Ticks++

	if e.Exhaustion != nil && !math.IsNaN(*e.Exhaustion) {
		// Clamp before converting so huge or infinite deltas saturate.
		s.Exhaustion = int(clamp(float64(s.Exhaustion)+math.Trunc(*e.Exhaustion), 0, MaxExhaustion))
	}
	if e.Stability != nil {
		s.Stability += *e.Stability
	}
	if e.Observation != nil {
		s.Observation += *e.Observation
	}
	if e.Regulation != nil {
		s.Regulation += *e.Regulation
	}
	if e.Instability != nil {
		s.Instability += *e.Instability
	}

	for _, f := range e.Flags {
		s.SetFlag(f)
		if seamFlags[f] {
			s.SeamExposure++
		}
	}
	if e.Observation != nil && *e.Observation >= seamObservationThreshold {
		s.SeamExposure += seamObservationBonus
	}

	if e.Instability != nil && *e.Instability > 0 {
		s.Attention += attentionPerInstability * *e.Instability
	}
	if e.Regulation != nil && *e.Regulation > 0 {
		s.Attention = math.Max(0, s.Attention-attentionPerRegulation*(*e.Regulation))
	}

	// Fatigue erodes progress on every action taken while worn down.
	if s.Exhaustion >= bleedThreshold {
		s.Stability = math.Max(0, s.Stability-bleedAmount)
		s.Regulation = math.Max(0, s.Regulation-bleedAmount)
	}
}

// EffectsFromMap builds Effects from a decoded JSON or YAML object.
// Fields that are missing, non-numeric or non-finite are dropped, as are
// flags that are not strings. Unknown keys are ignored.
func EffectsFromMap(raw map[string]any) Effects {
	var e Effects
	if raw == nil {
		return e
	}
	e.Exhaustion = number(raw["exhaustion"])
	e.Stability = number(raw["stability"])
	e.Observation = number(raw["observation"])
	e.Regulation = number(raw["regulation"])
	e.Instability = number(raw["instability"])

	if list, ok := raw["flags"].([]any); ok {
		for _, item := range list {
			if name, ok := item.(string); ok && name != "" {
				e.Flags = append(e.Flags, name)
			}
		}
	}
	return e
}

func number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
