package gate

import (
	"math"

	"github.com/talgya/ninth-gate/internal/entropy"
)

// PickWork chooses the next routine assignment and records it on the
// session. It avoids the previous assignment outright and softly avoids
// the two before that; fatigue quietly lowers the odds of the two
// riskier tasks.
func PickWork(s *Session, src entropy.Source) string {
	return pickWork(s, src, workPool[:])
}

func pickWork(s *Session, src entropy.Source, pool []string) string {
	candidates := workCandidates(s, pool)

	weights := make([]float64, len(candidates))
	total := 0.0
	for i, id := range candidates {
		weights[i] = workWeight(id, s.Exhaustion)
		total += weights[i]
	}

	pick := candidates[0]
	r := src.Float() * total
	for i, id := range candidates {
		r -= weights[i]
		if r <= 0 {
			pick = id
			break
		}
	}

	s.recordWork(pick)
	return pick
}

// workCandidates returns the pool minus the last assignment and, when
// there is enough history, minus the last two history entries.
func workCandidates(s *Session, pool []string) []string {
	withoutLast := make([]string, 0, len(pool))
	for _, id := range pool {
		if id != s.LastWork {
			withoutLast = append(withoutLast, id)
		}
	}

	n := len(s.WorkHistory)
	if n < 2 {
		return withoutLast
	}
	a, b := s.WorkHistory[n-1], s.WorkHistory[n-2]
	candidates := make([]string, 0, len(withoutLast))
	for _, id := range withoutLast {
		if id != a && id != b {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return withoutLast
	}
	return candidates
}

func workWeight(id string, exhaustion int) float64 {
	w := 1.0
	switch id {
	case workMortar:
		w = mortarBase - float64(exhaustion)*mortarSlope
	case workCrates:
		w = cratesBase - float64(exhaustion)*cratesSlope
	}
	return math.Max(minWorkWeight, w)
}
