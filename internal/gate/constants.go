package gate

// System scene identifiers. These never appear as keys in the story asset;
// the resolver interprets them itself.
const (
	SceneToTitle    = "__SYSTEM_TO_TITLE__"
	SceneReset      = "__SYSTEM_RESET__"
	SceneMorning    = "__SYSTEM_MORNING_CHECK__"
	SceneWorkAssign = "__SYSTEM_WORK_ASSIGN__"

	SceneHiddenDoor = "arc1_hidden_door_prompt"
	SceneReassigned = "arc1_reassigned_official"
	SceneNearMiss   = "arc1_near_miss"
	SceneAbsorbed   = "arc1_death_absorbed"

	// SceneAbsorption is an ordinary story scene; reaching it is recorded
	// on the session for later arcs.
	SceneAbsorption = "arc1_absorption_event"
)

// Session limits.
const (
	MaxExhaustion  = 4
	MaxWorkHistory = 10

	minWorkWeight   = 0.15
	maxResolveHops  = 8
	defaultStartDay = 1
)

// IsSystemScene reports whether id is one of the reserved system identifiers.
func IsSystemScene(id string) bool {
	switch id {
	case SceneToTitle, SceneReset, SceneMorning, SceneWorkAssign:
		return true
	}
	return false
}

// OutputScenes are the story scenes the resolver can route to on its own.
// A story asset must define all of them.
var OutputScenes = []string{SceneHiddenDoor, SceneReassigned, SceneNearMiss, SceneAbsorbed}

// workPool is the routine-work rotation, in selection order.
var workPool = [...]string{
	"work_brush_1",
	"work_water_1",
	"work_linen_1",
	"work_plaque_1",
	"work_mortar_1",
	"work_crates_1",
}

// WorkPool returns a copy of the routine-work rotation, in selection order.
func WorkPool() []string {
	return append([]string(nil), workPool[:]...)
}

// Fatigue-biased work items. Crack-seeking gets rarer under fatigue.
const (
	workMortar = "work_mortar_1"
	workCrates = "work_crates_1"

	mortarBase  = 0.8
	mortarSlope = 0.1
	cratesBase  = 0.9
	cratesSlope = 0.08
)

// Flag groups read by the gates.
var (
	// seamFlags mark investigative behavior; each one set by a choice adds
	// a point of seam exposure.
	seamFlags = map[string]bool{
		"noticed_draft":     true,
		"night_listen":      true,
		"forced_seam":       true,
		"inspected_walls":   true,
		"listened_patterns": true,
		"mirrored_rhythm":   true,
		"counted_cycle":     true,
		"held_gaze":         true,
	}

	// patternFlags: at least one is needed for official assessment.
	patternFlags = []string{"mirrored_rhythm", "controlled_breath", "counted_cycle", "listened_patterns"}

	// lateralObservationFlags and lateralInstabilityFlags stand in for the
	// raw thresholds on the lateral route.
	lateralObservationFlags = []string{"noticed_draft", "night_listen"}
	lateralInstabilityFlags = []string{"forced_seam", "broke_rhythm"}
)

// Effect accrual.
const (
	seamObservationThreshold = 2.0
	seamObservationBonus     = 0.5
	attentionPerInstability  = 0.5
	attentionPerRegulation   = 0.25
	bleedThreshold           = 3
	bleedAmount              = 0.25
)

// Degrade tick: pressure rises with time inside the loop.
const (
	degradeBase           = 0.18
	degradeDaySlope       = 0.03
	degradeDayCap         = 0.18
	degradeAttentionSlope = 0.02
	degradeAttentionCap   = 0.18
	degradeInstability    = 0.03
	degradeRegulationGap  = 0.05
	degradeRegulationNeed = 2.0
	degradeMin            = 0.18
	degradeMax            = 0.75
)

// Official assessment. Never early, never certain.
const (
	assessmentMinDay         = 6
	assessmentMinCompound    = 10.0
	assessmentMaxInstability = 4.5
	assessmentMaxExhaustion  = 2

	assessmentBase            = 0.12
	assessmentCompoundSlope   = 0.035
	assessmentCompoundCap     = 0.28
	assessmentDaySlope        = 0.03
	assessmentDayCap          = 0.18
	assessmentInstSlope       = 0.03
	assessmentInstCap         = 0.24
	assessmentExhaustionSlope = 0.08
	assessmentExhaustionCap   = 0.32
	assessmentMin             = 0.03
	assessmentMax             = 0.65
)

// Lateral door. Informed deviation only: observation plus instability plus
// sustained seam exposure.
const (
	lateralMinDay          = 5
	lateralMaxExhaustion   = 3 // exclusive
	lateralObservationNeed = 6.0
	lateralInstabilityNeed = 6.0
	lateralSeamNeed        = 5.0

	lateralBase           = 0.06
	lateralSeamSlope      = 0.04
	lateralSeamCap        = 0.18
	lateralAttentionSlope = 0.03
	lateralAttentionCap   = 0.20
	lateralMin            = 0.03
	lateralMax            = 0.28
)

// ExhaustionStates are the only status labels the player ever sees.
var ExhaustionStates = [MaxExhaustion + 1]string{"Stable", "Winded", "Strained", "Failing", "Broken"}

// ExhaustionLabel maps an exhaustion level to its player-facing label.
func ExhaustionLabel(n int) string {
	if n < 0 {
		n = 0
	}
	if n > MaxExhaustion {
		n = MaxExhaustion
	}
	return ExhaustionStates[n]
}
