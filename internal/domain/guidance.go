package domain

// Guidance actions, from most to least urgent.
const (
	ActionDeploy   = "Deploy Fire Brigade and Emergency Medical Services"
	ActionEvacuate = "Alert Local Fire Wardens and Begin Evacuation"
	ActionMonitor  = "Monitor Situation and Standby for Further Instructions"
)

// GuidanceBand maps every severity at or above MinSeverity to Action.
type GuidanceBand struct {
	MinSeverity int
	Action      string
}

// guidanceLadder is ordered by descending MinSeverity; the first band a
// severity reaches wins. Severities below every band get ActionMonitor.
var guidanceLadder = []GuidanceBand{
	{MinSeverity: 3, Action: ActionDeploy},
	{MinSeverity: 2, Action: ActionEvacuate},
}

// GuidanceLadder returns a copy of the severity bands, most urgent first.
func GuidanceLadder() []GuidanceBand {
	return append([]GuidanceBand(nil), guidanceLadder...)
}

// Guidance returns the recommended response for an incident severity. It is
// total: any integer maps to exactly one action.
func Guidance(severity int) string {
	for _, band := range guidanceLadder {
		if severity >= band.MinSeverity {
			return band.Action
		}
	}
	return ActionMonitor
}

// ApplyGuidance sets Guidance and AssessedAt on every incident, in place, and
// returns the same slice.
func ApplyGuidance(incidents []IncidentRecord) []IncidentRecord {
	now := clock.Now()
	for i := range incidents {
		incidents[i].Guidance = Guidance(incidents[i].Severity)
		incidents[i].AssessedAt = now
	}
	return incidents
}
