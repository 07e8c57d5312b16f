package schemas

import "time"

// -- Mission Orchestration Schemas --

// MissionPhase names a state of the mission state machine.
type MissionPhase string

const (
	PhaseOSINT         MissionPhase = "OSINT"
	PhaseGateCheck     MissionPhase = "GATE_CHECK"
	PhaseRecon         MissionPhase = "RECON"
	PhaseEndpointIntel MissionPhase = "ENDPOINT_INTEL"
	PhaseVerification  MissionPhase = "VERIFICATION"
	PhaseReporting     MissionPhase = "REPORTING"
	PhaseMinimalReport MissionPhase = "MINIMAL_REPORT"
	PhaseAbort         MissionPhase = "ABORT"
	PhaseDone          MissionPhase = "DONE"
)

// MissionMode selects how aggressively probing collaborators behave. The core
// pipeline logic is identical in both modes.
type MissionMode string

const (
	ModeStealth    MissionMode = "stealth"
	ModeAggressive MissionMode = "aggressive"
)

// MissionMetrics aggregates per-phase counts and wall-clock durations across
// a mission run. Emitted as a document at mission end, even on early abort.
type MissionMetrics struct {
	RunID        string                   `json:"run_id"`
	TargetDomain string                   `json:"target_domain"`
	Mode         MissionMode              `json:"mode"`
	StartedAt    time.Time                `json:"started_at"`
	FinishedAt   time.Time                `json:"finished_at"`
	Duration     time.Duration            `json:"duration_ns"`
	PhaseTimes   map[string]time.Duration `json:"phase_times_ns"`

	Subdomains       int `json:"subdomains"`
	Services         int `json:"services"`
	Endpoints        int `json:"endpoints"`
	Parameters       int `json:"parameters"`
	Hypotheses       int `json:"hypotheses"`
	TheoreticalVulns int `json:"theoretical_vulns"`

	Aborted bool     `json:"aborted"`
	Errors  []string `json:"errors,omitempty"`
}
