package schemas

// -- Attack-Path Planner Schemas --

// PathShape identifies which enumeration shape produced a candidate path.
type PathShape string

const (
	ShapeService  PathShape = "SERVICE"  // subdomain -> http service (-> js file)
	ShapeEndpoint PathShape = "ENDPOINT" // subdomain -> http service -> endpoint set
	ShapeInfra    PathShape = "INFRA"    // subdomain -> infra facts, no http service
	ShapeOSINT    PathShape = "OSINT"    // osint entity -> related entities
)

// AttackPath is one scored candidate target with the accumulated reasons for
// its score and the recommended follow-up actions. Consumed by reporting and
// by the verification phase to prioritize work.
type AttackPath struct {
	SubjectID    string    `json:"subject_id"`
	Shape        PathShape `json:"shape"`
	Score        int       `json:"score"`
	Reasons      []string  `json:"reasons"`
	NextActions  []string  `json:"next_actions"`
	EvidenceRefs []string  `json:"evidence_refs,omitempty"`
}

// PlanDocument is the ordered planner output handed to reporting.
type PlanDocument struct {
	TargetDomain string       `json:"target_domain"`
	Paths        []AttackPath `json:"paths"`
}
