package schemas

// -- Endpoint Heuristics Schemas --

// EndpointCategory is the deterministic classification of a discovered
// endpoint, evaluated in a fixed precedence order (STATIC first, UNKNOWN last).
type EndpointCategory string

const (
	CategoryAPI         EndpointCategory = "API"
	CategoryAdmin       EndpointCategory = "ADMIN"
	CategoryAuth        EndpointCategory = "AUTH"
	CategoryLegacy      EndpointCategory = "LEGACY"
	CategoryHealthcheck EndpointCategory = "HEALTHCHECK"
	CategoryStatic      EndpointCategory = "STATIC"
	CategoryUnknown     EndpointCategory = "UNKNOWN"
)

// ParameterSensitivity ranks how dangerous a parameter name looks.
type ParameterSensitivity string

const (
	SensitivityLow    ParameterSensitivity = "LOW"
	SensitivityMedium ParameterSensitivity = "MEDIUM"
	SensitivityHigh   ParameterSensitivity = "HIGH"
)

// ParameterLocation says where a parameter was observed.
type ParameterLocation string

const (
	LocationQuery ParameterLocation = "query"
	LocationPath  ParameterLocation = "path"
)

// BehaviorHint summarizes what interacting with an endpoint likely does.
type BehaviorHint string

const (
	BehaviorStateChanging BehaviorHint = "STATE_CHANGING"
	BehaviorIDBasedAccess BehaviorHint = "ID_BASED_ACCESS"
	BehaviorReadOnly      BehaviorHint = "READ_ONLY"
	BehaviorOther         BehaviorHint = "OTHER"
)

// Parameter is a single extracted endpoint parameter with its classification.
type Parameter struct {
	Name         string               `json:"name"`
	Location     ParameterLocation    `json:"location"`
	DatatypeHint string               `json:"datatype_hint"`
	Sensitivity  ParameterSensitivity `json:"sensitivity"`
	IsCritical   bool                 `json:"is_critical"`
}

// EndpointEnrichment is the composed output of the heuristics engine for one
// endpoint, ready for the graph's endpoint-node upsert.
type EndpointEnrichment struct {
	Category      EndpointCategory `json:"category"`
	Parameters    []Parameter      `json:"parameters,omitempty"`
	Behavior      BehaviorHint     `json:"behavior"`
	IDBasedAccess bool             `json:"id_based_access"`
	Likelihood    int              `json:"likelihood"`
	Impact        int              `json:"impact"`
	Risk          int              `json:"risk"`
	AuthRequired  string           `json:"auth_required"` // "true" | "false" | "UNKNOWN"
	TechStack     string           `json:"tech_stack"`
}
