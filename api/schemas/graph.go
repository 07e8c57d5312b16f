package schemas

// -- Canonical Asset Graph Data Model --

// NodeType represents the specific type of an entity (node) in the asset graph.
type NodeType string

const (
	NodeDomain        NodeType = "DOMAIN"
	NodeSubdomain     NodeType = "SUBDOMAIN"
	NodeHTTPService   NodeType = "HTTP_SERVICE"
	NodeEndpoint      NodeType = "ENDPOINT"
	NodeParameter     NodeType = "PARAMETER"
	NodeJSFile        NodeType = "JS_FILE"
	NodeHypothesis    NodeType = "HYPOTHESIS"
	NodeVulnerability NodeType = "VULNERABILITY"
	NodeIPAddress     NodeType = "IP_ADDRESS"
	NodeDNSRecord     NodeType = "DNS_RECORD"
	NodeASN           NodeType = "ASN"
	NodeOrg           NodeType = "ORG"
	NodeBrand         NodeType = "BRAND"
	NodeSaaSApp       NodeType = "SAAS_APP"
	NodeLeak          NodeType = "LEAK"
	NodeRepository    NodeType = "REPOSITORY"
)

// RelationType defines the semantic type of a directed relationship (edge)
// between two nodes in the asset graph.
type RelationType string

const (
	RelationHasSubdomain    RelationType = "HAS_SUBDOMAIN"    // DOMAIN -> SUBDOMAIN
	RelationExposesHTTP     RelationType = "EXPOSES_HTTP"     // SUBDOMAIN -> HTTP_SERVICE
	RelationExposesEndpoint RelationType = "EXPOSES_ENDPOINT" // HTTP_SERVICE -> ENDPOINT
	RelationHasParameter    RelationType = "HAS_PARAMETER"    // ENDPOINT -> PARAMETER
	RelationLoadsJS         RelationType = "LOADS_JS"         // HTTP_SERVICE -> JS_FILE
	RelationHasVuln         RelationType = "HAS_VULNERABILITY"
	RelationHasHypothesis   RelationType = "HAS_HYPOTHESIS"
	RelationSupportedBy     RelationType = "SUPPORTED_BY" // HYPOTHESIS -> evidence node
	RelationResolvesTo      RelationType = "RESOLVES_TO"  // SUBDOMAIN -> IP_ADDRESS
	RelationBelongsTo       RelationType = "BELONGS_TO"   // IP_ADDRESS -> ASN
	RelationHasRecord       RelationType = "HAS_RECORD"   // SUBDOMAIN -> DNS_RECORD
	RelationOrgOwnsDomain   RelationType = "ORG_OWNS_DOMAIN"
	RelationOrgUsesSaaS     RelationType = "ORG_USES_SAAS"
	RelationOrgHasBrand     RelationType = "ORG_HAS_BRAND"
	RelationOrgHasRepo      RelationType = "ORG_HAS_REPOSITORY"
	RelationLeakRelatesTo   RelationType = "LEAK_RELATES_TO_ORG"
)

// Node represents a single entity in the asset graph. The ID is
// content-addressed: it is derived from the entity's stable identifying
// fields, so re-ingesting the same fact always maps to the same node.
// Properties is an open string-keyed map; allowed keys are validated per
// node type at the ingestion boundary.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Properties map[string]string `json:"properties"`
}

// Edge represents a directed, typed relationship between two nodes. An edge
// is identified by its (From, To, Relation) triple; repeated ingestion of the
// same source fact never duplicates it.
type Edge struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Relation   RelationType      `json:"relation"`
	Properties map[string]string `json:"properties,omitempty"`
}

// GraphDocument is the persisted serialization form of a full asset graph.
// It must round-trip losslessly through load/serialize.
type GraphDocument struct {
	TargetDomain string `json:"target_domain"`
	Nodes        []Node `json:"nodes"`
	Edges        []Edge `json:"edges"`
}

// HighValueNodeTypes is the fixed set of node types counted by the graph's
// high-value aggregate query, used for reporting and planner bias.
var HighValueNodeTypes = map[NodeType]bool{
	NodeSaaSApp: true,
	NodeLeak:    true,
}
