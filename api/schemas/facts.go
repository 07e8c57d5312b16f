package schemas

// -- Ingestion Fact Records --
//
// Every discovery collaborator returns fixed-shape fact records. The asset
// graph's upsert operations are the only permitted entry point for these
// facts; collaborators never touch graph internals.

// HTTPFact describes a live HTTP service observed on a subdomain.
type HTTPFact struct {
	URL          string   `json:"url"`
	StatusCode   int      `json:"status_code,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	IP           string   `json:"ip,omitempty"`
	Title        string   `json:"title,omitempty"`
}

// SubdomainFact is the subdomain-with-service record produced by passive and
// active enumeration. Priority and Tag bias planner scoring later on.
type SubdomainFact struct {
	Subdomain string    `json:"subdomain"`
	Priority  int       `json:"priority,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Category  string    `json:"category,omitempty"`
	HTTP      *HTTPFact `json:"http,omitempty"`
}

// EndpointFact is a single discovered endpoint, keyed to its parent origin.
type EndpointFact struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Source string `json:"source"`
	Origin string `json:"origin"`
}

// JSEndpointFact is an endpoint mined out of a JavaScript file.
type JSEndpointFact struct {
	Path     string `json:"path"`
	Method   string `json:"method"`
	SourceJS string `json:"source_js"`
}

// JSSecretFact is a credential-looking string mined out of a JavaScript file.
type JSSecretFact struct {
	Value    string `json:"value"`
	Kind     string `json:"kind"`
	SourceJS string `json:"source_js"`
}

// JSAnalysisFact aggregates the output of JS mining for one origin.
type JSAnalysisFact struct {
	Origin    string           `json:"origin"`
	JSFiles   []string         `json:"js_files,omitempty"`
	Endpoints []JSEndpointFact `json:"endpoints,omitempty"`
	Secrets   []JSSecretFact   `json:"secrets,omitempty"`
}

// InfraFact carries DNS and network-layer evidence for a subdomain.
type InfraFact struct {
	Subdomain string   `json:"subdomain"`
	IPs       []string `json:"ips,omitempty"`
	ASN       string   `json:"asn,omitempty"`      // e.g. "AS16276"
	ASNOrg    string   `json:"asn_org,omitempty"`  // e.g. "OVH SAS"
	Records   []string `json:"records,omitempty"`  // record types observed: A, MX, TXT/SPF...
	SPF       bool     `json:"spf,omitempty"`
}

// OSINTFacts bundles the entity-kind records returned by the OSINT phase.
// Every entity passes the graph's scope filter before a node is created.
type OSINTFacts struct {
	Orgs         []OrgFact        `json:"orgs,omitempty"`
	Brands       []BrandFact      `json:"brands,omitempty"`
	SaaSApps     []SaaSFact       `json:"saas_apps,omitempty"`
	Leaks        []LeakFact       `json:"leaks,omitempty"`
	Repositories []RepositoryFact `json:"repositories,omitempty"`
}

// OrgFact identifies an organization believed to own the target domain.
type OrgFact struct {
	Name     string `json:"name"`
	Source   string `json:"source,omitempty"`
	Registry string `json:"registry,omitempty"`
}

// BrandFact identifies a brand operated by the target organization.
type BrandFact struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// SaaSFact identifies a third-party SaaS product the organization uses.
type SaaSFact struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"` // e.g. "credential", "communication"
	Evidence string `json:"evidence,omitempty"`
}

// LeakFact identifies a credential or data leak tied to the organization.
type LeakFact struct {
	Reference string `json:"reference"`
	Kind      string `json:"kind,omitempty"`
	Source    string `json:"source,omitempty"`
}

// RepositoryFact identifies a public source repository tied to the target.
type RepositoryFact struct {
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}

// VulnerabilityFact is a candidate finding emitted by a scanning collaborator,
// before safe-probe confirmation.
type VulnerabilityFact struct {
	Severity       string  `json:"severity"`
	Tool           string  `json:"tool"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	AffectedNodeID string  `json:"affected_node_id"`
	URL            string  `json:"url,omitempty"`
	Confirmed      bool    `json:"confirmed"`
	Confidence     float64 `json:"confidence"`
}
