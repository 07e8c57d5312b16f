package schemas

import "context"

// -- Collaborator Interfaces --
//
// The orchestrator talks to every external tool wrapper through these narrow
// interfaces. Any synchronous or asynchronous discovery provider that can
// produce the fact records satisfies them; the core never depends on a
// particular tool or agent framework.

// OSINTProvider gathers organization-level intelligence for a target domain.
type OSINTProvider interface {
	CollectOSINT(ctx context.Context, domain string) (OSINTFacts, error)
}

// SubdomainProvider enumerates subdomains (with any observed HTTP service)
// for a target domain.
type SubdomainProvider interface {
	EnumerateSubdomains(ctx context.Context, domain string) ([]SubdomainFact, error)
}

// InfraResolver resolves DNS and network-layer facts for a subdomain.
type InfraResolver interface {
	ResolveInfra(ctx context.Context, subdomain string) (InfraFact, error)
}

// EndpointProvider discovers endpoints behind a live HTTP origin.
type EndpointProvider interface {
	DiscoverEndpoints(ctx context.Context, origin string) ([]EndpointFact, error)
}

// JSMiner fetches and statically analyzes the JavaScript loaded by an origin.
type JSMiner interface {
	AnalyzeJS(ctx context.Context, origin string) (JSAnalysisFact, error)
}

// VulnScanner runs template-based scanning against prioritized targets and
// returns unconfirmed candidate findings.
type VulnScanner interface {
	ScanTargets(ctx context.Context, targets []string) ([]VulnerabilityFact, error)
}
