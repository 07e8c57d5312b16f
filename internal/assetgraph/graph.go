// File: internal/assetgraph/graph.go
// The asset graph is the single owner of all discovered attack-surface state
// for one mission. Every pipeline phase reads and mutates it through the
// upsert/link contract below; nothing reaches into the node/edge collections
// directly. The graph only grows within a run: nodes and edges are never
// deleted.
package assetgraph

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// Graph is the in-memory typed node/edge store. All mutating operations are
// safe under concurrent invocation; a single RWMutex guards the collections.
type Graph struct {
	targetDomain string
	nodes        map[string]schemas.Node
	edges        map[string]schemas.Edge
	outgoing     map[string][]string // node ID -> edge keys, insertion ordered
	primaryOrg   string              // first accepted ORG node, anchor for SaaS/leak links
	scope        *ScopeFilter
	mu           sync.RWMutex
	log          *zap.Logger
}

// New creates an empty graph scoped to one target domain. The DOMAIN node for
// the target is created immediately so the graph is never without a root.
func New(targetDomain string, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Graph{
		targetDomain: strings.ToLower(strings.TrimSpace(targetDomain)),
		nodes:        make(map[string]schemas.Node),
		edges:        make(map[string]schemas.Edge),
		outgoing:     make(map[string][]string),
		scope:        NewScopeFilter(targetDomain),
		log:          logger.Named("AssetGraph"),
	}
	g.upsertNode(domainID(targetDomain), schemas.NodeDomain, map[string]string{
		"domain": g.targetDomain,
	})
	return g
}

// TargetDomain returns the mission target this graph is scoped to.
func (g *Graph) TargetDomain() string { return g.targetDomain }

// DomainNodeID returns the ID of the root DOMAIN node.
func (g *Graph) DomainNodeID() string { return domainID(g.targetDomain) }

// -- Entity upserts --

// UpsertSubdomain ingests a subdomain-with-service fact. The SUBDOMAIN node
// is linked under the target DOMAIN; an attached HTTP fact additionally
// creates the HTTP_SERVICE node and its EXPOSES_HTTP edge. Returns the
// subdomain node ID.
func (g *Graph) UpsertSubdomain(fact schemas.SubdomainFact) (string, error) {
	fqdn := subdomainID(fact.Subdomain)
	if fqdn == "" {
		return "", fmt.Errorf("subdomain fact has empty name")
	}

	props := map[string]string{"fqdn": fqdn}
	if fact.Priority != 0 {
		props["priority"] = strconv.Itoa(fact.Priority)
	}
	if fact.Tag != "" {
		props["tag"] = fact.Tag
	}
	if fact.Category != "" {
		props["category"] = fact.Category
	}

	g.mu.Lock()
	g.upsertNode(fqdn, schemas.NodeSubdomain, props)
	g.upsertEdge(g.DomainNodeID(), fqdn, schemas.RelationHasSubdomain, nil)
	g.mu.Unlock()

	if fact.HTTP != nil {
		if _, err := g.UpsertHTTPService(fqdn, *fact.HTTP); err != nil {
			return fqdn, err
		}
	}
	return fqdn, nil
}

// UpsertHTTPService ingests a live HTTP service for a subdomain, creating the
// SUBDOMAIN parent implicitly if it has not been seen yet. Returns the
// service node ID.
func (g *Graph) UpsertHTTPService(subdomain string, fact schemas.HTTPFact) (string, error) {
	if strings.TrimSpace(fact.URL) == "" {
		return "", fmt.Errorf("http fact for %q has empty url", subdomain)
	}
	fqdn := subdomainID(subdomain)
	svcID := serviceID(fact.URL)

	props := map[string]string{"url": NormalizeOrigin(fact.URL)}
	if fact.StatusCode != 0 {
		props["status_code"] = strconv.Itoa(fact.StatusCode)
	}
	if len(fact.Technologies) > 0 {
		props["technologies"] = strings.Join(fact.Technologies, ",")
	}
	if fact.IP != "" {
		props["ip"] = fact.IP
	}
	if fact.Title != "" {
		props["title"] = fact.Title
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[fqdn]; !ok {
		g.upsertNode(fqdn, schemas.NodeSubdomain, map[string]string{"fqdn": fqdn})
		g.upsertEdge(g.DomainNodeID(), fqdn, schemas.RelationHasSubdomain, nil)
	}
	g.upsertNode(svcID, schemas.NodeHTTPService, props)
	g.upsertEdge(fqdn, svcID, schemas.RelationExposesHTTP, nil)
	return svcID, nil
}

// UpsertEndpoint ingests a discovered endpoint, normalizing its path before
// identity is computed. The parent HTTP_SERVICE is created implicitly when
// missing, which keeps the invariant that every ENDPOINT has exactly one
// incoming EXPOSES_ENDPOINT edge from the service matching its origin. An
// optional enrichment record (from the heuristics engine) is folded into the
// node properties and materializes PARAMETER children. Returns the endpoint
// node ID.
func (g *Graph) UpsertEndpoint(fact schemas.EndpointFact, enrich *schemas.EndpointEnrichment) (string, error) {
	if strings.TrimSpace(fact.Origin) == "" {
		return "", fmt.Errorf("endpoint fact %q has empty origin", fact.Path)
	}
	method := strings.ToUpper(strings.TrimSpace(fact.Method))
	if method == "" {
		method = "GET"
	}
	path := NormalizePath(fact.Path)
	epID := endpointID(fact.Origin, method, path)
	svcID := serviceID(fact.Origin)

	props := map[string]string{
		"path":   path,
		"method": method,
	}
	if fact.Source != "" {
		props["source"] = fact.Source
	}
	if enrich != nil {
		props["category"] = string(enrich.Category)
		props["behavior"] = string(enrich.Behavior)
		props["id_based_access"] = strconv.FormatBool(enrich.IDBasedAccess)
		props["likelihood"] = strconv.Itoa(enrich.Likelihood)
		props["impact"] = strconv.Itoa(enrich.Impact)
		props["risk"] = strconv.Itoa(enrich.Risk)
		props["auth_required"] = enrich.AuthRequired
		props["tech_stack"] = enrich.TechStack
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[svcID]; !ok {
		g.upsertNode(svcID, schemas.NodeHTTPService, map[string]string{"url": NormalizeOrigin(fact.Origin)})
	}
	g.upsertNode(epID, schemas.NodeEndpoint, props)
	g.upsertEdge(svcID, epID, schemas.RelationExposesEndpoint, nil)

	if enrich != nil {
		for _, p := range enrich.Parameters {
			pID := parameterID(epID, p.Name, string(p.Location))
			g.upsertNode(pID, schemas.NodeParameter, map[string]string{
				"name":          p.Name,
				"location":      string(p.Location),
				"datatype_hint": p.DatatypeHint,
				"sensitivity":   string(p.Sensitivity),
				"is_critical":   strconv.FormatBool(p.IsCritical),
			})
			g.upsertEdge(epID, pID, schemas.RelationHasParameter, nil)
		}
	}
	return epID, nil
}

// UpsertJSAnalysis ingests the JS mining output for one origin: JS_FILE nodes
// with LOADS_JS edges, endpoint facts routed through UpsertEndpoint, and
// mined secrets recorded as HYPOTHESIS nodes supported by their source file.
func (g *Graph) UpsertJSAnalysis(fact schemas.JSAnalysisFact) error {
	if strings.TrimSpace(fact.Origin) == "" {
		return fmt.Errorf("js analysis fact has empty origin")
	}
	svcID := serviceID(fact.Origin)

	g.mu.Lock()
	if _, ok := g.nodes[svcID]; !ok {
		g.upsertNode(svcID, schemas.NodeHTTPService, map[string]string{"url": NormalizeOrigin(fact.Origin)})
	}
	for _, file := range fact.JSFiles {
		fileID := jsFileID(file)
		g.upsertNode(fileID, schemas.NodeJSFile, map[string]string{"url": file})
		g.upsertEdge(svcID, fileID, schemas.RelationLoadsJS, nil)
	}
	g.mu.Unlock()

	for _, ep := range fact.Endpoints {
		_, err := g.UpsertEndpoint(schemas.EndpointFact{
			Path:   ep.Path,
			Method: ep.Method,
			Source: "js:" + ep.SourceJS,
			Origin: fact.Origin,
		}, nil)
		if err != nil {
			return err
		}
	}

	for _, secret := range fact.Secrets {
		g.UpsertHypothesis(svcID,
			"exposed secret "+secret.Kind,
			fmt.Sprintf("value of kind %q found in %s", secret.Kind, secret.SourceJS),
			[]string{jsFileID(secret.SourceJS)})
	}
	return nil
}

// UpsertInfra ingests DNS/network facts for a subdomain: IP_ADDRESS nodes via
// RESOLVES_TO, an ASN node via BELONGS_TO, and DNS_RECORD nodes via
// HAS_RECORD. The SUBDOMAIN parent is created implicitly.
func (g *Graph) UpsertInfra(fact schemas.InfraFact) (string, error) {
	fqdn := subdomainID(fact.Subdomain)
	if fqdn == "" {
		return "", fmt.Errorf("infra fact has empty subdomain")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[fqdn]; !ok {
		g.upsertNode(fqdn, schemas.NodeSubdomain, map[string]string{"fqdn": fqdn})
		g.upsertEdge(g.DomainNodeID(), fqdn, schemas.RelationHasSubdomain, nil)
	}

	for _, ip := range fact.IPs {
		id := ipID(ip)
		g.upsertNode(id, schemas.NodeIPAddress, map[string]string{"address": ip})
		g.upsertEdge(fqdn, id, schemas.RelationResolvesTo, nil)
		if fact.ASN != "" {
			aID := asnID(fact.ASN)
			props := map[string]string{"asn": strings.ToUpper(fact.ASN)}
			if fact.ASNOrg != "" {
				props["organization"] = fact.ASNOrg
			}
			g.upsertNode(aID, schemas.NodeASN, props)
			g.upsertEdge(id, aID, schemas.RelationBelongsTo, nil)
		}
	}

	records := fact.Records
	if fact.SPF {
		records = append(records, "SPF")
	}
	for _, rtype := range records {
		rID := dnsRecordID(fqdn, rtype)
		g.upsertNode(rID, schemas.NodeDNSRecord, map[string]string{"record_type": strings.ToUpper(rtype)})
		g.upsertEdge(fqdn, rID, schemas.RelationHasRecord, nil)
	}
	return fqdn, nil
}

// UpsertVulnerability attaches a candidate finding to the node it affects.
// The affected node must already exist; findings always come out of scanning
// a target the graph knows about, so a miss is an ingestion error.
func (g *Graph) UpsertVulnerability(fact schemas.VulnerabilityFact) (string, error) {
	if fact.AffectedNodeID == "" || fact.Name == "" {
		return "", fmt.Errorf("vulnerability fact missing affected node or name")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[fact.AffectedNodeID]; !ok {
		return "", fmt.Errorf("affected node %q not found for vulnerability %q", fact.AffectedNodeID, fact.Name)
	}

	vID := vulnerabilityID(fact.AffectedNodeID, fact.Name)
	props := map[string]string{
		"name":       fact.Name,
		"severity":   strings.ToLower(fact.Severity),
		"tool":       fact.Tool,
		"confirmed":  strconv.FormatBool(fact.Confirmed),
		"confidence": strconv.FormatFloat(fact.Confidence, 'f', 2, 64),
	}
	if fact.Description != "" {
		props["description"] = fact.Description
	}
	if fact.URL != "" {
		props["url"] = fact.URL
	}
	g.upsertNode(vID, schemas.NodeVulnerability, props)
	g.upsertEdge(fact.AffectedNodeID, vID, schemas.RelationHasVuln, nil)
	return vID, nil
}

// UpsertHypothesis records a testable hypothesis about a subject node,
// optionally supported by evidence nodes. Evidence IDs that are unknown are
// skipped silently; a hypothesis may legitimately link to several distinct
// evidence nodes. Returns the hypothesis node ID, or "" when the subject is
// unknown.
func (g *Graph) UpsertHypothesis(subjectID, title, rationale string, evidence []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[subjectID]; !ok {
		g.log.Debug("Hypothesis subject unknown, skipping", zap.String("subject", subjectID))
		return ""
	}
	hID := hypothesisID(subjectID, title)
	g.upsertNode(hID, schemas.NodeHypothesis, map[string]string{
		"title":     title,
		"rationale": rationale,
	})
	g.upsertEdge(subjectID, hID, schemas.RelationHasHypothesis, nil)
	for _, evID := range evidence {
		if _, ok := g.nodes[evID]; ok {
			g.upsertEdge(hID, evID, schemas.RelationSupportedBy, nil)
		}
	}
	return hID
}

// -- Scoped OSINT upserts --
// Each applies the anti-hallucination scope filter before creating anything
// and reports rejection through the boolean return.

// AddOrg records an organization related to the target. The first accepted
// org becomes the anchor for subsequent SaaS and leak links.
func (g *Graph) AddOrg(fact schemas.OrgFact) (string, bool) {
	if !g.scope.AllowName(fact.Name, true) {
		g.log.Debug("Org rejected by scope filter", zap.String("name", fact.Name))
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := orgID(fact.Name)
	props := map[string]string{"name": fact.Name}
	if fact.Source != "" {
		props["source"] = fact.Source
	}
	if fact.Registry != "" {
		props["registry"] = fact.Registry
	}
	g.upsertNode(id, schemas.NodeOrg, props)
	g.upsertEdge(id, g.DomainNodeID(), schemas.RelationOrgOwnsDomain, nil)
	if g.primaryOrg == "" {
		g.primaryOrg = id
	}
	return id, true
}

// AddBrand records a brand operated by the target organization.
func (g *Graph) AddBrand(fact schemas.BrandFact) (string, bool) {
	if !g.scope.AllowName(fact.Name, true) {
		g.log.Debug("Brand rejected by scope filter", zap.String("name", fact.Name))
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := brandID(fact.Name)
	props := map[string]string{"name": fact.Name}
	if fact.Source != "" {
		props["source"] = fact.Source
	}
	g.upsertNode(id, schemas.NodeBrand, props)
	g.upsertEdge(g.osintAnchor(), id, schemas.RelationOrgHasBrand, nil)
	return id, true
}

// AddSaaSApp records a third-party SaaS product in use. SaaS names rarely
// contain the target domain, so only the denylist applies.
func (g *Graph) AddSaaSApp(fact schemas.SaaSFact) (string, bool) {
	if !g.scope.AllowName(fact.Name, false) {
		g.log.Debug("SaaS app rejected by scope filter", zap.String("name", fact.Name))
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := saasID(fact.Name)
	props := map[string]string{"name": fact.Name}
	if fact.Category != "" {
		props["category"] = fact.Category
	}
	if fact.Evidence != "" {
		props["evidence"] = fact.Evidence
	}
	g.upsertNode(id, schemas.NodeSaaSApp, props)
	g.upsertEdge(g.osintAnchor(), id, schemas.RelationOrgUsesSaaS, nil)
	return id, true
}

// AddLeak records a credential or data leak tied to the organization.
func (g *Graph) AddLeak(fact schemas.LeakFact) (string, bool) {
	if !g.scope.AllowName(fact.Reference, false) {
		g.log.Debug("Leak rejected by scope filter", zap.String("reference", fact.Reference))
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := leakID(fact.Reference)
	props := map[string]string{"reference": fact.Reference}
	if fact.Kind != "" {
		props["kind"] = fact.Kind
	}
	if fact.Source != "" {
		props["source"] = fact.Source
	}
	g.upsertNode(id, schemas.NodeLeak, props)
	g.upsertEdge(id, g.osintAnchor(), schemas.RelationLeakRelatesTo, nil)
	return id, true
}

// AddRepository records a public source repository. Repository relevance
// depends on the mission target, so the URL must relate to the domain.
func (g *Graph) AddRepository(fact schemas.RepositoryFact) (string, bool) {
	if !g.scope.AllowName(fact.URL, true) {
		g.log.Debug("Repository rejected by scope filter", zap.String("url", fact.URL))
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := repositoryID(fact.URL)
	props := map[string]string{"url": fact.URL}
	if fact.Source != "" {
		props["source"] = fact.Source
	}
	g.upsertNode(id, schemas.NodeRepository, props)
	g.upsertEdge(g.osintAnchor(), id, schemas.RelationOrgHasRepo, nil)
	return id, true
}

// osintAnchor returns the node OSINT satellites hang off: the primary org
// when one was accepted, otherwise the target DOMAIN node. Caller must hold
// the lock.
func (g *Graph) osintAnchor() string {
	if g.primaryOrg != "" {
		return g.primaryOrg
	}
	return g.DomainNodeID()
}

// -- Linking --

// Link creates a typed edge between two existing nodes. Unknown endpoints
// make it a silent no-op (loosely coupled OSINT links); the core
// subdomain->service->endpoint chain is built inside the upsert call chain
// and never goes through here. Reports whether the edge exists afterwards.
func (g *Graph) Link(from, to string, relation schemas.RelationType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[from]; !ok {
		g.log.Debug("Link skipped, unknown source", zap.String("from", from))
		return false
	}
	if _, ok := g.nodes[to]; !ok {
		g.log.Debug("Link skipped, unknown target", zap.String("to", to))
		return false
	}
	g.upsertEdge(from, to, relation, nil)
	return true
}

// -- Aggregate queries --

// CountHighValueNodes counts nodes whose type is in the fixed high-value set.
func (g *Graph) CountHighValueNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, n := range g.nodes {
		if schemas.HighValueNodeTypes[n.Type] {
			count++
		}
	}
	return count
}

// CountByType counts nodes of one type.
func (g *Graph) CountByType(t schemas.NodeType) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, n := range g.nodes {
		if n.Type == t {
			count++
		}
	}
	return count
}

// GetNode retrieves a copy of a node by ID.
func (g *Graph) GetNode(id string) (schemas.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return schemas.Node{}, false
	}
	return copyNode(n), true
}

// NodesByType returns copies of all nodes of one type.
func (g *Graph) NodesByType(t schemas.NodeType) []schemas.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []schemas.Node
	for _, n := range g.nodes {
		if n.Type == t {
			out = append(out, copyNode(n))
		}
	}
	return out
}

// -- Internal helpers (caller holds the write lock) --

// upsertNode creates the node if absent and merges properties if present.
// Previously recorded properties survive unless the new fact carries a
// non-empty replacement for the same key.
func (g *Graph) upsertNode(id string, t schemas.NodeType, props map[string]string) {
	existing, ok := g.nodes[id]
	if !ok {
		merged := make(map[string]string, len(props))
		for k, v := range props {
			if v != "" {
				merged[k] = v
			}
		}
		g.nodes[id] = schemas.Node{ID: id, Type: t, Properties: merged}
		g.log.Debug("Node created", zap.String("id", id), zap.String("type", string(t)))
		return
	}
	for k, v := range props {
		if v != "" {
			existing.Properties[k] = v
		}
	}
	g.nodes[id] = existing
}

// upsertEdge records an edge keyed by its (from, relation, to) triple.
// Re-ingesting the same fact is a no-op.
func (g *Graph) upsertEdge(from, to string, relation schemas.RelationType, props map[string]string) {
	key := edgeKey(from, to, string(relation))
	if _, exists := g.edges[key]; exists {
		return
	}
	g.edges[key] = schemas.Edge{From: from, To: to, Relation: relation, Properties: props}
	g.outgoing[from] = append(g.outgoing[from], key)
	g.log.Debug("Edge created",
		zap.String("from", from), zap.String("to", to), zap.String("relation", string(relation)))
}

func copyNode(n schemas.Node) schemas.Node {
	props := make(map[string]string, len(n.Properties))
	for k, v := range n.Properties {
		props[k] = v
	}
	n.Properties = props
	return n
}
