// File: internal/planner/planner.go
// The attack-path planner ranks candidate next targets over a point-in-time
// graph snapshot. It never mutates the graph: it indexes the document, walks
// the four enumeration shapes, scores each candidate with traceable reason
// strings, keeps the best path per subject, and returns the top K.
package planner

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// MemoryContext carries facts about previously identified high-value targets
// across missions. When a subject (or one of its related entities) matches,
// the caller-supplied boost is added verbatim to the path score.
type MemoryContext struct {
	KnownHighValue map[string]bool
	Boost          int
}

// Planner scores attack paths over immutable graph snapshots.
type Planner struct {
	log *zap.Logger
}

// New creates a planner.
func New(logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{log: logger.Named("Planner")}
}

// graphIndex is the read-only adjacency view the planner builds once per run.
type graphIndex struct {
	nodes    map[string]schemas.Node
	outgoing map[string][]schemas.Edge
	incoming map[string][]schemas.Edge
}

func buildIndex(doc schemas.GraphDocument) *graphIndex {
	idx := &graphIndex{
		nodes:    make(map[string]schemas.Node, len(doc.Nodes)),
		outgoing: make(map[string][]schemas.Edge, len(doc.Nodes)),
		incoming: make(map[string][]schemas.Edge, len(doc.Nodes)),
	}
	for _, n := range doc.Nodes {
		idx.nodes[n.ID] = n
	}
	for _, e := range doc.Edges {
		idx.outgoing[e.From] = append(idx.outgoing[e.From], e)
		idx.incoming[e.To] = append(idx.incoming[e.To], e)
	}
	return idx
}

func (idx *graphIndex) related(id string, relation schemas.RelationType) []schemas.Node {
	var out []schemas.Node
	for _, e := range idx.outgoing[id] {
		if e.Relation == relation {
			if n, ok := idx.nodes[e.To]; ok {
				out = append(out, n)
			}
		}
	}
	return out
}

func (idx *graphIndex) relatedIncoming(id string, relation schemas.RelationType) []schemas.Node {
	var out []schemas.Node
	for _, e := range idx.incoming[id] {
		if e.Relation == relation {
			if n, ok := idx.nodes[e.From]; ok {
				out = append(out, n)
			}
		}
	}
	return out
}

// FindTopPaths enumerates and scores candidate attack paths over the
// snapshot, deduplicates them per subject (highest score wins, first
// enumerated wins ties), and returns the top k sorted by descending score.
func (p *Planner) FindTopPaths(doc schemas.GraphDocument, memory *MemoryContext, k int) []schemas.AttackPath {
	idx := buildIndex(doc)

	var candidates []schemas.AttackPath
	candidates = append(candidates, p.enumerateServicePaths(idx, memory)...)
	candidates = append(candidates, p.enumerateEndpointPaths(idx, memory)...)
	candidates = append(candidates, p.enumerateInfraPaths(idx, memory)...)
	candidates = append(candidates, p.enumerateOSINTPaths(idx, memory)...)

	// Dedup: one path per subject, keep the highest-scoring variant. A later
	// candidate must strictly exceed the current best to replace it.
	best := make(map[string]int) // subject -> index into deduped
	var deduped []schemas.AttackPath
	for _, c := range candidates {
		if i, ok := best[c.SubjectID]; ok {
			if c.Score > deduped[i].Score {
				deduped[i] = c
			}
			continue
		}
		best[c.SubjectID] = len(deduped)
		deduped = append(deduped, c)
	}

	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].Score > deduped[j].Score })
	if k > 0 && len(deduped) > k {
		deduped = deduped[:k]
	}
	p.log.Debug("Planner ranking complete",
		zap.Int("candidates", len(candidates)), zap.Int("returned", len(deduped)))
	return deduped
}

// -- Shape 1: subdomain -> http service (-> optional js file) --

func (p *Planner) enumerateServicePaths(idx *graphIndex, memory *MemoryContext) []schemas.AttackPath {
	var out []schemas.AttackPath
	for _, sub := range p.subdomains(idx) {
		for _, svc := range idx.related(sub.ID, schemas.RelationExposesHTTP) {
			jsFiles := idx.related(svc.ID, schemas.RelationLoadsJS)
			if len(jsFiles) == 0 {
				b := newScoreBuilder(sub, schemas.ShapeService)
				b.scoreSubdomainBase(sub)
				b.scoreService(svc)
				b.scoreVulns(idx, sub.ID, svc.ID)
				b.applyMemory(memory, sub.ID, svc.ID)
				b.addEvidence(svc.ID)
				out = append(out, b.build())
				continue
			}
			// One candidate per JS file; dedup keeps the strongest variant.
			for _, js := range jsFiles {
				b := newScoreBuilder(sub, schemas.ShapeService)
				b.scoreSubdomainBase(sub)
				b.scoreService(svc)
				b.scoreJSFile(js)
				b.scoreVulns(idx, sub.ID, svc.ID, js.ID)
				b.applyMemory(memory, sub.ID, svc.ID, js.ID)
				b.addEvidence(svc.ID, js.ID)
				out = append(out, b.build())
			}
		}
	}
	return out
}

// -- Shape 2: subdomain -> http service -> endpoint set --

func (p *Planner) enumerateEndpointPaths(idx *graphIndex, memory *MemoryContext) []schemas.AttackPath {
	var out []schemas.AttackPath
	for _, sub := range p.subdomains(idx) {
		for _, svc := range idx.related(sub.ID, schemas.RelationExposesHTTP) {
			endpoints := idx.related(svc.ID, schemas.RelationExposesEndpoint)
			if len(endpoints) == 0 {
				continue
			}
			b := newScoreBuilder(sub, schemas.ShapeEndpoint)
			b.scoreSubdomainBase(sub)
			b.scoreService(svc)
			b.scoreEndpointSet(endpoints)
			ids := []string{svc.ID}
			for _, ep := range endpoints {
				ids = append(ids, ep.ID)
			}
			b.scoreVulns(idx, append([]string{sub.ID}, ids...)...)
			b.applyMemory(memory, append([]string{sub.ID}, ids...)...)
			b.addEvidence(ids...)
			out = append(out, b.build())
		}
	}
	return out
}

// -- Shape 3: subdomain with no http service -> infra facts --

func (p *Planner) enumerateInfraPaths(idx *graphIndex, memory *MemoryContext) []schemas.AttackPath {
	var out []schemas.AttackPath
	for _, sub := range p.subdomains(idx) {
		if len(idx.related(sub.ID, schemas.RelationExposesHTTP)) > 0 {
			continue
		}
		ips := idx.related(sub.ID, schemas.RelationResolvesTo)
		records := idx.related(sub.ID, schemas.RelationHasRecord)
		if len(ips) == 0 && len(records) == 0 {
			continue
		}
		// Infra-only subjects start from zero, not the stored priority.
		b := newScoreBuilder(sub, schemas.ShapeInfra)
		b.scoreInfra(idx, sub, ips, records)
		b.scoreVulns(idx, sub.ID)
		b.applyMemory(memory, sub.ID)
		for _, ip := range ips {
			b.addEvidence(ip.ID)
		}
		for _, r := range records {
			b.addEvidence(r.ID)
		}
		out = append(out, b.build())
	}
	return out
}

// -- Shape 4: OSINT entity -> related entities --

func (p *Planner) enumerateOSINTPaths(idx *graphIndex, memory *MemoryContext) []schemas.AttackPath {
	var out []schemas.AttackPath
	for _, n := range idx.nodes {
		if n.Type != schemas.NodeOrg && n.Type != schemas.NodeDomain {
			continue
		}
		saas := idx.related(n.ID, schemas.RelationOrgUsesSaaS)
		leaks := idx.relatedIncoming(n.ID, schemas.RelationLeakRelatesTo)
		if len(saas) == 0 && len(leaks) == 0 {
			continue
		}
		b := newScoreBuilder(n, schemas.ShapeOSINT)
		b.scoreOSINT(saas, leaks)
		b.applyMemory(memory, n.ID)
		for _, s := range saas {
			b.addEvidence(s.ID)
		}
		for _, l := range leaks {
			b.addEvidence(l.ID)
		}
		out = append(out, b.build())
	}
	return out
}

func (p *Planner) subdomains(idx *graphIndex) []schemas.Node {
	var subs []schemas.Node
	for _, n := range idx.nodes {
		if n.Type == schemas.NodeSubdomain {
			subs = append(subs, n)
		}
	}
	// Map iteration order is random; sort for deterministic enumeration so
	// tie-breaking ("first enumerated wins") is reproducible.
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

func nodePriority(n schemas.Node) int {
	v, err := strconv.Atoi(n.Properties["priority"])
	if err != nil {
		return 0
	}
	return v
}

func isStateChangingMethod(m string) bool {
	switch strings.ToUpper(m) {
	case "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}
