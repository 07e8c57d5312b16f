// File: internal/assetgraph/document_test.go
package assetgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// buildPopulatedGraph exercises every public upsert path once.
func buildPopulatedGraph(t *testing.T) *Graph {
	t.Helper()
	g := New("tahiti-infos.com", zap.NewNop())

	_, err := g.UpsertSubdomain(schemas.SubdomainFact{
		Subdomain: "app.tahiti-infos.com", Priority: 9, Tag: "auth-portal",
		HTTP: &schemas.HTTPFact{URL: "https://app.tahiti-infos.com", StatusCode: 200, Technologies: []string{"Django"}},
	})
	require.NoError(t, err)

	enrich := &schemas.EndpointEnrichment{
		Category: schemas.CategoryAPI, Behavior: schemas.BehaviorIDBasedAccess,
		Likelihood: 4, Impact: 3, Risk: 12, AuthRequired: "true", TechStack: "Unknown",
		Parameters: []schemas.Parameter{
			{Name: "id", Location: schemas.LocationQuery, Sensitivity: schemas.SensitivityMedium, DatatypeHint: "integer"},
		},
	}
	epID, err := g.UpsertEndpoint(schemas.EndpointFact{
		Path: "/api/v1/users", Method: "GET", Source: "crawl", Origin: "https://app.tahiti-infos.com",
	}, enrich)
	require.NoError(t, err)

	require.NoError(t, g.UpsertJSAnalysis(schemas.JSAnalysisFact{
		Origin:  "https://app.tahiti-infos.com",
		JSFiles: []string{"https://app.tahiti-infos.com/main.js"},
	}))

	_, err = g.UpsertInfra(schemas.InfraFact{
		Subdomain: "mail.tahiti-infos.com", IPs: []string{"203.0.113.10"},
		ASN: "AS16276", ASNOrg: "OVH SAS", Records: []string{"MX"}, SPF: true,
	})
	require.NoError(t, err)

	_, err = g.UpsertVulnerability(schemas.VulnerabilityFact{
		Severity: "medium", Tool: "scanner", Name: "Open Redirect",
		AffectedNodeID: epID, Confidence: 0.5,
	})
	require.NoError(t, err)

	g.UpsertHypothesis(epID, "idor candidate", "identifier access on api path", []string{epID})

	_, ok := g.AddOrg(schemas.OrgFact{Name: "Tahiti-Infos Media"})
	require.True(t, ok)
	_, ok = g.AddSaaSApp(schemas.SaaSFact{Name: "Okta", Category: "credential"})
	require.True(t, ok)
	_, ok = g.AddLeak(schemas.LeakFact{Reference: "breach-2023"})
	require.True(t, ok)

	return g
}

func TestDocumentRoundTrip(t *testing.T) {
	g := buildPopulatedGraph(t)

	t.Run("should round trip node and edge sets exactly", func(t *testing.T) {
		doc := g.ToDocument()
		reloaded, err := LoadFromDocument(doc, zap.NewNop())
		require.NoError(t, err)

		if diff := cmp.Diff(doc, reloaded.ToDocument()); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should produce deterministic output ordering", func(t *testing.T) {
		doc1 := g.ToDocument()
		doc2 := g.ToDocument()
		if diff := cmp.Diff(doc1, doc2); diff != "" {
			t.Fatalf("serialization not deterministic (-first +second):\n%s", diff)
		}
	})
}

func TestLoadFromDocumentValidation(t *testing.T) {
	t.Run("should reject a document without a target domain", func(t *testing.T) {
		_, err := LoadFromDocument(schemas.GraphDocument{}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("should reject edges referencing unknown nodes", func(t *testing.T) {
		doc := schemas.GraphDocument{
			TargetDomain: "tahiti-infos.com",
			Nodes: []schemas.Node{
				{ID: "a", Type: schemas.NodeSubdomain, Properties: map[string]string{}},
			},
			Edges: []schemas.Edge{
				{From: "a", To: "ghost", Relation: schemas.RelationResolvesTo},
			},
		}
		_, err := LoadFromDocument(doc, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestSaveAndLoadDocumentFile(t *testing.T) {
	g := buildPopulatedGraph(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "graph.json")

	t.Run("should persist and reload through the filesystem", func(t *testing.T) {
		require.NoError(t, g.SaveDocument(path))

		doc, err := LoadDocumentFile(path)
		require.NoError(t, err)
		if diff := cmp.Diff(g.ToDocument(), doc); diff != "" {
			t.Fatalf("file round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should leave no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
