// File: internal/planner/planner_test.go
package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
	"github.com/xkilldash9x/cartograph/internal/assetgraph"
)

func newTestPlanner() *Planner {
	return New(zap.NewNop())
}

func findPath(paths []schemas.AttackPath, subject string) (schemas.AttackPath, bool) {
	for _, p := range paths {
		if p.SubjectID == subject {
			return p, true
		}
	}
	return schemas.AttackPath{}, false
}

func TestServicePathScoring(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	subID, err := g.UpsertSubdomain(schemas.SubdomainFact{
		Subdomain: "auth.tahiti-infos.com",
		Priority:  9,
		Tag:       "auth-portal",
		HTTP: &schemas.HTTPFact{
			URL:          "https://auth.tahiti-infos.com",
			Technologies: []string{"nginx", "Django"},
		},
	})
	require.NoError(t, err)

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)
	path, ok := findPath(paths, subID)
	require.True(t, ok)

	t.Run("should score a prioritized auth portal with a backend stack at seventeen or more", func(t *testing.T) {
		// priority 9 + auth-portal 5 + backend 3
		assert.GreaterOrEqual(t, path.Score, 17)
	})

	t.Run("should carry traceable reasons for every bonus", func(t *testing.T) {
		joined := ""
		for _, r := range path.Reasons {
			joined += r + "\n"
		}
		assert.Contains(t, joined, "auth-portal")
		assert.Contains(t, joined, "Backend stack")
	})

	t.Run("should recommend an auth focused active scan", func(t *testing.T) {
		assert.Contains(t, path.NextActions, ActionAuthActiveScan)
	})
}

func TestMemoryBoost(t *testing.T) {
	build := func() schemas.GraphDocument {
		g := assetgraph.New("tahiti-infos.com", zap.NewNop())
		_, err := g.UpsertSubdomain(schemas.SubdomainFact{
			Subdomain: "api.tahiti-infos.com",
			Priority:  5,
			HTTP:      &schemas.HTTPFact{URL: "https://api.tahiti-infos.com"},
		})
		require.NoError(t, err)
		return g.ToDocument()
	}

	t.Run("should add the boost verbatim with its own reason", func(t *testing.T) {
		doc := build()
		p := newTestPlanner()

		base, ok := findPath(p.FindTopPaths(doc, nil, 10), "api.tahiti-infos.com")
		require.True(t, ok)

		memory := &MemoryContext{
			KnownHighValue: map[string]bool{"api.tahiti-infos.com": true},
			Boost:          3,
		}
		boosted, ok := findPath(p.FindTopPaths(doc, memory, 10), "api.tahiti-infos.com")
		require.True(t, ok)

		assert.Equal(t, base.Score+3, boosted.Score)
		assert.Contains(t, boosted.Reasons, "Memory Boost (+3)")
	})
}

func TestInfraOnlyScoring(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	fqdn, err := g.UpsertInfra(schemas.InfraFact{
		Subdomain: "mail.tahiti-infos.com",
		IPs:       []string{"203.0.113.10"},
		ASN:       "AS16276",
		ASNOrg:    "OVH SAS",
		Records:   []string{"MX"},
		SPF:       true,
	})
	require.NoError(t, err)

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)
	path, ok := findPath(paths, fqdn)
	require.True(t, ok)

	t.Run("should score mail name plus provider plus dns evidence at exactly nine", func(t *testing.T) {
		assert.Equal(t, 9, path.Score)
		assert.Equal(t, schemas.ShapeInfra, path.Shape)
	})

	t.Run("should recommend an smtp test and a dns audit", func(t *testing.T) {
		assert.Contains(t, path.NextActions, ActionSMTPTest)
		assert.Contains(t, path.NextActions, ActionDNSAudit)
	})
}

func TestInfraShapeSkipsLiveServices(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	subID, err := g.UpsertSubdomain(schemas.SubdomainFact{
		Subdomain: "app.tahiti-infos.com",
		HTTP:      &schemas.HTTPFact{URL: "https://app.tahiti-infos.com"},
	})
	require.NoError(t, err)
	_, err = g.UpsertInfra(schemas.InfraFact{Subdomain: "app.tahiti-infos.com", IPs: []string{"203.0.113.11"}})
	require.NoError(t, err)

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)
	path, ok := findPath(paths, subID)
	require.True(t, ok)
	assert.NotEqual(t, schemas.ShapeInfra, path.Shape)
}

func TestEndpointSetScoring(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	origin := "https://api.tahiti-infos.com"
	_, err := g.UpsertSubdomain(schemas.SubdomainFact{
		Subdomain: "api.tahiti-infos.com",
		HTTP:      &schemas.HTTPFact{URL: origin},
	})
	require.NoError(t, err)

	enrichAPI := &schemas.EndpointEnrichment{Category: schemas.CategoryAPI}
	enrichAdmin := &schemas.EndpointEnrichment{Category: schemas.CategoryAdmin}
	_, err = g.UpsertEndpoint(schemas.EndpointFact{Path: "/api/v1/users", Method: "POST", Source: "wayback", Origin: origin}, enrichAPI)
	require.NoError(t, err)
	_, err = g.UpsertEndpoint(schemas.EndpointFact{Path: "/admin/panel", Method: "GET", Source: "crawl", Origin: origin}, enrichAdmin)
	require.NoError(t, err)

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)
	path, ok := findPath(paths, "api.tahiti-infos.com")
	require.True(t, ok)

	t.Run("should accumulate class source and method bonuses", func(t *testing.T) {
		// api 1 + admin 3 + historical 2 + state-changing 2
		assert.Equal(t, schemas.ShapeEndpoint, path.Shape)
		assert.Equal(t, 8, path.Score)
	})

	t.Run("should recommend fuzzing passes", func(t *testing.T) {
		assert.Contains(t, path.NextActions, ActionAPIFuzz)
		assert.Contains(t, path.NextActions, ActionAuthActiveScan)
		assert.Contains(t, path.NextActions, ActionDirectoryFuzz)
	})
}

func TestOSINTScoring(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	orgID, ok := g.AddOrg(schemas.OrgFact{Name: "Tahiti-Infos Media"})
	require.True(t, ok)
	_, ok = g.AddSaaSApp(schemas.SaaSFact{Name: "Okta", Category: "credential"})
	require.True(t, ok)
	_, ok = g.AddLeak(schemas.LeakFact{Reference: "breach-2023"})
	require.True(t, ok)

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)
	path, found := findPath(paths, orgID)
	require.True(t, found)

	t.Run("should score saas category and leak evidence", func(t *testing.T) {
		// saas 3 + sensitive category 2 + leak 6
		assert.Equal(t, 11, path.Score)
		assert.Equal(t, schemas.ShapeOSINT, path.Shape)
	})

	t.Run("should recommend phishing design and credential stuffing simulation", func(t *testing.T) {
		assert.Contains(t, path.NextActions, ActionPhishingScenario)
		assert.Contains(t, path.NextActions, ActionCredStuffing)
	})
}

func TestDeduplication(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	origin := "https://app.tahiti-infos.com"
	subID, err := g.UpsertSubdomain(schemas.SubdomainFact{
		Subdomain: "app.tahiti-infos.com",
		HTTP:      &schemas.HTTPFact{URL: origin},
	})
	require.NoError(t, err)

	// Two JS files: one high value, one low value, so the two service-shape
	// candidates for the subject differ in score.
	require.NoError(t, g.UpsertJSAnalysis(schemas.JSAnalysisFact{
		Origin: origin,
		JSFiles: []string{
			"https://app.tahiti-infos.com/static/config.js",
			"https://app.tahiti-infos.com/static/analytics.js",
		},
	}))

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 10)

	t.Run("should return exactly one entry per subject", func(t *testing.T) {
		count := 0
		for _, p := range paths {
			if p.SubjectID == subID {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("should keep the higher scoring variant", func(t *testing.T) {
		path, ok := findPath(paths, subID)
		require.True(t, ok)
		// The config.js candidate scores +3; the analytics.js one scores -2.
		assert.Equal(t, 3, path.Score)
	})
}

func TestRankingAndTruncation(t *testing.T) {
	g := assetgraph.New("tahiti-infos.com", zap.NewNop())
	for _, sub := range []schemas.SubdomainFact{
		{Subdomain: "a.tahiti-infos.com", Priority: 1, HTTP: &schemas.HTTPFact{URL: "https://a.tahiti-infos.com"}},
		{Subdomain: "b.tahiti-infos.com", Priority: 5, HTTP: &schemas.HTTPFact{URL: "https://b.tahiti-infos.com"}},
		{Subdomain: "c.tahiti-infos.com", Priority: 3, HTTP: &schemas.HTTPFact{URL: "https://c.tahiti-infos.com"}},
	} {
		_, err := g.UpsertSubdomain(sub)
		require.NoError(t, err)
	}

	paths := newTestPlanner().FindTopPaths(g.ToDocument(), nil, 2)

	t.Run("should sort descending and truncate to k", func(t *testing.T) {
		require.Len(t, paths, 2)
		assert.Equal(t, "b.tahiti-infos.com", paths[0].SubjectID)
		assert.Equal(t, "c.tahiti-infos.com", paths[1].SubjectID)
	})
}
