// File: internal/assetgraph/scope_test.go
package assetgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

func TestScopeFilterAllowName(t *testing.T) {
	f := NewScopeFilter("tahiti-infos.com")

	t.Run("should reject generic placeholder names", func(t *testing.T) {
		assert.False(t, f.AllowName("Target Corporation", true))
		assert.False(t, f.AllowName("Acme", false))
		assert.False(t, f.AllowName("Example Industries", true))
		assert.False(t, f.AllowName("", false))
	})

	t.Run("should accept names relating to the target domain", func(t *testing.T) {
		assert.True(t, f.AllowName("Tahiti-Infos Media", true))
		assert.True(t, f.AllowName("TAHITIINFOS SAS", true))
	})

	t.Run("should reject unrelated names when a relation is required", func(t *testing.T) {
		assert.False(t, f.AllowName("Pacific Publishing Ltd", true))
	})

	t.Run("should skip the relation check when not required", func(t *testing.T) {
		assert.True(t, f.AllowName("Okta", false))
	})
}

func TestScopedOSINTUpserts(t *testing.T) {
	g := New("tahiti-infos.com", zap.NewNop())

	t.Run("should reject a fabricated org", func(t *testing.T) {
		id, ok := g.AddOrg(schemas.OrgFact{Name: "Target Corporation"})
		assert.False(t, ok)
		assert.Empty(t, id)
		assert.Zero(t, g.CountByType(schemas.NodeOrg))
	})

	t.Run("should accept a domain related org and anchor later entities to it", func(t *testing.T) {
		orgID, ok := g.AddOrg(schemas.OrgFact{Name: "Tahiti-Infos Media", Source: "whois"})
		require.True(t, ok)

		saasID, ok := g.AddSaaSApp(schemas.SaaSFact{Name: "Okta", Category: "credential"})
		require.True(t, ok)

		doc := g.ToDocument()
		found := false
		for _, e := range doc.Edges {
			if e.From == orgID && e.To == saasID && e.Relation == schemas.RelationOrgUsesSaaS {
				found = true
			}
		}
		assert.True(t, found, "SaaS node should hang off the primary org")
	})

	t.Run("should require a domain relation for repositories", func(t *testing.T) {
		_, ok := g.AddRepository(schemas.RepositoryFact{URL: "https://github.com/generic/repo"})
		assert.False(t, ok)

		id, ok := g.AddRepository(schemas.RepositoryFact{URL: "https://github.com/tahiti-infos/site"})
		require.True(t, ok)
		assert.NotEmpty(t, id)
	})

	t.Run("should anchor osint satellites to the domain node before any org exists", func(t *testing.T) {
		g2 := New("tahiti-infos.com", zap.NewNop())
		leakID, ok := g2.AddLeak(schemas.LeakFact{Reference: "breach-dump-2023", Kind: "credentials"})
		require.True(t, ok)

		doc := g2.ToDocument()
		found := false
		for _, e := range doc.Edges {
			if e.From == leakID && e.To == g2.DomainNodeID() && e.Relation == schemas.RelationLeakRelatesTo {
				found = true
			}
		}
		assert.True(t, found)
	})
}
