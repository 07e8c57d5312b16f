// File: internal/collaborators/filefacts/filefacts_test.go
package filefacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNew(t *testing.T) {
	t.Run("should treat absent files as empty results", func(t *testing.T) {
		p, err := New(t.TempDir(), zap.NewNop())
		require.NoError(t, err)

		subs, err := p.EnumerateSubdomains(context.Background(), "tahiti-infos.com")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("should reject malformed fact files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "subdomains.json", "{not json")
		_, err := New(dir, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestProviderLookups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "subdomains.json", `[
		{"subdomain": "app.tahiti-infos.com", "priority": 9, "tag": "auth-portal",
		 "http": {"url": "https://app.tahiti-infos.com", "status_code": 200}}
	]`)
	writeFile(t, dir, "infra.json", `[
		{"subdomain": "mail.tahiti-infos.com", "ips": ["203.0.113.10"], "asn": "AS16276",
		 "asn_org": "OVH SAS", "records": ["MX"], "spf": true}
	]`)
	writeFile(t, dir, "endpoints.json", `[
		{"path": "/admin/users", "method": "POST", "source": "wayback", "origin": "https://app.tahiti-infos.com"},
		{"path": "/other", "method": "GET", "source": "crawl", "origin": "https://other.tahiti-infos.com"}
	]`)
	writeFile(t, dir, "js.json", `[
		{"origin": "https://app.tahiti-infos.com", "js_files": ["https://app.tahiti-infos.com/main.js"]}
	]`)
	writeFile(t, dir, "vulns.json", `[
		{"severity": "high", "tool": "scanner", "name": "XSS", "description": "d",
		 "affected_node_id": "http:https://app.tahiti-infos.com", "url": "https://app.tahiti-infos.com/search"},
		{"severity": "low", "tool": "scanner", "name": "Other", "description": "d",
		 "affected_node_id": "x", "url": "https://unrelated.example.com/"}
	]`)

	p, err := New(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("should return all loaded subdomains", func(t *testing.T) {
		subs, err := p.EnumerateSubdomains(ctx, "tahiti-infos.com")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "auth-portal", subs[0].Tag)
		require.NotNil(t, subs[0].HTTP)
	})

	t.Run("should resolve infra by subdomain", func(t *testing.T) {
		fact, err := p.ResolveInfra(ctx, "MAIL.tahiti-infos.com")
		require.NoError(t, err)
		assert.Equal(t, "AS16276", fact.ASN)
		assert.True(t, fact.SPF)
	})

	t.Run("should return an empty infra fact for unknown subdomains", func(t *testing.T) {
		fact, err := p.ResolveInfra(ctx, "nope.tahiti-infos.com")
		require.NoError(t, err)
		assert.Empty(t, fact.IPs)
	})

	t.Run("should filter endpoints by origin", func(t *testing.T) {
		eps, err := p.DiscoverEndpoints(ctx, "https://app.tahiti-infos.com/")
		require.NoError(t, err)
		require.Len(t, eps, 1)
		assert.Equal(t, "/admin/users", eps[0].Path)
	})

	t.Run("should look up js analysis by origin", func(t *testing.T) {
		fact, err := p.AnalyzeJS(ctx, "https://app.tahiti-infos.com")
		require.NoError(t, err)
		assert.Len(t, fact.JSFiles, 1)
	})

	t.Run("should filter findings by scan target", func(t *testing.T) {
		findings, err := p.ScanTargets(ctx, []string{"https://app.tahiti-infos.com"})
		require.NoError(t, err)
		require.Len(t, findings, 1)
		assert.Equal(t, "XSS", findings[0].Name)
	})
}
