// File: internal/collaborators/filefacts/filefacts.go
// A file-based discovery collaborator. It satisfies every provider interface
// by reading fact documents that external tooling dropped into a facts
// directory, which keeps the pipeline runnable without binding the core to
// any particular scanner or enumerator.
//
// Recognized files (all optional): osint.json, subdomains.json, infra.json,
// endpoints.json, js.json, vulns.json. A missing file yields empty results,
// not an error.
package filefacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Provider serves facts from a directory of JSON documents. All files are
// read once at construction; lookups afterwards are in-memory.
type Provider struct {
	dir string
	log *zap.Logger

	osint      schemas.OSINTFacts
	subdomains []schemas.SubdomainFact
	infra      []schemas.InfraFact
	endpoints  []schemas.EndpointFact
	js         []schemas.JSAnalysisFact
	vulns      []schemas.VulnerabilityFact
}

// New loads every recognized fact file under dir. Unreadable or malformed
// files are errors; absent files are not.
func New(dir string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{dir: dir, log: logger.Named("FileFacts")}

	if err := p.loadFile("osint.json", &p.osint); err != nil {
		return nil, err
	}
	if err := p.loadFile("subdomains.json", &p.subdomains); err != nil {
		return nil, err
	}
	if err := p.loadFile("infra.json", &p.infra); err != nil {
		return nil, err
	}
	if err := p.loadFile("endpoints.json", &p.endpoints); err != nil {
		return nil, err
	}
	if err := p.loadFile("js.json", &p.js); err != nil {
		return nil, err
	}
	if err := p.loadFile("vulns.json", &p.vulns); err != nil {
		return nil, err
	}

	p.log.Info("Fact files loaded",
		zap.String("dir", dir),
		zap.Int("subdomains", len(p.subdomains)),
		zap.Int("endpoints", len(p.endpoints)),
		zap.Int("vulns", len(p.vulns)))
	return p, nil
}

func (p *Provider) loadFile(name string, out any) error {
	path := filepath.Join(p.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.log.Debug("Fact file absent", zap.String("file", name))
			return nil
		}
		return fmt.Errorf("failed to read fact file %q: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse fact file %q: %w", path, err)
	}
	return nil
}

// CollectOSINT returns the loaded organization-level intelligence.
func (p *Provider) CollectOSINT(_ context.Context, _ string) (schemas.OSINTFacts, error) {
	return p.osint, nil
}

// EnumerateSubdomains returns the loaded subdomain facts.
func (p *Provider) EnumerateSubdomains(_ context.Context, _ string) ([]schemas.SubdomainFact, error) {
	return p.subdomains, nil
}

// ResolveInfra returns the infra fact recorded for the subdomain, or an
// empty fact when none was provided.
func (p *Provider) ResolveInfra(_ context.Context, subdomain string) (schemas.InfraFact, error) {
	want := strings.ToLower(strings.TrimSpace(subdomain))
	for _, f := range p.infra {
		if strings.ToLower(f.Subdomain) == want {
			return f, nil
		}
	}
	return schemas.InfraFact{Subdomain: subdomain}, nil
}

// DiscoverEndpoints returns the endpoint facts recorded for the origin.
func (p *Provider) DiscoverEndpoints(_ context.Context, origin string) ([]schemas.EndpointFact, error) {
	want := strings.ToLower(strings.TrimRight(origin, "/"))
	var out []schemas.EndpointFact
	for _, f := range p.endpoints {
		if strings.ToLower(strings.TrimRight(f.Origin, "/")) == want {
			out = append(out, f)
		}
	}
	return out, nil
}

// AnalyzeJS returns the JS analysis recorded for the origin, or an empty
// analysis when none was provided.
func (p *Provider) AnalyzeJS(_ context.Context, origin string) (schemas.JSAnalysisFact, error) {
	want := strings.ToLower(strings.TrimRight(origin, "/"))
	for _, f := range p.js {
		if strings.ToLower(strings.TrimRight(f.Origin, "/")) == want {
			return f, nil
		}
	}
	return schemas.JSAnalysisFact{Origin: origin}, nil
}

// ScanTargets returns the recorded candidate findings whose URL falls under
// one of the requested targets. Findings without a URL are always included;
// their affected node carries the association instead.
func (p *Provider) ScanTargets(_ context.Context, targets []string) ([]schemas.VulnerabilityFact, error) {
	var out []schemas.VulnerabilityFact
	for _, f := range p.vulns {
		if f.URL == "" || matchesAny(f.URL, targets) {
			out = append(out, f)
		}
	}
	return out, nil
}

func matchesAny(url string, targets []string) bool {
	lower := strings.ToLower(url)
	for _, t := range targets {
		if strings.HasPrefix(lower, strings.ToLower(strings.TrimRight(t, "/"))) {
			return true
		}
	}
	return false
}
