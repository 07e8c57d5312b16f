// File: internal/orchestrator/phases.go
// The individual phase runners. Each folds its results into the asset graph
// and returns at most one phase-level error; per-unit failures inside the
// parallel phases are recorded individually and never stop sibling units.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// phaseOSINT gathers organization-level intelligence and enumerates the
// subdomain surface. Scope-rejected entities are excluded inside the graph;
// individual ingestion failures are counted, never fatal.
func (o *Orchestrator) phaseOSINT(ctx context.Context) error {
	if o.collab.OSINT != nil {
		octx, cancel := context.WithTimeout(ctx, o.cfg.Mission.RequestTimeout)
		facts, err := o.collab.OSINT.CollectOSINT(octx, o.cfg.Mission.TargetDomain)
		cancel()
		if err != nil {
			o.recordError(schemas.PhaseOSINT, fmt.Errorf("osint collection failed: %w", err))
		} else {
			o.ingestOSINT(facts)
		}
	}

	if o.collab.Subdomains != nil {
		sctx, cancel := context.WithTimeout(ctx, o.cfg.Mission.RequestTimeout)
		subs, err := o.collab.Subdomains.EnumerateSubdomains(sctx, o.cfg.Mission.TargetDomain)
		cancel()
		if err != nil {
			return fmt.Errorf("subdomain enumeration failed: %w", err)
		}
		for _, fact := range subs {
			if _, err := o.graph.UpsertSubdomain(fact); err != nil {
				o.recordError(schemas.PhaseOSINT, fmt.Errorf("subdomain fact skipped: %w", err))
			}
		}
	}
	return nil
}

func (o *Orchestrator) ingestOSINT(facts schemas.OSINTFacts) {
	accepted, rejected := 0, 0
	count := func(ok bool) {
		if ok {
			accepted++
		} else {
			rejected++
		}
	}
	for _, f := range facts.Orgs {
		_, ok := o.graph.AddOrg(f)
		count(ok)
	}
	for _, f := range facts.Brands {
		_, ok := o.graph.AddBrand(f)
		count(ok)
	}
	for _, f := range facts.SaaSApps {
		_, ok := o.graph.AddSaaSApp(f)
		count(ok)
	}
	for _, f := range facts.Leaks {
		_, ok := o.graph.AddLeak(f)
		count(ok)
	}
	for _, f := range facts.Repositories {
		_, ok := o.graph.AddRepository(f)
		count(ok)
	}
	o.log.Info("OSINT entities ingested", zap.Int("accepted", accepted), zap.Int("rejected", rejected))
}

// phaseRecon resolves infrastructure for every subdomain and discovers
// endpoints and JavaScript behind every live HTTP service, with bounded
// parallelism. Each unit carries its own request timeout so a stalled probe
// never blocks siblings.
func (o *Orchestrator) phaseRecon(ctx context.Context) error {
	subdomains := o.graph.NodesByType(schemas.NodeSubdomain)
	if len(subdomains) > o.cfg.Mission.MaxTargets {
		o.recordError(schemas.PhaseRecon, fmt.Errorf(
			"target budget exceeded: %d subdomains, processing first %d",
			len(subdomains), o.cfg.Mission.MaxTargets))
		subdomains = subdomains[:o.cfg.Mission.MaxTargets]
	}

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.Mission.WorkerConcurrency)

	if o.collab.Infra != nil {
		for _, sub := range subdomains {
			g.Go(func() error {
				uctx, cancel := context.WithTimeout(ctx, o.cfg.Mission.RequestTimeout)
				defer cancel()
				fact, err := o.collab.Infra.ResolveInfra(uctx, sub.ID)
				if err != nil {
					o.recordError(schemas.PhaseRecon, fmt.Errorf("infra resolution for %s: %w", sub.ID, err))
					return nil
				}
				if _, err := o.graph.UpsertInfra(fact); err != nil {
					o.recordError(schemas.PhaseRecon, fmt.Errorf("infra fact for %s skipped: %w", sub.ID, err))
				}
				return nil
			})
		}
	}

	services := o.graph.NodesByType(schemas.NodeHTTPService)
	if len(services) > o.cfg.Mission.MaxTargets {
		o.recordError(schemas.PhaseRecon, fmt.Errorf(
			"target budget exceeded: %d services, processing first %d",
			len(services), o.cfg.Mission.MaxTargets))
		services = services[:o.cfg.Mission.MaxTargets]
	}
	for _, svc := range services {
		origin := svc.Properties["url"]
		if origin == "" {
			continue
		}
		if o.collab.Endpoints != nil {
			g.Go(func() error {
				uctx, cancel := context.WithTimeout(ctx, o.cfg.Mission.RequestTimeout)
				defer cancel()
				facts, err := o.collab.Endpoints.DiscoverEndpoints(uctx, origin)
				if err != nil {
					o.recordError(schemas.PhaseRecon, fmt.Errorf("endpoint discovery for %s: %w", origin, err))
					return nil
				}
				o.factsMu.Lock()
				o.pendingEndpoints = append(o.pendingEndpoints, facts...)
				o.factsMu.Unlock()
				return nil
			})
		}
		if o.collab.JS != nil {
			g.Go(func() error {
				uctx, cancel := context.WithTimeout(ctx, o.cfg.Mission.RequestTimeout)
				defer cancel()
				fact, err := o.collab.JS.AnalyzeJS(uctx, origin)
				if err != nil {
					o.recordError(schemas.PhaseRecon, fmt.Errorf("js analysis for %s: %w", origin, err))
					return nil
				}
				if fact.Origin == "" {
					fact.Origin = origin
				}
				if err := o.graph.UpsertJSAnalysis(fact); err != nil {
					o.recordError(schemas.PhaseRecon, fmt.Errorf("js facts for %s skipped: %w", origin, err))
				}
				return nil
			})
		}
	}

	// Workers record their own errors and never fail the group.
	_ = g.Wait()
	return nil
}

// phaseEndpointIntel enriches every endpoint discovered during recon and
// records a hypothesis node for each endpoint whose pre-scored risk crosses
// the configured threshold.
func (o *Orchestrator) phaseEndpointIntel(_ context.Context) error {
	o.factsMu.Lock()
	pending := o.pendingEndpoints
	o.pendingEndpoints = nil
	o.factsMu.Unlock()

	hypotheses := 0
	for _, fact := range pending {
		enrich := o.engine.Enrich(fact)
		epID, err := o.graph.UpsertEndpoint(fact, &enrich)
		if err != nil {
			o.recordError(schemas.PhaseEndpointIntel, fmt.Errorf("endpoint fact skipped: %w", err))
			continue
		}
		if enrich.Risk >= o.cfg.Mission.RiskThreshold {
			title := fmt.Sprintf("High-risk endpoint %s %s", fact.Method, fact.Path)
			rationale := fmt.Sprintf("category=%s risk=%d likelihood=%d impact=%d",
				enrich.Category, enrich.Risk, enrich.Likelihood, enrich.Impact)
			o.graph.UpsertHypothesis(epID, title, rationale, []string{epID})
			hypotheses++
		}
	}
	o.log.Info("Endpoint intelligence complete",
		zap.Int("endpoints", len(pending)), zap.Int("hypotheses", hypotheses))
	return nil
}

// phaseVerification ranks attack paths over a graph snapshot, scans the
// prioritized targets, confirms candidate findings with safe probes, and
// folds the validated findings back into the graph.
func (o *Orchestrator) phaseVerification(ctx context.Context) error {
	doc := o.graph.ToDocument()
	o.paths = o.planner.FindTopPaths(doc, o.memory, o.cfg.Mission.MaxTargets)
	if len(o.paths) == 0 {
		o.log.Info("No attack paths to verify")
		return nil
	}
	if _, err := o.reporter.WritePlan(schemas.PlanDocument{
		TargetDomain: o.cfg.Mission.TargetDomain,
		Paths:        o.paths,
	}); err != nil {
		o.recordError(schemas.PhaseVerification, err)
	}

	if o.collab.Scanner == nil {
		return nil
	}
	targets := o.scanTargets()
	if len(targets) == 0 {
		return nil
	}

	findings, err := o.collab.Scanner.ScanTargets(ctx, targets)
	if err != nil {
		return fmt.Errorf("target scanning failed: %w", err)
	}
	o.findings = o.validator.ValidateAll(ctx, findings)

	for _, f := range o.findings {
		if _, err := o.graph.UpsertVulnerability(f); err != nil {
			o.recordError(schemas.PhaseVerification, fmt.Errorf("vulnerability fact skipped: %w", err))
		}
	}
	return nil
}

// scanTargets derives the scannable URL set from the ranked paths: the
// subject itself when it is a live service, plus any service evidence nodes.
func (o *Orchestrator) scanTargets() []string {
	seen := make(map[string]bool)
	var targets []string
	addNode := func(id string) {
		n, ok := o.graph.GetNode(id)
		if !ok || n.Type != schemas.NodeHTTPService {
			return
		}
		url := n.Properties["url"]
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		targets = append(targets, url)
	}
	for _, p := range o.paths {
		addNode(p.SubjectID)
		for _, ref := range p.EvidenceRefs {
			addNode(ref)
		}
		if len(targets) >= o.cfg.Mission.MaxTargets {
			break
		}
	}
	if len(targets) > o.cfg.Mission.MaxTargets {
		targets = targets[:o.cfg.Mission.MaxTargets]
	}
	return targets
}

// phaseMinimalReport renders the truncated abort-path report. The graph and
// metrics documents are still persisted by the surrounding machinery.
func (o *Orchestrator) phaseMinimalReport(_ context.Context) error {
	o.refreshCounts()
	_, err := o.reporter.WriteMinimalReport(o.graph.ToDocument(), o.metrics)
	return err
}

// phaseReporting renders the full mission report. On the abort path the
// minimal report already exists and is left untouched.
func (o *Orchestrator) phaseReporting(_ context.Context) error {
	if o.metrics.Aborted {
		return nil
	}
	o.refreshCounts()
	_, err := o.reporter.WriteMissionReport(o.graph.ToDocument(), o.paths, o.findings, o.metrics)
	return err
}
