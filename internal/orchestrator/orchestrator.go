// File: internal/orchestrator/orchestrator.go
// Description: Manages the high-level lifecycle of a mission. It is injected
// with fully configured collaborators via interfaces, making it decoupled and
// testable.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
	"github.com/xkilldash9x/cartograph/internal/assetgraph"
	"github.com/xkilldash9x/cartograph/internal/config"
	"github.com/xkilldash9x/cartograph/internal/heuristics"
	"github.com/xkilldash9x/cartograph/internal/planner"
	"github.com/xkilldash9x/cartograph/internal/reporting"
	"github.com/xkilldash9x/cartograph/internal/validator"
)

// Collaborators bundles the external discovery and scanning providers. Any
// entry may be nil; the owning phase then skips that provider's work.
type Collaborators struct {
	OSINT      schemas.OSINTProvider
	Subdomains schemas.SubdomainProvider
	Infra      schemas.InfraResolver
	Endpoints  schemas.EndpointProvider
	JS         schemas.JSMiner
	Scanner    schemas.VulnScanner
}

// Orchestrator drives the mission phase state machine. Phases run strictly
// sequentially; parallelism lives inside the recon and verification phases.
type Orchestrator struct {
	cfg       *config.Config
	collab    Collaborators
	graph     *assetgraph.Graph
	engine    *heuristics.Engine
	planner   *planner.Planner
	validator *validator.Validator
	reporter  *reporting.Reporter
	memory    *planner.MemoryContext
	log       *zap.Logger

	runID   string
	metrics schemas.MissionMetrics
	metMu   sync.Mutex

	// Stashed between phases.
	pendingEndpoints []schemas.EndpointFact
	factsMu          sync.Mutex
	paths            []schemas.AttackPath
	findings         []schemas.VulnerabilityFact
}

// New creates an orchestrator for one mission run. The configuration must
// already be validated; a per-run output directory is created under the
// configured output root.
func New(
	cfg *config.Config,
	collab Collaborators,
	policy heuristics.RiskPolicy,
	memory *planner.MemoryContext,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := uuid.New().String()
	reporter, err := reporting.New(filepath.Join(cfg.Mission.OutputDir, runID), logger)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:       cfg,
		collab:    collab,
		graph:     assetgraph.New(cfg.Mission.TargetDomain, logger),
		engine:    heuristics.NewEngine(policy),
		planner:   planner.New(logger),
		validator: validator.New(cfg.Mission.RequestTimeout, cfg.Mission.WorkerConcurrency, logger),
		reporter:  reporter,
		memory:    memory,
		log:       logger.Named("Orchestrator"),
		runID:     runID,
		metrics: schemas.MissionMetrics{
			RunID:        runID,
			TargetDomain: cfg.Mission.TargetDomain,
			Mode:         cfg.Mission.Mode,
			PhaseTimes:   make(map[string]time.Duration),
		},
	}
	return o, nil
}

// RunID returns this mission's run identifier.
func (o *Orchestrator) RunID() string { return o.runID }

// OutputDir returns the per-run artifact directory.
func (o *Orchestrator) OutputDir() string { return o.reporter.OutputDir() }

// Run executes the mission to completion. A mission always terminates with a
// persisted graph document and metrics document, even on early abort; phase
// failures accumulate into the mission error list and never stop later
// phases.
func (o *Orchestrator) Run(ctx context.Context) (schemas.MissionMetrics, error) {
	o.metrics.StartedAt = time.Now()
	o.log.Info("Mission starting",
		zap.String("run_id", o.runID),
		zap.String("target", o.cfg.Mission.TargetDomain),
		zap.String("mode", string(o.cfg.Mission.Mode)))

	o.runPhase(ctx, schemas.PhaseOSINT, o.phaseOSINT)

	var aborted bool
	o.runPhase(ctx, schemas.PhaseGateCheck, func(context.Context) error {
		aborted = o.gateCheck()
		return nil
	})

	if aborted {
		o.metrics.Aborted = true
		o.runPhase(ctx, schemas.PhaseMinimalReport, o.phaseMinimalReport)
	} else {
		o.runPhase(ctx, schemas.PhaseRecon, o.phaseRecon)
		o.runPhase(ctx, schemas.PhaseEndpointIntel, o.phaseEndpointIntel)
		o.runPhase(ctx, schemas.PhaseVerification, o.phaseVerification)
	}
	o.runPhase(ctx, schemas.PhaseReporting, o.phaseReporting)

	o.metrics.FinishedAt = time.Now()
	o.metrics.Duration = o.metrics.FinishedAt.Sub(o.metrics.StartedAt)
	o.refreshCounts()

	if _, err := o.reporter.WriteMetrics(o.metrics); err != nil {
		o.recordError(schemas.PhaseDone, err)
	}
	if err := o.graph.SaveDocument(o.reporter.GraphPath()); err != nil {
		o.recordError(schemas.PhaseDone, err)
	}

	o.log.Info("Mission finished",
		zap.String("run_id", o.runID),
		zap.Bool("aborted", o.metrics.Aborted),
		zap.Duration("duration", o.metrics.Duration),
		zap.Int("errors", len(o.metrics.Errors)))
	return o.metrics, nil
}

// runPhase times one phase, folds its error into the mission error list, and
// checkpoints the graph document so no later failure loses completed work.
func (o *Orchestrator) runPhase(ctx context.Context, phase schemas.MissionPhase, fn func(context.Context) error) {
	start := time.Now()
	o.log.Info("Phase starting", zap.String("phase", string(phase)))

	if err := fn(ctx); err != nil {
		o.recordError(phase, err)
	}

	elapsed := time.Since(start)
	o.metMu.Lock()
	o.metrics.PhaseTimes[string(phase)] = elapsed
	o.metMu.Unlock()

	if err := o.graph.SaveDocument(o.reporter.GraphPath()); err != nil {
		o.recordError(phase, fmt.Errorf("graph checkpoint failed: %w", err))
	}
	o.log.Info("Phase complete", zap.String("phase", string(phase)), zap.Duration("elapsed", elapsed))
}

// gateCheck decides whether the discovered surface justifies the active
// phases. Failing the gate is a deliberate truncation, not an error.
func (o *Orchestrator) gateCheck() bool {
	count := o.graph.CountByType(schemas.NodeSubdomain)
	if count >= o.cfg.Mission.MinSubdomains {
		return false
	}
	if o.cfg.Mission.ContinueOnLowSurface {
		o.log.Warn("Surface below minimum but continue-on-low-surface is set",
			zap.Int("subdomains", count), zap.Int("minimum", o.cfg.Mission.MinSubdomains))
		return false
	}
	o.log.Warn("Gate check failed, aborting to minimal report",
		zap.Int("subdomains", count), zap.Int("minimum", o.cfg.Mission.MinSubdomains))
	return true
}

func (o *Orchestrator) recordError(phase schemas.MissionPhase, err error) {
	o.log.Error("Phase error recorded", zap.String("phase", string(phase)), zap.Error(err))
	o.metMu.Lock()
	o.metrics.Errors = append(o.metrics.Errors, fmt.Sprintf("%s: %v", phase, err))
	o.metMu.Unlock()
}

func (o *Orchestrator) refreshCounts() {
	o.metrics.Subdomains = o.graph.CountByType(schemas.NodeSubdomain)
	o.metrics.Services = o.graph.CountByType(schemas.NodeHTTPService)
	o.metrics.Endpoints = o.graph.CountByType(schemas.NodeEndpoint)
	o.metrics.Parameters = o.graph.CountByType(schemas.NodeParameter)
	o.metrics.Hypotheses = o.graph.CountByType(schemas.NodeHypothesis)
	o.metrics.TheoreticalVulns = o.graph.CountByType(schemas.NodeVulnerability)
}
