// File: internal/reporting/reporter.go
// Renders the end-of-mission artifacts: a markdown mission report, a minimal
// report for gate-check aborts, and the metrics document. All writes are
// atomic so an interrupted mission never leaves a partial file behind.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter writes mission artifacts into a per-run output directory.
type Reporter struct {
	outputDir string
	log       *zap.Logger
}

// New creates a reporter rooted at outputDir, creating it if needed.
func New(outputDir string, logger *zap.Logger) (*Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", outputDir, err)
	}
	return &Reporter{outputDir: outputDir, log: logger.Named("Reporter")}, nil
}

// OutputDir returns the directory mission artifacts are written into.
func (r *Reporter) OutputDir() string { return r.outputDir }

// WriteMissionReport renders and persists the full markdown report.
func (r *Reporter) WriteMissionReport(
	doc schemas.GraphDocument,
	paths []schemas.AttackPath,
	findings []schemas.VulnerabilityFact,
	metrics schemas.MissionMetrics,
) (string, error) {
	body := RenderMissionReport(doc, paths, findings, metrics)
	path := filepath.Join(r.outputDir, "report.md")
	if err := writeAtomic(path, []byte(body)); err != nil {
		return "", fmt.Errorf("failed to write mission report: %w", err)
	}
	r.log.Info("Mission report written", zap.String("path", path))
	return path, nil
}

// WriteMinimalReport renders and persists the abort-path report.
func (r *Reporter) WriteMinimalReport(doc schemas.GraphDocument, metrics schemas.MissionMetrics) (string, error) {
	body := RenderMinimalReport(doc, metrics)
	path := filepath.Join(r.outputDir, "report.md")
	if err := writeAtomic(path, []byte(body)); err != nil {
		return "", fmt.Errorf("failed to write minimal report: %w", err)
	}
	r.log.Info("Minimal report written", zap.String("path", path))
	return path, nil
}

// WriteMetrics persists the metrics document as indented JSON.
func (r *Reporter) WriteMetrics(metrics schemas.MissionMetrics) (string, error) {
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal mission metrics: %w", err)
	}
	path := filepath.Join(r.outputDir, "metrics.json")
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write mission metrics: %w", err)
	}
	return path, nil
}

// WritePlan persists the planner output document as indented JSON.
func (r *Reporter) WritePlan(plan schemas.PlanDocument) (string, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan document: %w", err)
	}
	path := filepath.Join(r.outputDir, "plan.json")
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write plan document: %w", err)
	}
	return path, nil
}

// GraphPath returns the canonical location for the persisted graph document.
func (r *Reporter) GraphPath() string {
	return filepath.Join(r.outputDir, "graph.json")
}

// RenderMissionReport builds the full markdown report body.
func RenderMissionReport(
	doc schemas.GraphDocument,
	paths []schemas.AttackPath,
	findings []schemas.VulnerabilityFact,
	metrics schemas.MissionMetrics,
) string {
	var b strings.Builder

	writeHeader(&b, metrics)

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "Mapped **%d** subdomains, **%d** HTTP services, and **%d** endpoints for `%s`. ",
		metrics.Subdomains, metrics.Services, metrics.Endpoints, metrics.TargetDomain)
	confirmed := 0
	for _, f := range findings {
		if f.Confirmed {
			confirmed++
		}
	}
	fmt.Fprintf(&b, "%d candidate findings were reported by scanners; %d were confirmed by safe probes. ",
		len(findings), confirmed)
	fmt.Fprintf(&b, "%d attack paths were ranked for follow-up.\n\n", len(paths))

	b.WriteString("## Top Attack Paths\n\n")
	if len(paths) == 0 {
		b.WriteString("No attack paths were identified.\n\n")
	}
	for i, p := range paths {
		fmt.Fprintf(&b, "### %d. `%s` (score %d, shape %s)\n\n", i+1, p.SubjectID, p.Score, p.Shape)
		if len(p.Reasons) > 0 {
			b.WriteString("Scoring rationale:\n\n")
			for _, reason := range p.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
			b.WriteString("\n")
		}
		if len(p.NextActions) > 0 {
			fmt.Fprintf(&b, "Recommended next actions: `%s`\n\n", strings.Join(p.NextActions, "`, `"))
		}
	}

	b.WriteString("## Findings\n\n")
	if len(findings) == 0 {
		b.WriteString("No candidate findings were reported.\n\n")
	} else {
		b.WriteString("| Severity | Name | Affected | Confirmed | Confidence | Tool |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		sorted := make([]schemas.VulnerabilityFact, len(findings))
		copy(sorted, findings)
		sort.SliceStable(sorted, func(i, j int) bool {
			return severityRank(sorted[i].Severity) > severityRank(sorted[j].Severity)
		})
		for _, f := range sorted {
			fmt.Fprintf(&b, "| %s | %s | `%s` | %t | %.2f | %s |\n",
				f.Severity, f.Name, f.AffectedNodeID, f.Confirmed, f.Confidence, f.Tool)
		}
		b.WriteString("\n")
	}

	writeMetricsAppendix(&b, doc, metrics)
	return b.String()
}

// RenderMinimalReport builds the truncated report emitted on a gate-check
// abort. It carries the abort explanation and whatever surface was mapped.
func RenderMinimalReport(doc schemas.GraphDocument, metrics schemas.MissionMetrics) string {
	var b strings.Builder

	writeHeader(&b, metrics)

	b.WriteString("## Mission Aborted\n\n")
	fmt.Fprintf(&b, "The discovered attack surface for `%s` fell below the configured minimum, ", metrics.TargetDomain)
	b.WriteString("so recon, enrichment, and verification were skipped. ")
	fmt.Fprintf(&b, "%d subdomain(s) were found.\n\n", metrics.Subdomains)

	writeMetricsAppendix(&b, doc, metrics)
	return b.String()
}

func writeHeader(b *strings.Builder, metrics schemas.MissionMetrics) {
	fmt.Fprintf(b, "# Mission Report: %s\n\n", metrics.TargetDomain)
	fmt.Fprintf(b, "- Run ID: `%s`\n", metrics.RunID)
	fmt.Fprintf(b, "- Mode: %s\n", metrics.Mode)
	fmt.Fprintf(b, "- Started: %s\n", metrics.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(b, "- Duration: %s\n\n", metrics.Duration.Round(time.Millisecond))
}

func writeMetricsAppendix(b *strings.Builder, doc schemas.GraphDocument, metrics schemas.MissionMetrics) {
	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Subdomains | %d |\n", metrics.Subdomains)
	fmt.Fprintf(b, "| HTTP services | %d |\n", metrics.Services)
	fmt.Fprintf(b, "| Endpoints | %d |\n", metrics.Endpoints)
	fmt.Fprintf(b, "| Parameters | %d |\n", metrics.Parameters)
	fmt.Fprintf(b, "| Hypotheses | %d |\n", metrics.Hypotheses)
	fmt.Fprintf(b, "| Theoretical vulnerabilities | %d |\n", metrics.TheoreticalVulns)
	fmt.Fprintf(b, "| Graph nodes | %d |\n", len(doc.Nodes))
	fmt.Fprintf(b, "| Graph edges | %d |\n", len(doc.Edges))
	b.WriteString("\n")

	if len(metrics.PhaseTimes) > 0 {
		b.WriteString("### Phase Durations\n\n")
		phases := make([]string, 0, len(metrics.PhaseTimes))
		for name := range metrics.PhaseTimes {
			phases = append(phases, name)
		}
		sort.Strings(phases)
		for _, name := range phases {
			fmt.Fprintf(b, "- %s: %s\n", name, metrics.PhaseTimes[name].Round(time.Millisecond))
		}
		b.WriteString("\n")
	}

	if len(metrics.Errors) > 0 {
		b.WriteString("### Phase Errors\n\n")
		for _, e := range metrics.Errors {
			fmt.Fprintf(b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
}

func severityRank(s string) int {
	switch strings.ToLower(s) {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	}
	return 0
}

// writeAtomic writes via a temp file and rename so readers never observe a
// partially written artifact.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
