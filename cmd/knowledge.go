// File: cmd/knowledge.go
package cmd

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
	"github.com/xkilldash9x/cartograph/internal/assetgraph"
)

// loadKnownHighValue scans prior graph documents in the knowledge directory
// and collects the IDs of their high-value nodes. The set feeds the planner's
// memory boost. A missing or empty directory yields an empty set.
func loadKnownHighValue(knowledgeDir string, logger *zap.Logger) map[string]bool {
	known := make(map[string]bool)
	if knowledgeDir == "" {
		return known
	}

	paths, err := filepath.Glob(filepath.Join(knowledgeDir, "*.json"))
	if err != nil || len(paths) == 0 {
		return known
	}
	for _, path := range paths {
		doc, err := assetgraph.LoadDocumentFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable knowledge document",
				zap.String("path", path), zap.Error(err))
			continue
		}
		for _, n := range doc.Nodes {
			if schemas.HighValueNodeTypes[n.Type] {
				known[n.ID] = true
			}
		}
	}
	if len(known) > 0 {
		logger.Info("Prior high-value targets loaded", zap.Int("count", len(known)))
	}
	return known
}
