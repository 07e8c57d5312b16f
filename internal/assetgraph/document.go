// File: internal/assetgraph/document.go
package assetgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ToDocument serializes the full node/edge collections into the persisted
// document form. Nodes and edges are sorted so the output is deterministic
// and byte-stable across runs of the same graph.
func (g *Graph) ToDocument() schemas.GraphDocument {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := schemas.GraphDocument{
		TargetDomain: g.targetDomain,
		Nodes:        make([]schemas.Node, 0, len(g.nodes)),
		Edges:        make([]schemas.Edge, 0, len(g.edges)),
	}
	for _, n := range g.nodes {
		doc.Nodes = append(doc.Nodes, copyNode(n))
	}
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, e)
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	sort.Slice(doc.Edges, func(i, j int) bool {
		ki := edgeKey(doc.Edges[i].From, doc.Edges[i].To, string(doc.Edges[i].Relation))
		kj := edgeKey(doc.Edges[j].From, doc.Edges[j].To, string(doc.Edges[j].Relation))
		return ki < kj
	})
	return doc
}

// LoadFromDocument rebuilds a graph from a persisted document. The node and
// edge sets round-trip exactly; derived state (outgoing index, primary org,
// scope filter) is reconstructed.
func LoadFromDocument(doc schemas.GraphDocument, logger *zap.Logger) (*Graph, error) {
	if doc.TargetDomain == "" {
		return nil, fmt.Errorf("graph document has no target domain")
	}
	g := New(doc.TargetDomain, logger)

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range doc.Nodes {
		if n.ID == "" || n.Type == "" {
			return nil, fmt.Errorf("graph document contains node with empty id or type")
		}
		g.nodes[n.ID] = copyNode(n)
		if n.Type == schemas.NodeOrg && g.primaryOrg == "" {
			g.primaryOrg = n.ID
		}
	}
	for _, e := range doc.Edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("graph document edge references unknown node %q", e.From)
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, fmt.Errorf("graph document edge references unknown node %q", e.To)
		}
		key := edgeKey(e.From, e.To, string(e.Relation))
		if _, exists := g.edges[key]; exists {
			continue
		}
		g.edges[key] = e
		g.outgoing[e.From] = append(g.outgoing[e.From], key)
	}
	return g, nil
}

// SaveDocument persists the graph document to disk. The document is fully
// serialized before anything touches the target path, then moved into place
// with a rename, so a failed write never leaves a corrupt or partial file.
func (g *Graph) SaveDocument(path string) error {
	doc := g.ToDocument()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize graph document: %w", err)
	}
	return writeAtomic(path, data)
}

// LoadDocumentFile reads a persisted graph document from disk.
func LoadDocumentFile(path string) (schemas.GraphDocument, error) {
	var doc schemas.GraphDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read graph document: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse graph document: %w", err)
	}
	return doc, nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over the destination.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move document into place: %w", err)
	}
	return nil
}
