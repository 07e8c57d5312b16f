package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// The node and relation vocabularies are part of the persisted document
// format; renaming a constant silently breaks every stored graph.
func TestGraphVocabulary(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{"NodeDomain", string(schemas.NodeDomain), "DOMAIN"},
		{"NodeSubdomain", string(schemas.NodeSubdomain), "SUBDOMAIN"},
		{"NodeHTTPService", string(schemas.NodeHTTPService), "HTTP_SERVICE"},
		{"NodeEndpoint", string(schemas.NodeEndpoint), "ENDPOINT"},
		{"NodeParameter", string(schemas.NodeParameter), "PARAMETER"},
		{"NodeJSFile", string(schemas.NodeJSFile), "JS_FILE"},
		{"NodeHypothesis", string(schemas.NodeHypothesis), "HYPOTHESIS"},
		{"NodeVulnerability", string(schemas.NodeVulnerability), "VULNERABILITY"},
		{"NodeSaaSApp", string(schemas.NodeSaaSApp), "SAAS_APP"},
		{"NodeLeak", string(schemas.NodeLeak), "LEAK"},
		{"RelationHasSubdomain", string(schemas.RelationHasSubdomain), "HAS_SUBDOMAIN"},
		{"RelationExposesHTTP", string(schemas.RelationExposesHTTP), "EXPOSES_HTTP"},
		{"RelationExposesEndpoint", string(schemas.RelationExposesEndpoint), "EXPOSES_ENDPOINT"},
		{"RelationSupportedBy", string(schemas.RelationSupportedBy), "SUPPORTED_BY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.constant)
		})
	}
}

func TestHighValueNodeTypes(t *testing.T) {
	assert.True(t, schemas.HighValueNodeTypes[schemas.NodeSaaSApp])
	assert.True(t, schemas.HighValueNodeTypes[schemas.NodeLeak])
	assert.False(t, schemas.HighValueNodeTypes[schemas.NodeSubdomain])
}

func TestEdgeSerialization(t *testing.T) {
	t.Run("should omit empty edge properties", func(t *testing.T) {
		data, err := json.Marshal(schemas.Edge{
			From:     "a",
			To:       "b",
			Relation: schemas.RelationHasSubdomain,
		})
		require.NoError(t, err)
		assert.NotContains(t, string(data), "properties")
	})

	t.Run("should always emit confirmation fields on findings", func(t *testing.T) {
		data, err := json.Marshal(schemas.VulnerabilityFact{
			Severity:       "low",
			Tool:           "scanner",
			Name:           "Header Missing",
			AffectedNodeID: "a",
		})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"confirmed":false`)
		assert.Contains(t, string(data), `"confidence":0`)
	})
}
