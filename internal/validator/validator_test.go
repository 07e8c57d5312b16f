// File: internal/validator/validator_test.go
package validator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

func newTestValidator() *Validator {
	return New(2*time.Second, 2, zap.NewNop())
}

func TestValidateReflection(t *testing.T) {
	t.Run("should confirm when the marker reflects verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "<html>you searched for %s</html>", r.URL.Query().Get("cgprobe"))
		}))
		defer srv.Close()

		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Reflected XSS", Severity: "medium", URL: srv.URL + "/search"},
		})
		require.Len(t, out, 1)
		assert.True(t, out[0].Confirmed)
		assert.InDelta(t, 0.9, out[0].Confidence, 0.001)
	})

	t.Run("should leave unconfirmed when nothing reflects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>static page</html>")
		}))
		defer srv.Close()

		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Reflected XSS", Severity: "medium", URL: srv.URL},
		})
		assert.False(t, out[0].Confirmed)
		assert.InDelta(t, 0.5, out[0].Confidence, 0.001)
	})

	t.Run("should trust high severity scanner findings without probing", func(t *testing.T) {
		probed := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			probed = true
		}))
		defer srv.Close()

		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Stored XSS", Severity: "High", URL: srv.URL},
		})
		assert.True(t, out[0].Confirmed)
		assert.InDelta(t, 0.85, out[0].Confidence, 0.001)
		assert.False(t, probed)
	})
}

func TestValidateSQLError(t *testing.T) {
	t.Run("should confirm from the scanner's own error signature", func(t *testing.T) {
		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{
				Name:        "SQL Injection",
				Severity:    "medium",
				Description: "response contained: You have an error in your SQL syntax near ''1''",
			},
		})
		assert.True(t, out[0].Confirmed)
		assert.InDelta(t, 0.9, out[0].Confidence, 0.001)
	})

	t.Run("should stay unconfirmed without a signature", func(t *testing.T) {
		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "SQL Injection", Severity: "medium", Description: "parameter looked suspicious"},
		})
		assert.False(t, out[0].Confirmed)
		assert.InDelta(t, 0.5, out[0].Confidence, 0.001)
	})
}

func TestValidateExposure(t *testing.T) {
	t.Run("should confirm an exposure on a 200 head response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
		defer srv.Close()

		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Sensitive File Exposure", Severity: "medium", URL: srv.URL + "/.env"},
		})
		assert.True(t, out[0].Confirmed)
	})

	t.Run("should leave a 404 unconfirmed", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Backup File Disclosure", Severity: "low", URL: srv.URL + "/backup.zip"},
		})
		assert.False(t, out[0].Confirmed)
	})
}

func TestValidateDefaults(t *testing.T) {
	t.Run("should default to unconfirmed at half confidence when no validator applies", func(t *testing.T) {
		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Weird Custom Finding", Severity: "medium"},
		})
		assert.False(t, out[0].Confirmed)
		assert.InDelta(t, 0.5, out[0].Confidence, 0.001)
	})

	t.Run("should swallow network errors per finding", func(t *testing.T) {
		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Reflected XSS", Severity: "low", URL: "http://127.0.0.1:1/nothing"},
			{Name: "Sensitive File Exposure", Severity: "low", URL: "http://127.0.0.1:1/.git"},
		})
		require.Len(t, out, 2)
		for _, f := range out {
			assert.False(t, f.Confirmed)
			assert.InDelta(t, 0.5, f.Confidence, 0.001)
		}
	})

	t.Run("should reset confirmation state supplied by the scanner", func(t *testing.T) {
		out := newTestValidator().ValidateAll(context.Background(), []schemas.VulnerabilityFact{
			{Name: "Unvalidated Thing", Severity: "low", Confirmed: true, Confidence: 1.0},
		})
		assert.False(t, out[0].Confirmed)
		assert.InDelta(t, 0.5, out[0].Confidence, 0.001)
	})
}
