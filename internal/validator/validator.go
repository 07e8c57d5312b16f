// File: internal/validator/validator.go
// Safe, non-destructive confirmation of candidate findings. The validator
// never exploits anything: it sends harmless marker probes, inspects scanner
// evidence, or issues HEAD requests, and records a confirmed flag plus a
// confidence value on every finding it touches.
package validator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

const (
	// reflectionMarker is the harmless string injected to detect verbatim
	// reflection. It executes nothing anywhere.
	reflectionMarker = "cgraphprobe1337"

	defaultConfidence   = 0.5
	confirmedConfidence = 0.9
	trustedHighSeverity = 0.85
)

// sqlErrorSignatures are SQL-syntax-error fragments a scanner's own evidence
// may already contain.
var sqlErrorSignatures = []string{
	"sql syntax",
	"syntax error",
	"mysql_fetch",
	"ora-01756",
	"sqlite error",
	"unclosed quotation mark",
	"pg::syntaxerror",
}

// Validator runs safe confirmation probes with bounded pacing.
type Validator struct {
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	log         *zap.Logger
}

// New creates a validator. The request timeout applies per probe, concurrency
// bounds parallel probe workers, and the rate limiter keeps confirmation
// traffic polite regardless of finding volume.
func New(timeout time.Duration, concurrency int, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Validator{
		concurrency: concurrency,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 2),
		log:     logger.Named("Validator"),
	}
}

// ValidateAll runs the applicable validator for each finding with a
// resolvable URL, with findings probed in parallel up to the configured
// concurrency. Every finding exits with Confirmed and Confidence set; probe
// errors are swallowed per-finding and leave it unconfirmed.
func (v *Validator) ValidateAll(ctx context.Context, findings []schemas.VulnerabilityFact) []schemas.VulnerabilityFact {
	out := make([]schemas.VulnerabilityFact, len(findings))
	g := new(errgroup.Group)
	g.SetLimit(v.concurrency)
	for i, f := range findings {
		g.Go(func() error {
			out[i] = v.validate(ctx, f)
			return nil
		})
	}
	// Workers never return errors; failures stay on the finding itself.
	_ = g.Wait()
	return out
}

// validate dispatches by keyword match on the finding's name.
func (v *Validator) validate(ctx context.Context, f schemas.VulnerabilityFact) schemas.VulnerabilityFact {
	f.Confirmed = false
	f.Confidence = defaultConfidence

	name := strings.ToLower(f.Name)
	switch {
	case strings.Contains(name, "xss") || strings.Contains(name, "reflect"):
		return v.validateReflection(ctx, f)
	case strings.Contains(name, "sql"):
		return v.validateSQLError(f)
	case strings.Contains(name, "exposure") || strings.Contains(name, "sensitive") || strings.Contains(name, "disclosure"):
		return v.validateExposure(ctx, f)
	default:
		v.log.Debug("No validator applies, leaving finding unconfirmed",
			zap.String("name", f.Name))
		return f
	}
}

// validateReflection probes for verbatim reflection of a harmless marker.
// High-severity scanner findings are trusted at a fixed confidence without
// re-probing.
func (v *Validator) validateReflection(ctx context.Context, f schemas.VulnerabilityFact) schemas.VulnerabilityFact {
	if strings.EqualFold(f.Severity, "high") || strings.EqualFold(f.Severity, "critical") {
		f.Confirmed = true
		f.Confidence = trustedHighSeverity
		return f
	}
	if f.URL == "" {
		return f
	}

	probeURL, err := appendMarker(f.URL, reflectionMarker)
	if err != nil {
		v.log.Debug("Finding URL unusable for probe", zap.String("url", f.URL), zap.Error(err))
		return f
	}
	body, _, err := v.get(ctx, probeURL)
	if err != nil {
		v.log.Debug("Reflection probe failed", zap.String("url", probeURL), zap.Error(err))
		return f
	}
	if strings.Contains(body, reflectionMarker) {
		f.Confirmed = true
		f.Confidence = confirmedConfidence
	}
	return f
}

// validateSQLError confirms a SQL-error finding when the scanner's own
// description already carries a SQL-syntax-error signature. No probe is sent.
func (v *Validator) validateSQLError(f schemas.VulnerabilityFact) schemas.VulnerabilityFact {
	desc := strings.ToLower(f.Description)
	for _, sig := range sqlErrorSignatures {
		if strings.Contains(desc, sig) {
			f.Confirmed = true
			f.Confidence = confirmedConfidence
			return f
		}
	}
	return f
}

// validateExposure confirms a sensitive-file exposure with a HEAD request
// returning 200.
func (v *Validator) validateExposure(ctx context.Context, f schemas.VulnerabilityFact) schemas.VulnerabilityFact {
	if f.URL == "" {
		return f
	}
	status, err := v.head(ctx, f.URL)
	if err != nil {
		v.log.Debug("Exposure probe failed", zap.String("url", f.URL), zap.Error(err))
		return f
	}
	if status == http.StatusOK {
		f.Confirmed = true
		f.Confidence = confirmedConfidence
	}
	return f
}

// -- probe primitives --

func (v *Validator) get(ctx context.Context, rawURL string) (string, int, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	// Cap the read; reflection checks never need more than the first chunk.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

func (v *Validator) head(ctx context.Context, rawURL string) (int, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// appendMarker adds the probe marker as an extra query parameter.
func appendMarker(rawURL, marker string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	q := u.Query()
	q.Set("cgprobe", marker)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
