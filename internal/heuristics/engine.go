// File: internal/heuristics/engine.go
// Deterministic classification and risk pre-scoring of discovered endpoints.
// Every method is a pure function over its inputs plus the engine's risk
// policy; the engine holds no other state and is safe to share.
package heuristics

import (
	"net/url"
	"path"
	"strings"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// Engine applies the endpoint heuristics with a fixed risk policy.
type Engine struct {
	policy RiskPolicy
}

// NewEngine creates an engine with the given weight policy.
func NewEngine(policy RiskPolicy) *Engine {
	return &Engine{policy: policy}
}

// -- Pattern vocabularies --

var staticExtensions = map[string]bool{
	"css": true, "js": true, "mjs": true, "png": true, "jpg": true,
	"jpeg": true, "gif": true, "svg": true, "ico": true, "woff": true,
	"woff2": true, "ttf": true, "eot": true, "map": true, "webp": true,
}

var legacyExtensions = map[string]bool{
	"php": true, "php3": true, "asp": true, "aspx": true, "jsp": true,
	"cgi": true, "pl": true, "do": true, "action": true,
}

var apiPatterns = []string{"/api", "/v1/", "/v2/", "/v3/", "/graphql", "/rest/", "/ws/"}

var adminPatterns = []string{"admin", "manage", "dashboard", "console", "panel", "internal"}

var authPatterns = []string{
	"auth", "login", "logout", "signin", "signup", "register",
	"oauth", "sso", "password", "session",
}

var healthcheckPatterns = []string{"health", "ping", "/status", "ready", "alive", "heartbeat"}

// highSensitivityTerms mark credential-bearing parameter names.
var highSensitivityTerms = []string{
	"token", "key", "secret", "password", "passwd", "pwd",
	"session", "bearer", "credential", "jwt", "signature", "otp",
}

// mediumSensitivityTerms mark identifier and contact parameter names.
var mediumSensitivityTerms = []string{
	"id", "uid", "uuid", "email", "username", "user", "account", "phone",
}

// criticalParamTerms flag parameters whose compromise is immediately fatal.
var criticalParamTerms = []string{"password", "secret", "token", "apikey", "api_key", "private_key"}

// publicPathPatterns force auth_required to "false".
var publicPathPatterns = []string{
	"/public", "/static", "/assets", "/docs", "/blog", "/press",
	"/about", "/contact", "/terms", "/privacy", "/sitemap", "robots.txt",
}

// authPublicSubPaths are the login/registration sub-paths of AUTH endpoints
// that are reachable unauthenticated by definition.
var authPublicSubPaths = []string{
	"login", "signin", "signup", "register", "forgot", "reset", "recover",
}

// extensionTechTable maps file extensions to a best-effort stack label.
var extensionTechTable = map[string]string{
	"php": "PHP", "php3": "PHP",
	"asp": "ASP.NET", "aspx": "ASP.NET",
	"jsp": "Java", "do": "Java (Struts)", "action": "Java (Struts)",
	"cgi": "Perl CGI", "pl": "Perl CGI",
	"py": "Python", "rb": "Ruby",
}

// pathTechHints are framework asset-path and vendor-directory heuristics,
// consulted when the extension table has no answer.
var pathTechHints = []struct {
	fragment string
	stack    string
}{
	{"wp-content", "WordPress"},
	{"wp-admin", "WordPress"},
	{"wp-json", "WordPress"},
	{"/_next/", "Next.js"},
	{"/_nuxt/", "Nuxt.js"},
	{"/node_modules/", "Node.js"},
	{"/vendor/", "PHP (Composer)"},
	{"/cgi-bin/", "Perl CGI"},
	{"/actuator", "Spring Boot"},
	{"/wcm/", "Adobe AEM"},
}

// Categorize classifies an endpoint path in a fixed precedence order: STATIC
// by extension first, then API, ADMIN, AUTH by substring, then LEGACY by
// extension, then HEALTHCHECK, else UNKNOWN. Patterns are not mutually
// exclusive; the ordering is the designed tie-break.
func (e *Engine) Categorize(rawPath, method, extension string) schemas.EndpointCategory {
	lower := strings.ToLower(rawPath)
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))

	if staticExtensions[ext] {
		return schemas.CategoryStatic
	}
	for _, p := range apiPatterns {
		if strings.Contains(lower, p) {
			return schemas.CategoryAPI
		}
	}
	for _, p := range adminPatterns {
		if strings.Contains(lower, p) {
			return schemas.CategoryAdmin
		}
	}
	for _, p := range authPatterns {
		if strings.Contains(lower, p) {
			return schemas.CategoryAuth
		}
	}
	if legacyExtensions[ext] {
		return schemas.CategoryLegacy
	}
	for _, p := range healthcheckPatterns {
		if strings.Contains(lower, p) {
			return schemas.CategoryHealthcheck
		}
	}
	return schemas.CategoryUnknown
}

// ExtractParameters pulls parameters out of an endpoint's URL and path:
// query-string keys, {placeholder}-style path segments, and a synthetic
// "_numeric_id" path parameter for bare numeric segments.
func (e *Engine) ExtractParameters(rawURL, rawPath string) []schemas.Parameter {
	var params []schemas.Parameter
	seen := make(map[string]bool)

	add := func(name string, location schemas.ParameterLocation, hint string) {
		key := string(location) + ":" + name
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		params = append(params, e.classifyParameter(name, location, hint))
	}

	if u, err := url.Parse(rawURL); err == nil {
		for name := range u.Query() {
			add(name, schemas.LocationQuery, "")
		}
	}
	// The fact's path may carry its own query string.
	pathOnly := rawPath
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		if q, err := url.ParseQuery(rawPath[i+1:]); err == nil {
			for name := range q {
				add(name, schemas.LocationQuery, "")
			}
		}
		pathOnly = rawPath[:i]
	}

	for _, segment := range strings.Split(pathOnly, "/") {
		switch {
		case strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}"):
			add(strings.Trim(segment, "{}"), schemas.LocationPath, "")
		case isNumeric(segment):
			add("_numeric_id", schemas.LocationPath, "integer")
		}
	}
	return params
}

// classifyParameter assigns sensitivity and a datatype hint to one name.
// The HIGH vocabulary takes precedence over MEDIUM; everything else is LOW.
func (e *Engine) classifyParameter(name string, location schemas.ParameterLocation, hint string) schemas.Parameter {
	lower := strings.ToLower(name)

	sensitivity := schemas.SensitivityLow
	for _, term := range highSensitivityTerms {
		if strings.Contains(lower, term) {
			sensitivity = schemas.SensitivityHigh
			break
		}
	}
	if sensitivity == schemas.SensitivityLow {
		for _, term := range mediumSensitivityTerms {
			if strings.Contains(lower, term) {
				sensitivity = schemas.SensitivityMedium
				break
			}
		}
	}

	critical := false
	for _, term := range criticalParamTerms {
		if strings.Contains(lower, term) {
			critical = true
			break
		}
	}

	if hint == "" {
		switch {
		case strings.HasSuffix(lower, "id") || lower == "page" || lower == "limit" || lower == "offset":
			hint = "integer"
		case strings.Contains(lower, "email"):
			hint = "email"
		case strings.Contains(lower, "date") || strings.Contains(lower, "time"):
			hint = "datetime"
		default:
			hint = "string"
		}
	}

	return schemas.Parameter{
		Name:         name,
		Location:     location,
		DatatypeHint: hint,
		Sensitivity:  sensitivity,
		IsCritical:   critical,
	}
}

// DetectBehavior summarizes what interacting with the endpoint likely does.
// State-changing methods with a MEDIUM/HIGH parameter dominate; otherwise any
// identifier-classed parameter signals ID-based access.
func (e *Engine) DetectBehavior(method string, params []schemas.Parameter) (schemas.BehaviorHint, bool) {
	method = strings.ToUpper(method)
	stateChanging := method == "POST" || method == "PUT" || method == "DELETE" || method == "PATCH"

	hasSensitive := false
	hasIdentifier := false
	for _, p := range params {
		if p.Sensitivity == schemas.SensitivityMedium || p.Sensitivity == schemas.SensitivityHigh {
			hasSensitive = true
		}
		if isIdentifierParam(p) {
			hasIdentifier = true
		}
	}

	switch {
	case stateChanging && hasSensitive:
		return schemas.BehaviorStateChanging, false
	case hasIdentifier:
		return schemas.BehaviorIDBasedAccess, true
	case method == "GET":
		return schemas.BehaviorReadOnly, false
	default:
		return schemas.BehaviorOther, false
	}
}

// isIdentifierParam reports whether a parameter names an object identifier.
func isIdentifierParam(p schemas.Parameter) bool {
	lower := strings.ToLower(p.Name)
	if lower == "_numeric_id" {
		return true
	}
	return p.Sensitivity == schemas.SensitivityMedium &&
		(strings.Contains(lower, "id") || strings.Contains(lower, "account") ||
			strings.Contains(lower, "user"))
}

// ComputePrescores accumulates the weighted likelihood and impact
// contributions and combines them multiplicatively into risk. Likelihood and
// impact clamp to [0,10]; risk is the product clamped to [0,100], so either
// dimension being zero forces risk to zero. The additive-then-multiplicative
// mix is intentional and preserved from the original scoring model.
func (e *Engine) ComputePrescores(
	category schemas.EndpointCategory,
	params []schemas.Parameter,
	behavior schemas.BehaviorHint,
	source, method string,
) (likelihood, impact, risk int) {
	switch category {
	case schemas.CategoryAdmin:
		likelihood += e.policy.AdminLikelihood
		impact += e.policy.AdminImpact
	case schemas.CategoryAuth:
		likelihood += e.policy.AuthLikelihood
		impact += e.policy.AuthImpact
	case schemas.CategoryAPI:
		likelihood += e.policy.APILikelihood
		impact += e.policy.APIImpact
	case schemas.CategoryLegacy:
		likelihood += e.policy.LegacyLikelihood
		impact += e.policy.LegacyImpact
	}

	for _, p := range params {
		switch p.Sensitivity {
		case schemas.SensitivityHigh:
			impact += e.policy.HighParamImpact
		case schemas.SensitivityMedium:
			impact += e.policy.MediumParamImpact
		}
		if p.IsCritical {
			impact += e.policy.CriticalParamImpact
		}
	}

	switch behavior {
	case schemas.BehaviorStateChanging:
		likelihood += e.policy.StateChangingLikelihood
		impact += e.policy.StateChangingImpact
	case schemas.BehaviorIDBasedAccess:
		likelihood += e.policy.IDAccessLikelihood
	}

	if isHistoricalSource(source) {
		likelihood += e.policy.HistoricalSourceLikelihood
	}

	likelihood = clamp(likelihood, 0, 10)
	impact = clamp(impact, 0, 10)
	risk = clamp(likelihood*impact, 0, 100)
	return likelihood, impact, risk
}

// isHistoricalSource reports whether an endpoint came from an archive-style
// discovery source rather than live crawling.
func isHistoricalSource(source string) bool {
	lower := strings.ToLower(source)
	return strings.Contains(lower, "wayback") ||
		strings.Contains(lower, "historical") ||
		strings.Contains(lower, "archive")
}

// InferAuthRequired makes the best-effort call on whether an endpoint sits
// behind authentication: "true", "false", or "UNKNOWN".
func (e *Engine) InferAuthRequired(rawPath string, category schemas.EndpointCategory, params []schemas.Parameter) string {
	lower := strings.ToLower(rawPath)

	for _, p := range publicPathPatterns {
		if strings.Contains(lower, p) {
			return "false"
		}
	}
	if category == schemas.CategoryAuth {
		for _, sub := range authPublicSubPaths {
			if strings.Contains(lower, sub) {
				return "false"
			}
		}
		return "true"
	}
	if category == schemas.CategoryAdmin {
		return "true"
	}

	hasIdentifier := false
	for _, p := range params {
		if p.Sensitivity == schemas.SensitivityHigh || p.IsCritical {
			return "true"
		}
		if isIdentifierParam(p) {
			hasIdentifier = true
		}
	}
	if category == schemas.CategoryAPI && hasIdentifier {
		return "true"
	}
	return "UNKNOWN"
}

// InferTechStack labels the likely backend stack from the extension table,
// falling back to path-substring heuristics, else "Unknown".
func (e *Engine) InferTechStack(rawPath, extension string) string {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if stack, ok := extensionTechTable[ext]; ok {
		return stack
	}
	lower := strings.ToLower(rawPath)
	for _, hint := range pathTechHints {
		if strings.Contains(lower, hint.fragment) {
			return hint.stack
		}
	}
	return "Unknown"
}

// Enrich composes the full heuristics pipeline for one endpoint fact into an
// enrichment record ready for the graph's endpoint-node upsert.
func (e *Engine) Enrich(fact schemas.EndpointFact) schemas.EndpointEnrichment {
	extension := strings.TrimPrefix(path.Ext(stripQuery(fact.Path)), ".")
	fullURL := strings.TrimRight(fact.Origin, "/") + "/" + strings.TrimLeft(fact.Path, "/")

	category := e.Categorize(fact.Path, fact.Method, extension)
	params := e.ExtractParameters(fullURL, fact.Path)
	behavior, idAccess := e.DetectBehavior(fact.Method, params)
	likelihood, impact, risk := e.ComputePrescores(category, params, behavior, fact.Source, fact.Method)

	return schemas.EndpointEnrichment{
		Category:      category,
		Parameters:    params,
		Behavior:      behavior,
		IDBasedAccess: idAccess,
		Likelihood:    likelihood,
		Impact:        impact,
		Risk:          risk,
		AuthRequired:  e.InferAuthRequired(fact.Path, category, params),
		TechStack:     e.InferTechStack(fact.Path, extension),
	}
}

func stripQuery(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
