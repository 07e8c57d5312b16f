// File: internal/planner/scoring.go
package planner

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/cartograph/api/schemas"
)

// Fixed scoring weights. Each contribution is paired with a human-readable
// reason string so a reviewer can reconstruct any score from the report.
const (
	bonusTagAuthPortal = 5
	bonusTagLarge      = 4 // admin, payment
	bonusTagMedium     = 3 // api, vpn
	bonusTagSmall      = 2 // staging, dev, mail

	bonusBackendStack = 3

	bonusJSHighValue  = 3
	penaltyJSLowValue = 2

	bonusEndpointAPI         = 1
	bonusEndpointAdmin       = 3
	bonusEndpointHistorical  = 2
	bonusEndpointStateChange = 2
	bonusEndpointVolume      = 2
	endpointVolumeThreshold  = 5

	bonusInfraMailName = 3
	bonusInfraProvider = 3
	bonusInfraMailDNS  = 3

	bonusSaaSBase       = 3
	bonusSaaSCategory   = 2
	bonusLeak           = 6
	bonusVulnCritical   = 4
)

// tagBonuses maps a subdomain's descriptive tag to its score contribution.
// The authentication portal tag carries the largest bonus.
var tagBonuses = map[string]int{
	"auth-portal": bonusTagAuthPortal,
	"admin":       bonusTagLarge,
	"payment":     bonusTagLarge,
	"api":         bonusTagMedium,
	"vpn":         bonusTagMedium,
	"staging":     bonusTagSmall,
	"dev":         bonusTagSmall,
	"mail":        bonusTagSmall,
}

// backendFrameworks are technology signals that indicate a server-side
// application rather than a static site.
var backendFrameworks = []string{
	"django", "rails", "laravel", "spring", "express", "flask",
	"node.js", "nodejs", "php", "asp.net", "tomcat", "symfony",
}

// jsHighValueKeywords flag JS files likely to contain configuration or
// credentials; jsLowValueKeywords flag third-party noise.
var jsHighValueKeywords = []string{"config", "secret", "auth", "admin", "api", "env", "settings"}
var jsLowValueKeywords = []string{"analytics", "gtag", "gtm", "tracking", "pixel", "hotjar"}

// mailNameFragments mark mail infrastructure by subdomain name.
var mailNameFragments = []string{"mail", "smtp", "mx", "imap", "webmail", "pop"}

// hostingProviders is the recognized provider list matched against an ASN's
// organization string.
var hostingProviders = []string{
	"ovh", "amazon", "aws", "hetzner", "digitalocean", "azure",
	"google", "scaleway", "linode", "contabo", "cloudflare",
}

// saasSensitiveCategories are the SaaS categories that score extra: products
// holding credentials or carrying internal communication.
var saasSensitiveCategories = []string{"credential", "communication", "email", "sso", "chat"}

// Recommended next actions, derived from which bonuses fired.
const (
	ActionAuthActiveScan   = "active-scan:auth"
	ActionDirectoryFuzz    = "fuzz:directories"
	ActionAPIFuzz          = "fuzz:api"
	ActionSMTPTest         = "probe:smtp"
	ActionDNSAudit         = "audit:dns-policy"
	ActionPhishingScenario = "design:phishing-scenario"
	ActionCredStuffing     = "simulate:credential-stuffing"
	ActionExploitLab       = "lab:exploit-replication"
	ActionManualValidation = "manual:validation-required"
)

// scoreBuilder accumulates the weighted contributions for one candidate path.
type scoreBuilder struct {
	subject schemas.Node
	shape   schemas.PathShape
	score   int
	reasons []string
	actions []string
	actSeen map[string]bool
	refs    []string
}

func newScoreBuilder(subject schemas.Node, shape schemas.PathShape) *scoreBuilder {
	return &scoreBuilder{subject: subject, shape: shape, actSeen: make(map[string]bool)}
}

func (b *scoreBuilder) add(points int, reason string) {
	b.score += points
	b.reasons = append(b.reasons, reason)
}

func (b *scoreBuilder) recommend(actions ...string) {
	for _, a := range actions {
		if !b.actSeen[a] {
			b.actSeen[a] = true
			b.actions = append(b.actions, a)
		}
	}
}

func (b *scoreBuilder) addEvidence(ids ...string) {
	b.refs = append(b.refs, ids...)
}

func (b *scoreBuilder) build() schemas.AttackPath {
	return schemas.AttackPath{
		SubjectID:    b.subject.ID,
		Shape:        b.shape,
		Score:        b.score,
		Reasons:      b.reasons,
		NextActions:  b.actions,
		EvidenceRefs: b.refs,
	}
}

// scoreSubdomainBase applies the stored priority and the tag bonus.
func (b *scoreBuilder) scoreSubdomainBase(sub schemas.Node) {
	if prio := nodePriority(sub); prio != 0 {
		b.add(prio, fmt.Sprintf("Base priority %d", prio))
	}
	tag := strings.ToLower(sub.Properties["tag"])
	if bonus, ok := tagBonuses[tag]; ok {
		b.add(bonus, fmt.Sprintf("Tag '%s' bonus (+%d)", tag, bonus))
		if tag == "auth-portal" {
			b.recommend(ActionAuthActiveScan)
		}
	}
}

// scoreService applies the backend-framework technology bonus.
func (b *scoreBuilder) scoreService(svc schemas.Node) {
	techs := strings.ToLower(svc.Properties["technologies"])
	if techs == "" {
		return
	}
	for _, fw := range backendFrameworks {
		if strings.Contains(techs, fw) {
			b.add(bonusBackendStack, fmt.Sprintf("Backend stack detected: %s (+%d)", fw, bonusBackendStack))
			return
		}
	}
}

// scoreJSFile applies the high/low-value keyword heuristic to one JS file.
func (b *scoreBuilder) scoreJSFile(js schemas.Node) {
	name := strings.ToLower(js.Properties["url"])
	if name == "" {
		name = strings.ToLower(js.ID)
	}
	for _, kw := range jsHighValueKeywords {
		if strings.Contains(name, kw) {
			b.add(bonusJSHighValue, fmt.Sprintf("High-value JS file keyword '%s' (+%d)", kw, bonusJSHighValue))
			return
		}
	}
	for _, kw := range jsLowValueKeywords {
		if strings.Contains(name, kw) {
			b.add(-penaltyJSLowValue, fmt.Sprintf("Low-value JS file keyword '%s' (-%d)", kw, penaltyJSLowValue))
			return
		}
	}
}

// scoreEndpointSet applies the per-path-class, source, method, and volume
// bonuses over a service's endpoint set.
func (b *scoreBuilder) scoreEndpointSet(endpoints []schemas.Node) {
	var hasAPI, hasAdmin, hasHistorical, hasStateChanging bool
	for _, ep := range endpoints {
		switch ep.Properties["category"] {
		case string(schemas.CategoryAPI):
			hasAPI = true
		case string(schemas.CategoryAdmin):
			hasAdmin = true
		}
		source := strings.ToLower(ep.Properties["source"])
		if strings.Contains(source, "wayback") || strings.Contains(source, "historical") || strings.Contains(source, "archive") {
			hasHistorical = true
		}
		if isStateChangingMethod(ep.Properties["method"]) {
			hasStateChanging = true
		}
	}

	if hasAPI {
		b.add(bonusEndpointAPI, fmt.Sprintf("API endpoints present (+%d)", bonusEndpointAPI))
		b.recommend(ActionAPIFuzz)
	}
	if hasAdmin {
		b.add(bonusEndpointAdmin, fmt.Sprintf("Admin endpoints present (+%d)", bonusEndpointAdmin))
		b.recommend(ActionAuthActiveScan, ActionDirectoryFuzz)
	}
	if hasHistorical {
		b.add(bonusEndpointHistorical, fmt.Sprintf("Historical-source endpoints (+%d)", bonusEndpointHistorical))
	}
	if hasStateChanging {
		b.add(bonusEndpointStateChange, fmt.Sprintf("State-changing endpoints (+%d)", bonusEndpointStateChange))
	}
	if len(endpoints) > endpointVolumeThreshold {
		b.add(bonusEndpointVolume, fmt.Sprintf("Endpoint volume %d (+%d)", len(endpoints), bonusEndpointVolume))
	}
}

// scoreInfra applies the infra-only bonuses: mail-related naming, recognized
// hosting provider, and combined MX+SPF DNS evidence.
func (b *scoreBuilder) scoreInfra(idx *graphIndex, sub schemas.Node, ips, records []schemas.Node) {
	name := strings.ToLower(sub.ID)
	mailName := false
	for _, frag := range mailNameFragments {
		if strings.Contains(name, frag) {
			mailName = true
			b.add(bonusInfraMailName, fmt.Sprintf("Mail-related subdomain name '%s' (+%d)", frag, bonusInfraMailName))
			break
		}
	}

	for _, ip := range ips {
		matched := false
		for _, asn := range idx.related(ip.ID, schemas.RelationBelongsTo) {
			org := strings.ToLower(asn.Properties["organization"])
			for _, provider := range hostingProviders {
				if strings.Contains(org, provider) {
					b.add(bonusInfraProvider, fmt.Sprintf("Hosting provider match '%s' (+%d)", provider, bonusInfraProvider))
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			break
		}
	}

	var hasMX, hasSPF bool
	for _, r := range records {
		switch strings.ToUpper(r.Properties["record_type"]) {
		case "MX":
			hasMX = true
		case "SPF":
			hasSPF = true
		}
	}
	if hasMX && hasSPF {
		b.add(bonusInfraMailDNS, fmt.Sprintf("MX and SPF records present (+%d)", bonusInfraMailDNS))
	}
	if mailName || (hasMX && hasSPF) {
		b.recommend(ActionSMTPTest, ActionDNSAudit)
	}
}

// scoreOSINT applies the SaaS and leak bonuses for an OSINT subject.
func (b *scoreBuilder) scoreOSINT(saas, leaks []schemas.Node) {
	if len(saas) > 0 {
		b.add(bonusSaaSBase, fmt.Sprintf("SaaS relationship (+%d)", bonusSaaSBase))
		sensitive := false
		for _, s := range saas {
			category := strings.ToLower(s.Properties["category"])
			for _, c := range saasSensitiveCategories {
				if strings.Contains(category, c) {
					sensitive = true
					b.add(bonusSaaSCategory, fmt.Sprintf("Sensitive SaaS category '%s' (+%d)", category, bonusSaaSCategory))
					break
				}
			}
			if sensitive {
				break
			}
		}
		b.recommend(ActionPhishingScenario)
	}
	if len(leaks) > 0 {
		b.add(bonusLeak, fmt.Sprintf("Linked leak evidence (+%d)", bonusLeak))
		b.recommend(ActionCredStuffing)
	}
}

// scoreVulns checks the given nodes for linked vulnerabilities; a
// critical-severity finding adds a bonus and mandates manual validation.
func (b *scoreBuilder) scoreVulns(idx *graphIndex, nodeIDs ...string) {
	for _, id := range nodeIDs {
		for _, v := range idx.related(id, schemas.RelationHasVuln) {
			if strings.EqualFold(v.Properties["severity"], "critical") {
				b.add(bonusVulnCritical, fmt.Sprintf("Critical vulnerability linked (+%d)", bonusVulnCritical))
				b.recommend(ActionExploitLab, ActionManualValidation)
				return
			}
		}
	}
}

// applyMemory adds the caller-supplied memory boost when the subject or a
// related entity is a previously identified high-value target.
func (b *scoreBuilder) applyMemory(memory *MemoryContext, nodeIDs ...string) {
	if memory == nil || memory.Boost == 0 || len(memory.KnownHighValue) == 0 {
		return
	}
	for _, id := range nodeIDs {
		if memory.KnownHighValue[id] {
			b.add(memory.Boost, fmt.Sprintf("Memory Boost (+%d)", memory.Boost))
			return
		}
	}
}
