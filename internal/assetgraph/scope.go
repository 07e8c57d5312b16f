// File: internal/assetgraph/scope.go
package assetgraph

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ScopeFilter guards OSINT entity creation. Upstream intelligence sources
// routinely invent plausible-sounding but fabricated entities; the filter
// rejects generic placeholder names outright and, for entity kinds whose
// relevance depends on the mission target, requires the identifying string to
// relate to the target domain.
type ScopeFilter struct {
	targetDomain string
	baseLabel    string
}

// genericNameDenylist blocks obviously fabricated or placeholder entity
// names regardless of entity kind.
var genericNameDenylist = []string{
	"target corporation",
	"target company",
	"example",
	"acme",
	"test company",
	"sample",
	"placeholder",
	"unknown",
	"generic",
	"n/a",
	"todo",
	"the company",
	"the organization",
	"client corp",
}

// NewScopeFilter builds a filter scoped to one mission target domain.
func NewScopeFilter(targetDomain string) *ScopeFilter {
	return &ScopeFilter{
		targetDomain: strings.ToLower(strings.TrimSpace(targetDomain)),
		baseLabel:    baseLabel(targetDomain),
	}
}

// baseLabel extracts the registrable-domain label of a domain: the part of
// eTLD+1 before the public suffix ("tahiti-infos" for sub.tahiti-infos.com).
func baseLabel(domain string) string {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		etld1 = domain
	}
	if i := strings.IndexByte(etld1, '.'); i > 0 {
		return etld1[:i]
	}
	return etld1
}

// AllowName reports whether an OSINT entity name passes the filter.
// requireDomainRelation additionally demands that the name relates to the
// target domain (SAAS_APP is exempt from that check but not the denylist).
func (f *ScopeFilter) AllowName(name string, requireDomainRelation bool) bool {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return false
	}
	for _, blocked := range genericNameDenylist {
		if trimmed == blocked || strings.HasPrefix(trimmed, blocked+" ") {
			return false
		}
	}
	if !requireDomainRelation {
		return true
	}
	return f.relatesToTarget(trimmed)
}

// relatesToTarget checks that the compacted entity string contains the
// compacted base label of the target domain. Comparing alphanumeric runs
// only makes "Tahiti-Infos Media" match tahiti-infos.com.
func (f *ScopeFilter) relatesToTarget(s string) bool {
	label := compact(f.baseLabel)
	if label == "" {
		return false
	}
	return strings.Contains(compact(s), label)
}

// compact strips everything that is not a letter or digit.
func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
