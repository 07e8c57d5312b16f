// File: internal/assetgraph/identity.go
package assetgraph

import (
	"net/url"
	"strings"
)

// Node identity is content-addressed: every ID below is derived from the
// entity's stable identifying fields so that re-ingesting the same fact is a
// no-op, never a duplicate.

// NormalizePath canonicalizes an endpoint path before identity is computed:
// the query string is stripped and a missing leading slash is inserted, so
// "/api/v1/users?id=123" and "api/v1/users" collide to "/api/v1/users".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// NormalizeOrigin reduces a URL to its lowercased scheme://host[:port] form.
// Unparseable input falls back to the trimmed raw string so that identity
// stays deterministic even for garbage facts.
func NormalizeOrigin(rawURL string) string {
	raw := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func domainID(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

func subdomainID(fqdn string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
}

func serviceID(originURL string) string {
	return "http:" + NormalizeOrigin(originURL)
}

func endpointID(origin, method, path string) string {
	return NormalizeOrigin(origin) + "|" + strings.ToUpper(method) + "|" + NormalizePath(path)
}

func parameterID(epID, name, location string) string {
	return epID + "|param:" + location + ":" + name
}

func jsFileID(fileURL string) string {
	return "js:" + strings.TrimSpace(fileURL)
}

func ipID(ip string) string {
	return "ip:" + strings.TrimSpace(ip)
}

func asnID(asn string) string {
	return "asn:" + strings.ToUpper(strings.TrimSpace(asn))
}

func dnsRecordID(fqdn, recordType string) string {
	return "dns:" + subdomainID(fqdn) + "|" + strings.ToUpper(recordType)
}

func vulnerabilityID(affectedNodeID, name string) string {
	return "vuln:" + affectedNodeID + "|" + slugify(name)
}

func hypothesisID(subjectID, title string) string {
	return "hypothesis:" + subjectID + "|" + slugify(title)
}

func orgID(name string) string      { return "org:" + slugify(name) }
func brandID(name string) string    { return "brand:" + slugify(name) }
func saasID(name string) string     { return "saas:" + slugify(name) }
func leakID(ref string) string      { return "leak:" + slugify(ref) }
func repositoryID(u string) string  { return "repo:" + strings.ToLower(strings.TrimSpace(u)) }

// edgeKey is the identity of an edge: the (from, relation, to) triple.
func edgeKey(from, to, relation string) string {
	return from + "|" + relation + "|" + to
}

// slugify lowercases a name and collapses everything that is not a letter or
// digit into single dashes, yielding a stable identifier fragment.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
