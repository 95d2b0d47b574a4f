package classification

import (
	"net/url"
	"sort"
	"strings"

	"census_server/core/domain"
)

// =============================================================================
// Domain Signal Matcher
// =============================================================================

// candidate is one scored category produced by the primary matcher.
type candidate struct {
	category   domain.SiteCategory
	confidence float64
	patterns   []string
}

// DomainMatcher runs the pattern table against a normalized domain string.
// It is stateless apart from the read-only table and safe for concurrent use.
type DomainMatcher struct {
	table *PatternTable
}

// NewDomainMatcher creates a matcher over the given table.
func NewDomainMatcher(table *PatternTable) *DomainMatcher {
	return &DomainMatcher{table: table}
}

// Match scores every category against the domain. Categories with zero
// pattern hits are excluded. Confidence is hits/patternCount*100 capped at
// 100, then floored by the category's exact-TLD rule when that pattern hit.
// Candidates come back sorted by confidence desc, priority asc.
func (m *DomainMatcher) Match(siteDomain string) []candidate {
	var out []candidate

	for _, entry := range m.table.Entries() {
		hits := 0
		var matched []string
		for _, p := range entry.Patterns {
			if p.MatchString(siteDomain) {
				hits++
				matched = append(matched, p.String())
			}
		}
		if hits == 0 {
			continue
		}

		confidence := float64(hits) / float64(len(entry.Patterns)) * 100
		if confidence > 100 {
			confidence = 100
		}
		if entry.TLDFloor != nil && entry.TLDFloor.MatchString(siteDomain) && confidence < entry.TLDFloorValue {
			confidence = entry.TLDFloorValue
		}

		out = append(out, candidate{
			category:   entry.Category,
			confidence: confidence,
			patterns:   matched,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].confidence != out[j].confidence {
			return out[i].confidence > out[j].confidence
		}
		return m.table.Priority(out[i].category) < m.table.Priority(out[j].category)
	})

	return out
}

// extractDomain pulls the lowercased host out of a URL string. A missing
// scheme is tolerated; an unparsable input yields "" and flows through the
// fallback chain instead of erroring. url.Parse accepts junk hosts like
// ":::", so hosts without any letter or digit are rejected too.
func extractDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !validHost(host) {
		return ""
	}
	return host
}

func validHost(host string) bool {
	for _, r := range host {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}
