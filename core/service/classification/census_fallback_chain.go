package classification

import (
	"regexp"
	"strings"

	"census_server/core/domain"
)

// =============================================================================
// Fallback Chain
// =============================================================================

// FallbackRule is one heuristic in the ordered fallback chain. Fn returns
// (CategoryUnknown, 0) when the rule has nothing to say about the domain.
type FallbackRule struct {
	Name string
	Fn   func(siteDomain string) (domain.SiteCategory, float64)
}

// FallbackChain resolves a category for domains the primary matcher could not
// score. Rules run in order and the first non-Unknown answer wins; the final
// rule is unconditional, so the chain as a whole is total.
type FallbackChain struct {
	rules []FallbackRule
}

// Resolve runs the chain. The returned category is always terminal.
func (c *FallbackChain) Resolve(siteDomain string) (domain.SiteCategory, float64, string) {
	for _, rule := range c.rules {
		if cat, conf := rule.Fn(siteDomain); cat != domain.CategoryUnknown {
			return cat, conf, rule.Name
		}
	}
	// Unreachable while the default rule stays last, but keep the chain
	// total even against a misconfigured rule list.
	return domain.CategoryRegional, 30, "exhausted"
}

// Rules exposes the ordered rule list so individual heuristics can be tested
// in isolation.
func (c *FallbackChain) Rules() []FallbackRule {
	return c.rules
}

// NewFallbackChain builds the default five-rule chain.
func NewFallbackChain() *FallbackChain {
	return &FallbackChain{rules: []FallbackRule{
		{Name: "country-tld", Fn: countryTLDRule},
		{Name: "subdomain", Fn: subdomainRule},
		{Name: "portal-keyword", Fn: portalKeywordRule},
		{Name: "structural", Fn: structuralRule},
		{Name: "default", Fn: defaultRule},
	}}
}

// =============================================================================
// Rule 1: Country TLD
// =============================================================================

type countryTLDEntry struct {
	pattern  *regexp.Regexp
	category domain.SiteCategory
	base     float64
}

// Country TLDs that usually indicate government deployments. Base confidence
// reflects how strongly open-data publishing skews governmental in that
// jurisdiction.
var countryTLDTable = []countryTLDEntry{
	{regexp.MustCompile(`\.uk$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.ca$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.au$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.nz$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.in$`), domain.CategoryGovernment, 55},
	{regexp.MustCompile(`\.za$`), domain.CategoryGovernment, 55},
	{regexp.MustCompile(`\.sg$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.my$`), domain.CategoryGovernment, 55},
	{regexp.MustCompile(`\.jp$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.kr$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.cn$`), domain.CategoryGovernment, 60},
	{regexp.MustCompile(`\.de$`), domain.CategoryRegional, 45},
	{regexp.MustCompile(`\.fr$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.es$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.it$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.nl$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.be$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.ch$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.at$`), domain.CategoryGovernment, 50},
	{regexp.MustCompile(`\.eu$`), domain.CategoryGovernment, 65},
}

var dataKeywords = []string{"data", "datos", "donnees", "daten", "open", "portal"}

func hasDataKeyword(siteDomain string) bool {
	for _, kw := range dataKeywords {
		if strings.Contains(siteDomain, kw) {
			return true
		}
	}
	return false
}

func countryTLDRule(siteDomain string) (domain.SiteCategory, float64) {
	boost := 0.0
	if hasDataKeyword(siteDomain) {
		boost = 20
	}
	for _, e := range countryTLDTable {
		if e.pattern.MatchString(siteDomain) {
			conf := e.base + boost
			if conf > 80 {
				conf = 80
			}
			return e.category, conf
		}
	}
	return domain.CategoryUnknown, 0
}

// =============================================================================
// Rule 2: Subdomain Keywords
// =============================================================================

type subdomainEntry struct {
	keyword  string
	category domain.SiteCategory
	conf     float64
}

// Checked by substring containment against the leftmost label only. Order is
// the priority: more specific keywords come before their substrings
// ("opendata" before "data"), so the first containing entry is the intended
// one.
var subdomainTable = []subdomainEntry{
	{"opendata", domain.CategoryGovernment, 70},
	{"datos", domain.CategoryGovernment, 70},
	{"research", domain.CategoryResearch, 75},
	{"science", domain.CategoryResearch, 70},
	{"health", domain.CategoryHealthcare, 70},
	{"transport", domain.CategoryTransportation, 75},
	{"environment", domain.CategoryEnvironmental, 75},
	{"education", domain.CategoryEducational, 70},
	{"census", domain.CategoryGovernment, 70},
	{"statistics", domain.CategoryGovernment, 65},
	{"portal", domain.CategoryGovernment, 60},
	{"data", domain.CategoryGovernment, 65},
	{"geo", domain.CategoryRegional, 65},
	{"maps", domain.CategoryRegional, 65},
}

func subdomainRule(siteDomain string) (domain.SiteCategory, float64) {
	parts := strings.Split(siteDomain, ".")
	if len(parts) < 3 {
		return domain.CategoryUnknown, 0
	}
	sub := parts[0]
	for _, e := range subdomainTable {
		if strings.Contains(sub, e.keyword) {
			return e.category, e.conf
		}
	}
	return domain.CategoryUnknown, 0
}

// =============================================================================
// Rule 3: Data Portal Keywords
// =============================================================================

var (
	numericCodeRe = regexp.MustCompile(`\d{2,}`)
	geoCodeRe     = regexp.MustCompile(`[a-z]{2}\d{2,}`)
)

func portalKeywordRule(siteDomain string) (domain.SiteCategory, float64) {
	for _, kw := range []string{"dataplatform", "dataportal", "openplatform"} {
		if strings.Contains(siteDomain, kw) {
			switch {
			case strings.Contains(siteDomain, "gov") || strings.Contains(siteDomain, "public"):
				return domain.CategoryGovernment, 65
			case strings.Contains(siteDomain, "research") || strings.Contains(siteDomain, "science"):
				return domain.CategoryResearch, 65
			default:
				// Generic data portals mostly serve regions.
				return domain.CategoryRegional, 55
			}
		}
	}

	// Numbered or geographic identifiers are a regional-portal convention.
	if numericCodeRe.MatchString(siteDomain) || geoCodeRe.MatchString(siteDomain) {
		return domain.CategoryRegional, 50
	}

	return domain.CategoryUnknown, 0
}

// =============================================================================
// Rule 4: Structural
// =============================================================================

var hyphenatedRe = regexp.MustCompile(`[a-z]+-[a-z]+`)

// structuralRule classifies on coarse domain shape. The "four or more labels
// without academic keywords means Government" prior comes from the observed
// census population (deep institutional hierarchies are mostly state-run);
// it is deliberately kept as its own named rule so it can be overridden
// rather than silently changed.
func structuralRule(siteDomain string) (domain.SiteCategory, float64) {
	if siteDomain == "" {
		return domain.CategoryUnknown, 0
	}
	parts := strings.Split(siteDomain, ".")

	if len(parts) == 2 && (strings.Contains(siteDomain, "data") || strings.Contains(siteDomain, "open")) {
		return domain.CategoryGovernment, 55
	}

	if len(parts) >= 4 {
		for _, kw := range []string{"univ", "edu", "acad"} {
			if strings.Contains(siteDomain, kw) {
				return domain.CategoryEducational, 60
			}
		}
		return domain.CategoryGovernment, 50
	}

	if hyphenatedRe.MatchString(siteDomain) {
		return domain.CategoryRegional, 55
	}

	return domain.CategoryUnknown, 0
}

// =============================================================================
// Rule 5: Default (unconditional)
// =============================================================================

// defaultRule never returns Unknown. The Regional terminal reflects the
// empirical skew of CKAN deployments toward regional and government data.
func defaultRule(siteDomain string) (domain.SiteCategory, float64) {
	if strings.Contains(siteDomain, "data") || strings.Contains(siteDomain, "datos") || strings.Contains(siteDomain, "donnees") {
		return domain.CategoryGovernment, 45
	}

	if strings.HasSuffix(siteDomain, ".org") {
		return domain.CategoryNonProfit, 45
	}

	if strings.HasSuffix(siteDomain, ".com") || strings.HasSuffix(siteDomain, ".io") {
		for _, geo := range []string{"map", "geo", "city", "region", "local"} {
			if strings.Contains(siteDomain, geo) {
				return domain.CategoryRegional, 45
			}
		}
		return domain.CategoryCommercial, 40
	}

	return domain.CategoryRegional, 40
}
