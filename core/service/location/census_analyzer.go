package location

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"census_server/core/agent/llm"
	"census_server/core/domain"
	"census_server/core/service/taxonomy"
	"census_server/pkg/logger"
)

// =============================================================================
// Location Analyzer
// =============================================================================
// Determines where a data portal is based, combining offline hints from the
// domain name with an LLM pass over the portal's title and description. The
// analyzer never fails a portal: when the LLM is unavailable or returns
// garbage, the result degrades to the uncertain region sentinel.

const systemPrompt = `You are a geographic analyst. Given an open-data portal's URL, title, and description, identify where the portal is based.

Respond with EXACTLY this format, nothing else:
<LOCATION>city or area, or Unknown</LOCATION>
<REGION>one of: North America, Latin America & Caribbean, Sub-Saharan Africa, Europe, Asia-Pacific, North Africa & Middle East, Central Asia, Global / Uncertain</REGION>
<PLACE>specific place name, or Unknown</PLACE>
<COUNTRY>country name, or Unknown</COUNTRY>`

type Analyzer struct {
	llm *llm.Client
	log *logger.Logger
}

func NewAnalyzer(client *llm.Client) *Analyzer {
	return &Analyzer{
		llm: client,
		log: logger.NewLogger("location-analyzer"),
	}
}

// Analyze resolves a portal's location. Always returns a usable value with
// Region drawn from the allowed set.
func (a *Analyzer) Analyze(ctx context.Context, portal domain.Portal) domain.PortalLocation {
	host := hostOf(portal.URL)

	hintCountry := CountryFromTLD(host)
	hintPlace := PlaceFromDomain(host)

	if a.llm == nil {
		return a.fromHints(hintCountry, hintPlace)
	}

	prompt := buildPrompt(portal, host, hintCountry, hintPlace)

	raw, err := a.llm.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		a.log.WithError(err).WithField("url", portal.URL).
			Warn("LLM location lookup failed, falling back to domain hints")
		return a.fromHints(hintCountry, hintPlace)
	}

	loc := parseResponse(raw)

	// Fill gaps from hints before normalizing.
	if loc.Country == "" && hintCountry != "" {
		loc.Country = hintCountry
	}
	if loc.Place == "" && hintPlace != "" {
		loc.Place = hintPlace
	}

	loc.Region = normalizeRegionOf(loc)
	return loc
}

// fromHints builds a location from offline evidence alone.
func (a *Analyzer) fromHints(country, place string) domain.PortalLocation {
	loc := domain.PortalLocation{
		Location: place,
		Place:    place,
		Country:  country,
	}
	loc.Region = normalizeRegionOf(loc)
	return loc
}

// normalizeRegionOf maps whatever text the model produced onto the closed
// region set, falling back to the country when the region text is unusable.
func normalizeRegionOf(loc domain.PortalLocation) domain.Region {
	if r := taxonomy.NormalizeRegion(string(loc.Region)); r != domain.RegionUncertain {
		return r
	}
	if loc.Country != "" {
		if r := taxonomy.NormalizeRegion(loc.Country); r != domain.RegionUncertain {
			return r
		}
	}
	return domain.RegionUncertain
}

func buildPrompt(portal domain.Portal, host, hintCountry, hintPlace string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", portal.URL)
	fmt.Fprintf(&b, "Domain: %s\n", host)
	if portal.Name != "" {
		fmt.Fprintf(&b, "Title: %s\n", portal.Name)
	}
	if portal.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncate(portal.Description, 500))
	}
	if hintCountry != "" {
		fmt.Fprintf(&b, "TLD suggests country: %s\n", hintCountry)
	}
	if hintPlace != "" {
		fmt.Fprintf(&b, "Domain name suggests place: %s\n", hintPlace)
	}
	return b.String()
}

// =============================================================================
// Response Parsing
// =============================================================================

var (
	locationRe = regexp.MustCompile(`(?s)<LOCATION>(.*?)</LOCATION>`)
	regionRe   = regexp.MustCompile(`(?s)<REGION>(.*?)</REGION>`)
	placeRe    = regexp.MustCompile(`(?s)<PLACE>(.*?)</PLACE>`)
	countryRe  = regexp.MustCompile(`(?s)<COUNTRY>(.*?)</COUNTRY>`)
)

type jsonLocation struct {
	Location string `json:"location"`
	Region   string `json:"region"`
	Place    string `json:"place"`
	Country  string `json:"country"`
}

// parseResponse extracts the tagged fields from an LLM reply. Some models
// ignore the tag instructions and answer in JSON, so that shape is accepted
// too. Unparseable replies come back empty and are resolved from hints.
func parseResponse(raw string) domain.PortalLocation {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		var jl jsonLocation
		if err := json.Unmarshal([]byte(raw), &jl); err == nil {
			return domain.PortalLocation{
				Location: cleanField(jl.Location),
				Region:   domain.Region(cleanField(jl.Region)),
				Place:    cleanField(jl.Place),
				Country:  cleanField(jl.Country),
			}
		}
	}

	return domain.PortalLocation{
		Location: extractTag(locationRe, raw),
		Region:   domain.Region(extractTag(regionRe, raw)),
		Place:    extractTag(placeRe, raw),
		Country:  extractTag(countryRe, raw),
	}
}

func extractTag(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return cleanField(m[1])
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "unknown") || strings.EqualFold(s, "n/a") {
		return ""
	}
	return s
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
