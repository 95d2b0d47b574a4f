package domain

// SiteCategory represents the organizational sector of a data portal.
type SiteCategory string

const (
	CategoryGovernment     SiteCategory = "Government"
	CategoryEducational    SiteCategory = "Educational"
	CategoryResearch       SiteCategory = "Research"
	CategoryHealthcare     SiteCategory = "Healthcare"
	CategoryNonProfit      SiteCategory = "Non-profit"
	CategoryCommercial     SiteCategory = "Commercial"
	CategoryTransportation SiteCategory = "Transportation"
	CategoryEnvironmental  SiteCategory = "Environmental"
	CategoryAgriculture    SiteCategory = "Agriculture"
	CategoryRegional       SiteCategory = "Regional"

	// CategoryUnknown is an intermediate state only. The fallback chain
	// resolves it before a result leaves the classifier.
	CategoryUnknown SiteCategory = "Unknown"
)

// SiteCategories lists every terminal category (excludes Unknown).
var SiteCategories = []SiteCategory{
	CategoryGovernment,
	CategoryEducational,
	CategoryResearch,
	CategoryHealthcare,
	CategoryNonProfit,
	CategoryCommercial,
	CategoryTransportation,
	CategoryEnvironmental,
	CategoryAgriculture,
	CategoryRegional,
}

// IsValidCategory reports whether c is a terminal category.
func IsValidCategory(c SiteCategory) bool {
	for _, v := range SiteCategories {
		if v == c {
			return true
		}
	}
	return false
}

// CandidateScore is one scored category from the primary domain matcher.
type CandidateScore struct {
	Category   SiteCategory `json:"category"`
	Confidence float64      `json:"confidence"`
}

// ClassificationResult is the final classification for a portal URL.
// Category is always a member of SiteCategories and Confidence is in [0,100].
type ClassificationResult struct {
	Category   SiteCategory `json:"category"`
	Confidence float64      `json:"confidence"`

	// Evidence
	Domain          string           `json:"domain"`
	MatchedPatterns []string         `json:"matched_patterns,omitempty"`
	TopCandidates   []CandidateScore `json:"top_candidates,omitempty"`

	// Stage that produced the winning category. "pattern" for the primary
	// matcher, otherwise the name of the fallback heuristic that fired.
	Stage string `json:"stage"`
}

// Region is the fixed geographic taxonomy for portal locations.
type Region string

const (
	RegionNorthAmerica       Region = "North America"
	RegionLatinAmerica       Region = "Latin America & Caribbean"
	RegionSubSaharanAfrica   Region = "Sub-Saharan Africa"
	RegionEurope             Region = "Europe"
	RegionAsiaPacific        Region = "Asia-Pacific"
	RegionNorthAfricaMidEast Region = "North Africa & Middle East"
	RegionCentralAsia        Region = "Central Asia"

	// RegionUncertain is the sentinel for text the normalizer cannot place.
	// It is a valid member of the taxonomy, not an error state.
	RegionUncertain Region = "Global / Uncertain"
)

// AllowedRegions lists every member of the region taxonomy, sentinel included.
var AllowedRegions = []Region{
	RegionNorthAmerica,
	RegionLatinAmerica,
	RegionSubSaharanAfrica,
	RegionEurope,
	RegionAsiaPacific,
	RegionNorthAfricaMidEast,
	RegionCentralAsia,
	RegionUncertain,
}

// IsAllowedRegion reports whether r is a member of the region taxonomy.
func IsAllowedRegion(r Region) bool {
	for _, v := range AllowedRegions {
		if v == r {
			return true
		}
	}
	return false
}
