// Package taxonomy coerces free-form region text, including raw language
// model output, onto the fixed region taxonomy. Normalization is total and
// idempotent: the output is always a member of domain.AllowedRegions.
package taxonomy

import (
	"strings"

	"census_server/core/domain"
)

// synonymEntry maps a phrase to its region. Matching is case-insensitive
// substring containment against the input, so slice order is the priority:
// the first entry whose key is contained in the input wins. Keep broad keys
// ("eu") after the phrases that contain them.
type synonymEntry struct {
	key    string
	region domain.Region
}

var synonymTable = []synonymEntry{
	// Latin America & Caribbean
	{"latin america", domain.RegionLatinAmerica},
	{"south america", domain.RegionLatinAmerica},
	{"central america", domain.RegionLatinAmerica},
	{"caribbean", domain.RegionLatinAmerica},

	// Sub-Saharan Africa
	{"sub-saharan africa", domain.RegionSubSaharanAfrica},
	{"southern africa", domain.RegionSubSaharanAfrica},
	{"central africa", domain.RegionSubSaharanAfrica},
	{"east africa", domain.RegionSubSaharanAfrica},
	{"west africa", domain.RegionSubSaharanAfrica},

	// Europe
	{"western europe", domain.RegionEurope},
	{"eastern europe", domain.RegionEurope},
	{"northern europe", domain.RegionEurope},
	{"southern europe", domain.RegionEurope},
	{"europe", domain.RegionEurope},
	{"eu", domain.RegionEurope},

	// Asia-Pacific
	{"asia-pacific", domain.RegionAsiaPacific},
	{"asia pacific", domain.RegionAsiaPacific},
	{"east asia", domain.RegionAsiaPacific},
	{"southeast asia", domain.RegionAsiaPacific},
	{"south asia", domain.RegionAsiaPacific},
	{"oceania", domain.RegionAsiaPacific},
	{"pacific", domain.RegionAsiaPacific},
	{"australasia", domain.RegionAsiaPacific},

	// North Africa & Middle East
	{"north africa", domain.RegionNorthAfricaMidEast},
	{"middle east", domain.RegionNorthAfricaMidEast},
	{"mena", domain.RegionNorthAfricaMidEast},

	// Central Asia
	{"central asia", domain.RegionCentralAsia},
}

// countryRegionTable is the tier-3 lookup from country names to regions. It
// is deliberately open: coverage grows as the census surfaces new countries,
// and anything not listed resolves to the uncertain sentinel.
var countryRegionTable = []synonymEntry{
	{"united states", domain.RegionNorthAmerica},
	{"canada", domain.RegionNorthAmerica},
	{"mexico", domain.RegionLatinAmerica},
	{"brazil", domain.RegionLatinAmerica},
	{"argentina", domain.RegionLatinAmerica},
	{"colombia", domain.RegionLatinAmerica},
	{"chile", domain.RegionLatinAmerica},
	{"peru", domain.RegionLatinAmerica},
	{"united kingdom", domain.RegionEurope},
	{"france", domain.RegionEurope},
	{"germany", domain.RegionEurope},
	{"italy", domain.RegionEurope},
	{"spain", domain.RegionEurope},
	{"china", domain.RegionAsiaPacific},
	{"japan", domain.RegionAsiaPacific},
	{"india", domain.RegionAsiaPacific},
	{"australia", domain.RegionAsiaPacific},
	{"new zealand", domain.RegionAsiaPacific},
	{"indonesia", domain.RegionAsiaPacific},
	{"egypt", domain.RegionNorthAfricaMidEast},
	{"saudi arabia", domain.RegionNorthAfricaMidEast},
	{"israel", domain.RegionNorthAfricaMidEast},
	{"south africa", domain.RegionSubSaharanAfrica},
	{"nigeria", domain.RegionSubSaharanAfrica},
	{"kenya", domain.RegionSubSaharanAfrica},
	{"kazakhstan", domain.RegionCentralAsia},
	{"uzbekistan", domain.RegionCentralAsia},
}

// NormalizeRegion maps arbitrary text onto the region taxonomy.
//
// Three tiers, first hit wins:
//  1. exact match against the taxonomy itself (makes normalization
//     idempotent),
//  2. synonym phrase contained in the lowercased input,
//  3. country name contained in the lowercased input.
//
// Anything else, including the empty string, resolves to RegionUncertain.
// Matching is plain substring containment, not word-boundary aware; that
// imprecision is accepted in exchange for tolerance of messy LLM output.
func NormalizeRegion(text string) domain.Region {
	trimmed := strings.TrimSpace(text)

	for _, r := range domain.AllowedRegions {
		if trimmed == string(r) {
			return r
		}
	}

	lower := strings.ToLower(trimmed)

	for _, e := range synonymTable {
		if strings.Contains(lower, e.key) {
			return e.region
		}
	}

	for _, e := range countryRegionTable {
		if strings.Contains(lower, e.key) {
			return e.region
		}
	}

	return domain.RegionUncertain
}
