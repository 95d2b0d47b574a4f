package taxonomy

import (
	"testing"

	"census_server/core/domain"
)

// TestNormalizeRegionTiers tests all three matching tiers in order.
func TestNormalizeRegionTiers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.Region
	}{
		// Tier 1: exact taxonomy members pass through
		{"exact member", "Europe", domain.RegionEurope},
		{"exact member with ampersand", "North Africa & Middle East", domain.RegionNorthAfricaMidEast},
		{"exact sentinel", "Global / Uncertain", domain.RegionUncertain},

		// Tier 2: synonym phrases by substring
		{"compound synonym", "Western Europe", domain.RegionEurope},
		{"synonym inside sentence", "The portal serves South America broadly", domain.RegionLatinAmerica},
		{"oceania folds into asia-pacific", "Oceania", domain.RegionAsiaPacific},
		{"mena abbreviation", "MENA region", domain.RegionNorthAfricaMidEast},
		{"case insensitive", "eastern EUROPE", domain.RegionEurope},

		// Tier 3: country names
		{"country name", "United Kingdom", domain.RegionEurope},
		{"country inside sentence", "Open data portal of Japan", domain.RegionAsiaPacific},
		{"country in spanish context", "Gobierno de Chile", domain.RegionLatinAmerica},
		{"central asian country", "Kazakhstan", domain.RegionCentralAsia},

		// Sentinel
		{"empty", "", domain.RegionUncertain},
		{"whitespace only", "   ", domain.RegionUncertain},
		{"unlisted country", "Kigali, Rwanda", domain.RegionUncertain},
		{"gibberish", "zqxwvut", domain.RegionUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRegion(tt.in); got != tt.want {
				t.Errorf("NormalizeRegion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeRegionIdempotent verifies that every output is a fixed point.
func TestNormalizeRegionIdempotent(t *testing.T) {
	for _, r := range domain.AllowedRegions {
		if got := NormalizeRegion(string(r)); got != r {
			t.Errorf("NormalizeRegion(%q) = %q, not idempotent", r, got)
		}
	}
}

// TestNormalizeRegionAlwaysAllowed verifies closure over the taxonomy for
// arbitrary input.
func TestNormalizeRegionAlwaysAllowed(t *testing.T) {
	inputs := []string{
		"", "somewhere", "Europe and Asia", "the moon", "África",
		"North", "america", "EU headquarters in Brussels",
	}

	allowed := map[domain.Region]bool{}
	for _, r := range domain.AllowedRegions {
		allowed[r] = true
	}

	for _, in := range inputs {
		got := NormalizeRegion(in)
		if !allowed[got] {
			t.Errorf("NormalizeRegion(%q) = %q, not in taxonomy", in, got)
		}
	}
}
