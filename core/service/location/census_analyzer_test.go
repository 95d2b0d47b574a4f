package location

import (
	"context"
	"testing"

	"census_server/core/domain"
)

func TestParseResponseTagged(t *testing.T) {
	raw := `<LOCATION>Montevideo</LOCATION>
<REGION>Latin America & Caribbean</REGION>
<PLACE>Montevideo</PLACE>
<COUNTRY>Uruguay</COUNTRY>`

	loc := parseResponse(raw)

	if loc.Location != "Montevideo" {
		t.Errorf("Location = %q, want Montevideo", loc.Location)
	}
	if loc.Region != domain.RegionLatinAmerica {
		t.Errorf("Region = %q, want Latin America & Caribbean", loc.Region)
	}
	if loc.Country != "Uruguay" {
		t.Errorf("Country = %q, want Uruguay", loc.Country)
	}
}

func TestParseResponseJSON(t *testing.T) {
	raw := `{"location": "Helsinki", "region": "Europe", "place": "Helsinki", "country": "Finland"}`

	loc := parseResponse(raw)

	if loc.Country != "Finland" {
		t.Errorf("Country = %q, want Finland", loc.Country)
	}
	if loc.Region != domain.RegionEurope {
		t.Errorf("Region = %q, want Europe", loc.Region)
	}
}

func TestParseResponseUnknownFields(t *testing.T) {
	raw := `<LOCATION>Unknown</LOCATION>
<REGION>Europe</REGION>
<PLACE>unknown</PLACE>
<COUNTRY>N/A</COUNTRY>`

	loc := parseResponse(raw)

	if loc.Location != "" || loc.Place != "" || loc.Country != "" {
		t.Errorf("unknown markers should clear to empty, got %+v", loc)
	}
}

func TestParseResponseGarbage(t *testing.T) {
	loc := parseResponse("I cannot determine the location from this input.")
	if loc.Location != "" || loc.Country != "" || loc.Region != "" {
		t.Errorf("garbage reply should parse empty, got %+v", loc)
	}
}

func TestCountryFromTLD(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"data.gov.uk", "United Kingdom"},
		{"dados.gov.br", "Brazil"},
		{"data.go.ke", "Kenya"},
		{"opendata.swiss", ""},
		{"data.example.com", ""},
		{"portal.example.io", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CountryFromTLD(tt.domain); got != tt.want {
			t.Errorf("CountryFromTLD(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestPlaceFromDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"data.sugarlandtx.gov", "Sugarland, Texas"},
		{"opendata.paris.fr", "Paris"},
		{"data.london.gov.uk", "London"},
		{"data.example.org", ""},
	}
	for _, tt := range tests {
		if got := PlaceFromDomain(tt.domain); got != tt.want {
			t.Errorf("PlaceFromDomain(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestAnalyzeWithoutLLM(t *testing.T) {
	a := NewAnalyzer(nil)

	loc := a.Analyze(context.Background(), domain.Portal{URL: "https://data.gov.uk"})
	if loc.Country != "United Kingdom" {
		t.Errorf("Country = %q, want United Kingdom", loc.Country)
	}
	if loc.Region != domain.RegionEurope {
		t.Errorf("Region = %q, want Europe", loc.Region)
	}

	loc = a.Analyze(context.Background(), domain.Portal{URL: "https://data.example.com"})
	if loc.Region != domain.RegionUncertain {
		t.Errorf("Region = %q, want uncertain sentinel", loc.Region)
	}
}

func TestAnalyzeRegionAlwaysAllowed(t *testing.T) {
	a := NewAnalyzer(nil)
	urls := []string{
		"https://data.gov.uk", "dados.gov.br", "not a url at all", "",
		"https://data.go.jp", "https://opendata.example.io",
	}
	for _, u := range urls {
		loc := a.Analyze(context.Background(), domain.Portal{URL: u})
		if !domain.IsAllowedRegion(loc.Region) {
			t.Errorf("Analyze(%q) region %q outside allowed set", u, loc.Region)
		}
	}
}
