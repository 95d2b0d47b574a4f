package classification

import (
	"regexp"
	"testing"

	"census_server/core/domain"
)

// TestClassifyPatternStage tests domains the primary matcher resolves.
func TestClassifyPatternStage(t *testing.T) {
	classifier := NewDefaultClassifier()

	tests := []struct {
		name         string
		url          string
		wantCategory domain.SiteCategory
		wantMinConf  float64
		wantStage    string
	}{
		{
			name:         "gov TLD floors Government at 90",
			url:          "https://data.gov.uk",
			wantCategory: domain.CategoryGovernment,
			wantMinConf:  90,
			wantStage:    "pattern",
		},
		{
			name:         "edu country TLD floors Educational at 90",
			url:          "https://unirio.edu.br",
			wantCategory: domain.CategoryEducational,
			wantMinConf:  90,
			wantStage:    "pattern",
		},
		{
			name:         "org TLD floors Non-profit at 70",
			url:          "https://example.org",
			wantCategory: domain.CategoryNonProfit,
			wantMinConf:  70,
			wantStage:    "pattern",
		},
		{
			name:         "scheme-less input is tolerated",
			url:          "data.gov.uk",
			wantCategory: domain.CategoryGovernment,
			wantMinConf:  90,
			wantStage:    "pattern",
		},
		{
			name:         "keyword evidence without TLD floor",
			url:          "https://transport.data.example.net",
			wantCategory: domain.CategoryTransportation,
			wantMinConf:  1,
			wantStage:    "pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.url)
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", got.Category, tt.wantCategory)
			}
			if got.Confidence < tt.wantMinConf {
				t.Errorf("Confidence = %.1f, want >= %.1f", got.Confidence, tt.wantMinConf)
			}
			if got.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", got.Stage, tt.wantStage)
			}
		})
	}
}

// TestClassifyFallbackStage tests domains the primary matcher cannot score.
func TestClassifyFallbackStage(t *testing.T) {
	classifier := NewDefaultClassifier()

	tests := []struct {
		name         string
		url          string
		wantCategory domain.SiteCategory
		wantConf     float64
		wantStage    string
	}{
		{
			name:         "opendata subdomain on generic TLD",
			url:          "https://opendata.example.io",
			wantCategory: domain.CategoryGovernment,
			wantConf:     70,
			wantStage:    "subdomain",
		},
		{
			name:         "country TLD with data keyword boost",
			url:          "https://data.example.uk",
			wantCategory: domain.CategoryGovernment,
			wantConf:     80,
			wantStage:    "country-tld",
		},
		{
			name:         "portal keyword without sector hints",
			url:          "https://dataportal.net",
			wantCategory: domain.CategoryRegional,
			wantConf:     55,
			wantStage:    "portal-keyword",
		},
		{
			name:         "numeric identifier suggests regional portal",
			url:          "https://site42.net",
			wantCategory: domain.CategoryRegional,
			wantConf:     50,
			wantStage:    "portal-keyword",
		},
		{
			name:         "deep hierarchy without academic keywords",
			url:          "https://foo.bar.baz.example",
			wantCategory: domain.CategoryGovernment,
			wantConf:     50,
			wantStage:    "structural",
		},
		{
			name:         "hyphenated two-label domain",
			url:          "https://my-town.net",
			wantCategory: domain.CategoryRegional,
			wantConf:     55,
			wantStage:    "structural",
		},
		{
			name:         "generic commercial TLD falls to default",
			url:          "https://shop.io",
			wantCategory: domain.CategoryCommercial,
			wantConf:     40,
			wantStage:    "default",
		},
		{
			name:         "nothing matches at all",
			url:          "https://example.net",
			wantCategory: domain.CategoryRegional,
			wantConf:     40,
			wantStage:    "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.url)
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", got.Category, tt.wantCategory)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %.1f, want %.1f", got.Confidence, tt.wantConf)
			}
			if got.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", got.Stage, tt.wantStage)
			}
		})
	}
}

// TestClassifyIsTotal ensures every input yields a terminal category.
func TestClassifyIsTotal(t *testing.T) {
	classifier := NewDefaultClassifier()

	inputs := []string{
		"",
		"   ",
		"not a url",
		"::::",
		"https://",
		"ftp://weird.scheme.example",
		"https://🦀.example",
	}

	for _, input := range inputs {
		got := classifier.Classify(input)
		if got.Category == "" || got.Category == domain.CategoryUnknown {
			t.Errorf("Classify(%q) produced non-terminal category %q", input, got.Category)
		}
		if got.Confidence <= 0 {
			t.Errorf("Classify(%q) produced confidence %.1f, want > 0", input, got.Confidence)
		}
		if got.Stage == "" {
			t.Errorf("Classify(%q) produced empty stage", input)
		}
	}
}

// TestClassifyDeterministicTieBreak verifies equal-confidence candidates are
// ranked by table priority.
func TestClassifyDeterministicTieBreak(t *testing.T) {
	// Two single-pattern categories tie at 100 on the same domain. The
	// lower-priority-value category must win, every time.
	table := &PatternTable{entries: []CategoryPatterns{
		{
			Category: domain.CategoryHealthcare,
			Priority: 4,
			Patterns: compileAll(`tied`),
		},
		{
			Category: domain.CategoryResearch,
			Priority: 3,
			Patterns: compileAll(`tied`),
		},
	}}
	classifier := NewClassifier(table, NewFallbackChain())

	for i := 0; i < 50; i++ {
		got := classifier.Classify("https://tied.example.net")
		if got.Category != domain.CategoryResearch {
			t.Fatalf("run %d: Category = %s, want %s", i, got.Category, domain.CategoryResearch)
		}
		if got.Confidence != 100 {
			t.Fatalf("run %d: Confidence = %.1f, want 100", i, got.Confidence)
		}
	}
}

// TestClassifyTopCandidates verifies the evidence carried on the result.
func TestClassifyTopCandidates(t *testing.T) {
	classifier := NewDefaultClassifier()

	got := classifier.Classify("https://data.gov.uk")
	if len(got.TopCandidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if len(got.TopCandidates) > 3 {
		t.Errorf("TopCandidates length = %d, want <= 3", len(got.TopCandidates))
	}
	if got.TopCandidates[0].Category != got.Category {
		t.Errorf("first candidate %s does not match winner %s",
			got.TopCandidates[0].Category, got.Category)
	}
	for i := 1; i < len(got.TopCandidates); i++ {
		if got.TopCandidates[i].Confidence > got.TopCandidates[i-1].Confidence {
			t.Errorf("candidates not sorted: %.1f before %.1f",
				got.TopCandidates[i-1].Confidence, got.TopCandidates[i].Confidence)
		}
	}
	if len(got.MatchedPatterns) == 0 {
		t.Error("expected matched patterns on a pattern-stage result")
	}
}

// TestConfidenceNormalization checks the hit-density formula and its cap.
func TestConfidenceNormalization(t *testing.T) {
	table := &PatternTable{entries: []CategoryPatterns{
		{
			Category: domain.CategoryResearch,
			Priority: 1,
			Patterns: compileAll(`alpha`, `beta`, `gamma`, `delta`),
		},
	}}
	matcher := NewDomainMatcher(table)

	tests := []struct {
		name     string
		domain   string
		wantConf float64
	}{
		{"one of four hits", "alpha.example.net", 25},
		{"two of four hits", "alpha.beta.example.net", 50},
		{"all four hit", "alpha-beta-gamma-delta.example.net", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := matcher.Match(tt.domain)
			if len(cands) != 1 {
				t.Fatalf("candidates = %d, want 1", len(cands))
			}
			if cands[0].confidence != tt.wantConf {
				t.Errorf("confidence = %.1f, want %.1f", cands[0].confidence, tt.wantConf)
			}
		})
	}
}

// TestTLDFloorDoesNotLower verifies the floor never reduces a confidence
// already above it.
func TestTLDFloorDoesNotLower(t *testing.T) {
	table := &PatternTable{entries: []CategoryPatterns{
		{
			Category:      domain.CategoryGovernment,
			Priority:      1,
			Patterns:      compileAll(`\.gov(\.|$)`, `data`),
			TLDFloor:      regexp.MustCompile(`\.gov(\.|$)`),
			TLDFloorValue: 90,
		},
	}}
	matcher := NewDomainMatcher(table)

	cands := matcher.Match("data.gov")
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
	// Both patterns hit: 2/2 = 100, above the 90 floor.
	if cands[0].confidence != 100 {
		t.Errorf("confidence = %.1f, want 100", cands[0].confidence)
	}
}

// TestExtractDomain tests URL host extraction.
func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Data.GOV.uk/dataset", "data.gov.uk"},
		{"data.gov.uk", "data.gov.uk"},
		{"http://example.com:8080/api", "example.com"},
		{"  https://padded.example.net  ", "padded.example.net"},
		{"", ""},
		{"::::", ""},
		{"https://----", ""},
		{"https://._-", ""},
	}

	for _, tt := range tests {
		if got := extractDomain(tt.in); got != tt.want {
			t.Errorf("extractDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
