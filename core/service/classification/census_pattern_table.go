// Package classification implements the sector classification engine for
// data portal domains: a pattern-table primary matcher plus an ordered
// fallback chain that guarantees a terminal category for every input.
package classification

import (
	"regexp"

	"census_server/core/domain"
)

// =============================================================================
// Pattern Table
// =============================================================================

// CategoryPatterns holds the evidence patterns and tie-break priority for one
// category. Priority is fixed in the table; a numerically smaller value wins
// when confidences tie.
type CategoryPatterns struct {
	Category domain.SiteCategory
	Priority int
	Patterns []*regexp.Regexp

	// TLDFloor, when non-nil, marks the category-defining exact TLD pattern.
	// A hit floors the confidence at TLDFloorValue regardless of keyword
	// density.
	TLDFloor      *regexp.Regexp
	TLDFloorValue float64
}

// PatternTable is the static evidence table for the primary matcher. It is
// built once at process start and read-only afterwards; concurrent use needs
// no synchronization.
type PatternTable struct {
	entries []CategoryPatterns
}

// Entries returns the table rows in declaration order.
func (t *PatternTable) Entries() []CategoryPatterns {
	return t.entries
}

// Priority returns the tie-break priority for a category, or a value larger
// than any table priority when the category is not in the table.
func (t *PatternTable) Priority(c domain.SiteCategory) int {
	for _, e := range t.entries {
		if e.Category == c {
			return e.Priority
		}
	}
	return len(t.entries) + 1
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// NewPatternTable builds the default evidence table. An invalid pattern is a
// programming error and panics at startup rather than surfacing per call.
func NewPatternTable() *PatternTable {
	return &PatternTable{entries: []CategoryPatterns{
		{
			Category: domain.CategoryGovernment,
			Priority: 1,
			Patterns: compileAll(
				`\.gov(\.|$)`, `\.gob(\.|$)`, `\.govt(\.|$)`,
				`\.go\.[a-z]{2}`, `\.gc\.`, `\.mil(\.|$)`,
				`government`, `federal`, `state\.`, `city\.`,
				`ministry`, `municipal`, `council`, `administration`,
				`public-data`, `opendata\.government`, `data\.gov`,
				`datos\.gob`, `donnees\.gouv`, `dati\.gov`,
				`\.admin\.`, `\.public\.`, `\.ciudad\.`,
				`prefecture`, `region\.`, `departement\.`,
				`provincia\.`, `comune\.`, `canton\.`,
			),
			TLDFloor:      regexp.MustCompile(`\.gov(\.|$)`),
			TLDFloorValue: 90,
		},
		{
			Category: domain.CategoryEducational,
			Priority: 2,
			Patterns: compileAll(
				`\.edu(\.|$)`, `\.ac\.[a-z]{2}`, `\.edu\.[a-z]{2}`,
				`university`, `universit`, `universidad`,
				`college`, `school`, `academy`, `academia`,
				`institute`, `education`, `educational`,
				`campus`, `faculty`, `department`,
				`hochschule`, `universiteit`, `universite`,
				`politecnico`, `politechnic`,
			),
			TLDFloor:      regexp.MustCompile(`\.edu(\.|$)`),
			TLDFloorValue: 90,
		},
		{
			Category: domain.CategoryResearch,
			Priority: 3,
			Patterns: compileAll(
				`research`, `science`, `scientific`, `ciencia`,
				`laboratory`, `laboratorio`, `labo`,
				`innovation`, `technology`, `tech\.`,
				`experiment`, `discovery`, `institut`,
				`observatory`, `center-for`, `centre-for`,
				`biomedical`, `genomics`, `physics`,
				`chemistry`, `biology`, `ecology`,
				`climate`, `weather`, `space`, `nasa`,
				`cern`, `noaa`, `nih\.`, `nsf\.`,
			),
		},
		{
			Category: domain.CategoryHealthcare,
			Priority: 4,
			Patterns: compileAll(
				`health`, `hospital`, `medical`, `medicine`,
				`clinic`, `healthcare`, `salud`, `sante`,
				`nhs`, `medicare`, `medicaid`, `patient`,
				`disease`, `treatment`, `therapy`,
				`pharmaceutical`, `drug`, `nursing`,
			),
		},
		{
			Category: domain.CategoryNonProfit,
			Priority: 5,
			Patterns: compileAll(
				`\.org(\.|$)`, `foundation`, `fundacion`,
				`ngo`, `nonprofit`, `non-profit`,
				`charity`, `charitable`, `trust`,
				`association`, `society`, `community`,
				`humanitarian`, `volunteer`, `donation`,
				`wwf`, `greenpeace`, `amnesty`,
				`red-cross`, `united-nations`, `unesco`,
			),
			TLDFloor:      regexp.MustCompile(`\.org(\.|$)`),
			TLDFloorValue: 70,
		},
		{
			Category: domain.CategoryCommercial,
			Priority: 6,
			Patterns: compileAll(
				// Bare generic TLDs (.com, .io) are NOT evidence here; they
				// carry no sector signal on their own and are handled by the
				// default fallback heuristic instead.
				`\.biz(\.|$)`,
				`enterprise`, `company`, `corporation`,
				`ltd`, `inc`, `corp`, `gmbh`, `sarl`,
				`business`, `commercial`, `market`,
				`sales`, `product`, `service`,
				`consulting`, `solutions`, `technologies`,
			),
		},
		{
			Category: domain.CategoryTransportation,
			Priority: 7,
			Patterns: compileAll(
				`transport`, `transit`, `railway`, `rail`,
				`airport`, `aviation`, `traffic`,
				`highway`, `roads`, `mobility`,
				`logistics`, `shipping`, `freight`,
				`metro`, `subway`, `bus`, `ferry`,
			),
		},
		{
			Category: domain.CategoryEnvironmental,
			Priority: 8,
			Patterns: compileAll(
				`environment`, `environmental`, `ecology`,
				`climate`, `weather`, `meteorolog`,
				`conservation`, `wildlife`, `nature`,
				`sustainability`, `renewable`, `energy`,
				`pollution`, `emissions`, `recycling`,
				`biodiversity`, `ecosystem`, `forest`,
			),
		},
		{
			Category: domain.CategoryAgriculture,
			Priority: 9,
			Patterns: compileAll(
				`agriculture`, `agricultural`, `farming`,
				`farm`, `crop`, `livestock`, `cattle`,
				`fisheries`, `aquaculture`, `forestry`,
				`food`, `nutrition`, `harvest`,
				`irrigation`, `soil`, `seed`,
			),
		},
		{
			Category: domain.CategoryRegional,
			Priority: 10,
			Patterns: compileAll(
				`regional`, `local`, `district`, `county`,
				`borough`, `township`, `parish`,
				`metropolitan`, `urban`, `rural`,
				`geographic`, `spatial`, `mapping`,
				`cadastre`, `territory`, `zone`,
			),
		},
	}}
}
