package location

import (
	"regexp"
	"strings"
)

// =============================================================================
// Preliminary Location Hints (no network)
// =============================================================================

// genericTLDs carry no geographic signal and are skipped by the ccTLD hint.
var genericTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "edu": true, "gov": true,
	"io": true, "co": true, "info": true, "ai": true,
}

// tldCountryTable maps country-code TLDs to country names. Used only to seed
// the LLM prompt with a hint, never as the final answer.
var tldCountryTable = map[string]string{
	// Europe
	"uk": "United Kingdom", "gb": "United Kingdom", "eu": "European Union",
	"de": "Germany", "fr": "France", "es": "Spain", "it": "Italy",
	"nl": "Netherlands", "be": "Belgium", "ch": "Switzerland", "at": "Austria",
	"se": "Sweden", "no": "Norway", "dk": "Denmark", "fi": "Finland",
	"pl": "Poland", "pt": "Portugal", "ie": "Ireland", "gr": "Greece",
	"cz": "Czech Republic", "hu": "Hungary", "ro": "Romania", "bg": "Bulgaria",
	"hr": "Croatia", "si": "Slovenia", "sk": "Slovakia", "lt": "Lithuania",
	"lv": "Latvia", "ee": "Estonia", "lu": "Luxembourg", "mt": "Malta",
	"cy": "Cyprus", "is": "Iceland", "md": "Moldova", "me": "Montenegro",
	"mk": "North Macedonia", "rs": "Serbia", "ua": "Ukraine", "by": "Belarus",
	"ba": "Bosnia and Herzegovina", "al": "Albania",

	// Americas
	"us": "United States", "ca": "Canada", "mx": "Mexico", "br": "Brazil",
	"ar": "Argentina", "cl": "Chile", "pe": "Peru", "ve": "Venezuela",
	"ec": "Ecuador", "bo": "Bolivia", "py": "Paraguay", "uy": "Uruguay",
	"cr": "Costa Rica", "pa": "Panama", "cu": "Cuba",
	"do": "Dominican Republic", "gt": "Guatemala", "hn": "Honduras",
	"sv": "El Salvador", "ni": "Nicaragua", "bz": "Belize", "jm": "Jamaica",
	"ht": "Haiti", "tt": "Trinidad and Tobago", "bb": "Barbados",
	"bs": "Bahamas", "pr": "Puerto Rico",

	// Asia
	"cn": "China", "jp": "Japan", "kr": "South Korea", "in": "India",
	"id": "Indonesia", "my": "Malaysia", "sg": "Singapore", "th": "Thailand",
	"vn": "Vietnam", "ph": "Philippines", "tw": "Taiwan", "hk": "Hong Kong",
	"kh": "Cambodia", "la": "Laos", "mm": "Myanmar", "mn": "Mongolia",
	"pk": "Pakistan", "bd": "Bangladesh", "lk": "Sri Lanka", "np": "Nepal",
	"bt": "Bhutan", "mv": "Maldives", "af": "Afghanistan",

	// Central Asia
	"kz": "Kazakhstan", "uz": "Uzbekistan", "tm": "Turkmenistan",
	"kg": "Kyrgyzstan", "tj": "Tajikistan",

	// Middle East
	"ae": "United Arab Emirates", "sa": "Saudi Arabia", "qa": "Qatar",
	"kw": "Kuwait", "bh": "Bahrain", "om": "Oman", "ye": "Yemen",
	"jo": "Jordan", "lb": "Lebanon", "sy": "Syria", "iq": "Iraq",
	"ir": "Iran", "il": "Israel", "ps": "Palestine", "tr": "Turkey",
	"az": "Azerbaijan", "am": "Armenia", "ge": "Georgia",

	// Oceania
	"au": "Australia", "nz": "New Zealand", "fj": "Fiji",
	"pg": "Papua New Guinea", "nc": "New Caledonia", "pf": "French Polynesia",
	"ws": "Samoa", "to": "Tonga", "vu": "Vanuatu",

	// Africa
	"za": "South Africa", "eg": "Egypt", "ma": "Morocco", "tn": "Tunisia",
	"dz": "Algeria", "ly": "Libya", "sd": "Sudan", "et": "Ethiopia",
	"ke": "Kenya", "ug": "Uganda", "tz": "Tanzania", "rw": "Rwanda",
	"bi": "Burundi", "so": "Somalia", "ng": "Nigeria", "gh": "Ghana",
	"ci": "Ivory Coast", "sn": "Senegal", "ml": "Mali", "bf": "Burkina Faso",
	"ne": "Niger", "tg": "Togo", "bj": "Benin", "lr": "Liberia",
	"sl": "Sierra Leone", "gn": "Guinea", "gm": "Gambia", "cv": "Cape Verde",
	"ga": "Gabon", "cg": "Republic of Congo",
	"cd": "Democratic Republic of Congo", "cm": "Cameroon", "td": "Chad",
	"ao": "Angola", "zm": "Zambia", "zw": "Zimbabwe", "mz": "Mozambique",
	"bw": "Botswana", "na": "Namibia", "ls": "Lesotho", "mg": "Madagascar",
	"mu": "Mauritius", "sc": "Seychelles",
}

var tldRe = regexp.MustCompile(`\.([a-z]{2,})$`)

// CountryFromTLD returns the country suggested by the domain's TLD, or ""
// when the TLD is generic or unrecognized.
func CountryFromTLD(siteDomain string) string {
	m := tldRe.FindStringSubmatch(siteDomain)
	if m == nil {
		return ""
	}
	tld := m[1]
	if genericTLDs[tld] {
		return ""
	}
	return tldCountryTable[tld]
}

// =============================================================================
// Domain Name Tokens
// =============================================================================

var cityStateRe = regexp.MustCompile(`([a-z]+)([a-z]{2})\.gov`)

// US state abbreviations recognized in city-state .gov domains
// (data.sugarlandtx.gov style). Extended as the census encounters more.
var usStates = map[string]string{
	"tx": "Texas", "ca": "California", "ny": "New York",
	"fl": "Florida", "il": "Illinois", "pa": "Pennsylvania",
	"oh": "Ohio", "wa": "Washington", "ma": "Massachusetts",
	"co": "Colorado",
}

var knownCities = []string{
	"london", "paris", "berlin", "tokyo", "newyork", "madrid",
	"rome", "amsterdam", "dublin", "chicago", "boston", "sydney",
	"toronto", "vienna", "helsinki", "lisbon",
}

// PlaceFromDomain looks for city/state tokens embedded in the domain name.
// Returns "" when nothing recognizable is found.
func PlaceFromDomain(siteDomain string) string {
	main := strings.TrimPrefix(siteDomain, "www.")

	if m := cityStateRe.FindStringSubmatch(main); m != nil {
		if state, ok := usStates[m[2]]; ok {
			return titleCase(m[1]) + ", " + state
		}
	}

	for _, city := range knownCities {
		if strings.Contains(main, city) {
			return titleCase(city)
		}
	}

	return ""
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
