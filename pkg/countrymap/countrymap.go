// Package countrymap reconciles free-text country names from the World
// Happiness Report with canonical World Bank country codes.
//
// The table is manually curated and inherently incomplete: a miss is an
// explicit outcome for the caller to handle, never an error. Unmatched names
// are collected per batch and surfaced to the operator.
package countrymap

import (
	"fmt"
	"sort"
	"strings"
)

// nameToCode maps raw country-name spellings, as they appear in happiness
// report spreadsheets, to World Bank country codes. Multiple spellings,
// transliterations, colloquial vs. official names, and disputed-territory
// naming all collapse onto one code. Footnote asterisks are stripped by
// Normalize before lookup, so no starred variants are listed here.
var nameToCode = map[string]string{
	"Finland":        "FI",
	"Denmark":        "DK",
	"Switzerland":    "CH",
	"Iceland":        "IS",
	"Norway":         "NO",
	"Netherlands":    "NL",
	"Sweden":         "SE",
	"New Zealand":    "NZ",
	"Austria":        "AT",
	"Luxembourg":     "LU",
	"Canada":         "CA",
	"Australia":      "AU",
	"United Kingdom": "GB",
	"Israel":         "IL",
	"Costa Rica":     "CR",
	"Ireland":        "IE",
	"Germany":        "DE",
	"United States":  "US",
	"Belgium":        "BE",

	"United Arab Emirates":     "AE",
	"Malta":                    "MT",
	"France":                   "FR",
	"Mexico":                   "MX",
	"Taiwan Province of China": "TW",
	"Uruguay":                  "UY",
	"Saudi Arabia":             "SA",
	"Spain":                    "ES",
	"Guatemala":                "GT",
	"Italy":                    "IT",
	"Singapore":                "SG",
	"Brazil":                   "BR",
	"Slovenia":                 "SI",
	"El Salvador":              "SV",
	"Kosovo":                   "XK",
	"Panama":                   "PA",
	"Uzbekistan":               "UZ",
	"Chile":                    "CL",
	"Bahrain":                  "BH",
	"Lithuania":                "LT",
	"Trinidad and Tobago":      "TT",
	"Poland":                   "PL",

	"Colombia":               "CO",
	"Cyprus":                 "CY",
	"Nicaragua":              "NI",
	"Romania":                "RO",
	"Kuwait":                 "KW",
	"Mauritius":              "MU",
	"Kazakhstan":             "KZ",
	"Estonia":                "EE",
	"Philippines":            "PH",
	"Hungary":                "HU",
	"Thailand":               "TH",
	"Argentina":              "AR",
	"Honduras":               "HN",
	"Latvia":                 "LV",
	"Ecuador":                "EC",
	"Portugal":               "PT",
	"Jamaica":                "JM",
	"Japan":                  "JP",
	"Peru":                   "PE",
	"Serbia":                 "RS",
	"Bolivia":                "BO",
	"Pakistan":               "PK",
	"Paraguay":               "PY",
	"Dominican Republic":     "DO",
	"Bosnia and Herzegovina": "BA",

	"Tajikistan":   "TJ",
	"Montenegro":   "ME",
	"Kyrgyzstan":   "KG",
	"Belarus":      "BY",
	"North Cyprus": "CY",
	"Greece":       "GR",
	"Croatia":      "HR",
	"Libya":        "LY",
	"Mongolia":     "MN",
	"Malaysia":     "MY",
	"Indonesia":    "ID",
	"Benin":        "BJ",
	"Maldives":     "MV",
	"Azerbaijan":   "AZ",
	"Ghana":        "GH",
	"Nepal":        "NP",
	"China":        "CN",
	"Turkmenistan": "TM",
	"Bulgaria":     "BG",
	"Morocco":      "MA",
	"Cameroon":     "CM",

	"Algeria":                  "DZ",
	"Senegal":                  "SN",
	"Guinea":                   "GN",
	"Niger":                    "NE",
	"Albania":                  "AL",
	"Cambodia":                 "KH",
	"Bangladesh":               "BD",
	"Gabon":                    "GA",
	"South Africa":             "ZA",
	"Iraq":                     "IQ",
	"Lebanon":                  "LB",
	"Burkina Faso":             "BF",
	"Mali":                     "ML",
	"Nigeria":                  "NG",
	"Armenia":                  "AM",
	"Georgia":                  "GE",
	"Jordan":                   "JO",
	"Mozambique":               "MZ",
	"Kenya":                    "KE",
	"Namibia":                  "NA",
	"Ukraine":                  "UA",
	"Liberia":                  "LR",
	"Uganda":                   "UG",
	"Chad":                     "TD",
	"Tunisia":                  "TN",
	"Mauritania":               "MR",
	"Sri Lanka":                "LK",
	"Myanmar":                  "MM",
	"Comoros":                  "KM",
	"Togo":                     "TG",
	"Ethiopia":                 "ET",
	"Madagascar":               "MG",
	"Sierra Leone":             "SL",
	"Burundi":                  "BI",
	"Zambia":                   "ZM",
	"Haiti":                    "HT",
	"Lesotho":                  "LS",
	"India":                    "IN",
	"Malawi":                   "MW",
	"Botswana":                 "BW",
	"Tanzania":                 "TZ",
	"Central African Republic": "CF",
	"Rwanda":                   "RW",
	"Zimbabwe":                 "ZW",
	"South Sudan":              "SS",
	"Afghanistan":              "AF",

	// Spelling and transliteration variants.
	"Czech Republic":      "CZ",
	"Czechia":             "CZ",
	"South Korea":         "KR",
	"Republic of Korea":   "KR",
	"Russia":              "RU",
	"Russian Federation":  "RU",
	"Laos":                "LA",
	"Lao PDR":             "LA",
	"Moldova":             "MD",
	"Republic of Moldova": "MD",
	"Turkey":              "TR",
	"Turkiye":             "TR",
	"Türkiye":             "TR",
	"Vietnam":             "VN",
	"Viet Nam":            "VN",
	"Macedonia":           "MK",
	"North Macedonia":     "MK",
	"Slovakia":            "SK",
	"Slovak Republic":     "SK",
	"Kyrgyz Republic":     "KG",

	// Colloquial vs. official World Bank naming.
	"Hong Kong SAR of China":    "HK",
	"Hong Kong S.A.R. of China": "HK",
	"Ivory Coast":               "CI",
	"Côte d'Ivoire":             "CI",
	"Congo (Kinshasa)":          "CD",
	"DR Congo":                  "CD",
	"Congo (Brazzaville)":       "CG",
	"Congo":                     "CG",
	"Swaziland":                 "SZ",
	"Eswatini":                  "SZ",
	"Eswatini, Kingdom of":      "SZ",
	"Egypt":                     "EG",
	"Egypt, Arab Rep.":          "EG",
	"Iran":                      "IR",
	"Iran, Islamic Rep.":        "IR",
	"Syria":                     "SY",
	"Syrian Arab Republic":      "SY",
	"Yemen":                     "YE",
	"Yemen, Rep.":               "YE",
	"Venezuela":                 "VE",
	"Venezuela, RB":             "VE",
	"Gambia":                    "GM",
	"Gambia, The":               "GM",

	// Disputed or partially recognized territories.
	"Palestinian Territories": "PS",
	"State of Palestine":      "PS",
	"Somaliland Region":       "SO",

	// Remaining countries and territories seen in report editions.
	"Puerto Rico": "PR",
	"Qatar":       "QA",
	"Oman":        "OM",
	"Guyana":      "GY",
	"Angola":      "AO",
	"Belize":      "BZ",
	"Bhutan":      "BT",
	"Cuba":        "CU",
	"Djibouti":    "DJ",
	"Somalia":     "SO",
	"Sudan":       "SD",
	"Suriname":    "SR",
}

// Normalize trims whitespace and strips the trailing footnote asterisk the
// happiness report attaches to some country names ("Luxembourg*").
func Normalize(name string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), "*"))
}

// Code resolves a raw country name to its World Bank code. The name is
// normalized before lookup. ok is false when the name is unreconciled.
func Code(name string) (code string, ok bool) {
	code, ok = nameToCode[Normalize(name)]
	return code, ok
}

// Coverage returns the number of distinct raw spellings the table resolves.
// Tracked over releases as a data-quality metric.
func Coverage() int {
	return len(nameToCode)
}

// FormatUnmatched renders a sorted, comma-separated list of unmatched names
// for operator reports, truncated to max entries when the set is large.
func FormatUnmatched(names []string, max int) string {
	if len(names) == 0 {
		return ""
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	if max > 0 && len(sorted) > max {
		omitted := len(sorted) - max
		return fmt.Sprintf("%s, ... (%d more)",
			strings.Join(sorted[:max], ", "), omitted)
	}
	return strings.Join(sorted, ", ")
}
