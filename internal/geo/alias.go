package geo

import "strings"

// stateAliases canonicalizes state name variants returned by the
// external geocoder.
var stateAliases = map[string]string{
	"ap":             "Andhra Pradesh",
	"andhrapradesh":  "Andhra Pradesh",
	"ts":             "Telangana",
	"tg":             "Telangana",
	"tn":             "Tamil Nadu",
	"tamilnadu":      "Tamil Nadu",
	"ka":             "Karnataka",
	"kl":             "Kerala",
	"mh":             "Maharashtra",
	"up":             "Uttar Pradesh",
	"uttarpradesh":   "Uttar Pradesh",
	"mp":             "Madhya Pradesh",
	"madhyapradesh":  "Madhya Pradesh",
	"wb":             "West Bengal",
	"westbengal":     "West Bengal",
	"dl":             "Delhi",
	"nct of delhi":   "Delhi",
	"gj":             "Gujarat",
	"rj":             "Rajasthan",
	"pb":             "Punjab",
	"hr":             "Haryana",
	"br":             "Bihar",
	"od":             "Odisha",
	"orissa":         "Odisha",
	"jk":             "Jammu and Kashmir",
	"uk":             "Uttarakhand",
	"uttaranchal":    "Uttarakhand",
	"cg":             "Chhattisgarh",
	"chattisgarh":    "Chhattisgarh",
	"jh":             "Jharkhand",
	"as":             "Assam",
	"hp":             "Himachal Pradesh",
	"pondicherry":    "Puducherry",
	"py":             "Puducherry",
}

// CanonicalState maps a state name variant to its canonical form.
// Unknown values are returned title-cased.
func CanonicalState(raw string) string {
	trimmed := strings.TrimSpace(raw)
	key := strings.ToLower(trimmed)
	if canonical, ok := stateAliases[key]; ok {
		return canonical
	}
	key = strings.ReplaceAll(key, " ", "")
	if canonical, ok := stateAliases[key]; ok {
		return canonical
	}
	return titleCase(trimmed)
}

// CanonicalDistrict normalizes district names to title case.
func CanonicalDistrict(raw string) string {
	return titleCase(strings.TrimSpace(raw))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
