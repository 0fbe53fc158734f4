package scoring

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Rule names reported by Resolve.
const (
	RuleExact     = "exact"
	RuleLegacy    = "legacy_text"
	RuleNegation  = "negation"
	RuleYesNo     = "yes_no"
	RuleNumeric   = "numeric_threshold"
	RuleSymbol    = "symbol_keyword"
	RuleUnchanged = "unchanged"
)

// legacyOptionCodes maps display labels stored by older clients to the
// canonical codes of the current table. "Yes" and "No" are ambiguous
// across questions and are handled by the yes/no rule instead.
var legacyOptionCodes = map[string]string{
	// q_spend_12mo
	"< $5,000":          "lt_5000",
	"$5,000 – $15,000":  "5000_15000",
	"$15,000 – $40,000": "15000_40000",
	"$40,000+":          "40000_plus",

	// q_sa_tenure
	"I don't have a sales associate": "no_sa",
	"Less than 6 months":             "lt_6_months",
	"6 – 24 months":                  "6_24_months",
	"More than 2 years":              "2_plus_years",

	// q_sa_switches
	"No switches":    "no_switches",
	"1 – 2 switches": "1_2_switches",
	"3+ switches":    "3_plus_switches",

	// q_purchase_mix, including the single-choice tiers of the first table
	"Accessories & SLGs":           "accessories_slgs",
	"Leather goods":                "leather_goods",
	"Ready-to-wear & shoes":        "rtw_shoes",
	"Fine jewellery & watches":     "fine_jewellery_watches",
	"Home":                         "home",
	"Equestrian":                   "equestrian",
	"Mostly accessories/SLGs":      "accessories_slgs",
	"Leather goods + accessories":  "leather_goods",
	"Leather goods + RTW/shoes":    "rtw_shoes",
	"Leather + RTW + jewelry/home": "fine_jewellery_watches",

	// q_visit_frequency
	"1–2 times per year":   "1_2_per_year",
	"A few times per year": "few_per_year",
	"Monthly":              "monthly",
	"Weekly or more":       "weekly_plus",

	// q_store_vibe
	"Direct & transactional": "direct_transactional",
	"Friendly & chatty":      "friendly_chatty",
	"Patient & engaged":      "patient_engaged",
}

// Preferred keys for a bare yes/no answer, checked before any other key
// with the matching suffix.
var (
	preferredYes = []string{"wishlist_yes", "tester_yes", "ask_cancellations_yes"}
	preferredNo  = []string{"wishlist_no", "tester_no", "ask_cancellations_no"}
)

var (
	amountPattern = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})+|\$?\d+`)
	lessPattern   = regexp.MustCompile(`\bless\b`)
)

// Spend buckets used by the numeric and symbol rules.
const (
	spendUnder5k   = "lt_5000"
	spend5kTo15k   = "5000_15000"
	spend15kTo40k  = "15000_40000"
	spendOver40k   = "40000_plus"
	spendNoneAtAll = "no_shops"
)

// Resolution is the outcome of resolving one selected option.
type Resolution struct {
	Code string `json:"code"`
	Rule string `json:"rule"`
}

type resolveRule struct {
	name  string
	apply func(points map[string]int, raw, lower string) (string, bool)
}

// resolveRules run in order; the first rule that applies wins.
var resolveRules = []resolveRule{
	{RuleExact, matchExact},
	{RuleLegacy, matchLegacy},
	{RuleNegation, matchNegation},
	{RuleYesNo, matchYesNo},
	{RuleNumeric, matchAmount},
	{RuleSymbol, matchSymbol},
}

// ResolveOption maps a raw selected option to a code of the question's
// points table. Text no rule understands is returned unchanged and so
// scores 0.
func ResolveOption(points map[string]int, raw string) string {
	return Resolve(points, raw).Code
}

// Resolve is ResolveOption that also reports which rule matched.
func Resolve(points map[string]int, raw string) Resolution {
	lower := strings.ToLower(raw)
	for _, r := range resolveRules {
		if code, ok := r.apply(points, raw, lower); ok {
			return Resolution{Code: code, Rule: r.name}
		}
	}
	return Resolution{Code: raw, Rule: RuleUnchanged}
}

func matchExact(points map[string]int, raw, _ string) (string, bool) {
	_, ok := points[raw]
	return raw, ok
}

func matchLegacy(_ map[string]int, raw, _ string) (string, bool) {
	code, ok := legacyOptionCodes[raw]
	return code, ok
}

// matchNegation applies to every question, not only spend. Option text
// such as "Haven't visited yet" on an unrelated question also lands on
// no_shops and therefore scores 0 there.
func matchNegation(_ map[string]int, _, lower string) (string, bool) {
	if strings.Contains(lower, "haven't") || strings.Contains(lower, "havent") {
		return spendNoneAtAll, true
	}
	return "", false
}

func matchYesNo(points map[string]int, _, lower string) (string, bool) {
	switch strings.TrimSpace(lower) {
	case "yes":
		return findSuffixed(points, "_yes", preferredYes)
	case "no":
		return findSuffixed(points, "_no", preferredNo)
	}
	return "", false
}

func findSuffixed(points map[string]int, suffix string, preferred []string) (string, bool) {
	for _, key := range preferred {
		if _, ok := points[key]; ok {
			return key, true
		}
	}
	keys := make([]string, 0, len(points))
	for key := range points {
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

// matchAmount classifies the last number in the text into a spend bucket.
func matchAmount(_ map[string]int, raw, _ string) (string, bool) {
	found := amountPattern.FindAllString(raw, -1)
	if len(found) == 0 {
		return "", false
	}
	digits := strings.NewReplacer("$", "", ",", "").Replace(found[len(found)-1])
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Only overflow can fail here; treat it as the top bucket.
		amount = math.MaxInt64
	}
	switch {
	case amount < 5000:
		return spendUnder5k, true
	case amount < 15000:
		return spend5kTo15k, true
	case amount < 40000:
		return spend15kTo40k, true
	default:
		return spendOver40k, true
	}
}

func matchSymbol(_ map[string]int, raw, lower string) (string, bool) {
	switch {
	case strings.Contains(raw, "+"):
		return spendOver40k, true
	case strings.Contains(raw, "<") || lessPattern.MatchString(lower):
		return spendUnder5k, true
	case strings.ContainsAny(raw, "–—-") || strings.Contains(lower, " to "):
		// A range with no parseable numbers; the middle bucket is a guess.
		return spend5kTo15k, true
	}
	return "", false
}
