package screening

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// EntityKind selects which cleaning rules apply to both sides of a
// comparison. Anything that is not a company is scored as an individual.
type EntityKind string

const (
	KindIndividual EntityKind = "individual"
	KindCompany    EntityKind = "company"
)

// MatchBasis names the signal that produced a confidence score.
type MatchBasis string

const (
	BasisExact         MatchBasis = "exact"
	BasisSubstring     MatchBasis = "substring"
	BasisEditDistance  MatchBasis = "edit_distance"
	BasisPhonetic      MatchBasis = "phonetic"
	BasisToken         MatchBasis = "token"
	BasisHumanOverride MatchBasis = "human_override"
)

// nameForms carries the precomputed normalization stages of one name, so a
// scan over tens of thousands of records does not re-normalize per pair.
type nameForms struct {
	norm         string // Normalize(raw)
	cleanPerson  string // CleanPersonal(norm)
	cleanCompany string // CleanCompany(cleanPerson)
}

func prepareForms(raw string) nameForms {
	n := Normalize(raw)
	cp := CleanPersonal(n)
	return nameForms{norm: n, cleanPerson: cp, cleanCompany: CleanCompany(cp)}
}

func (f nameForms) clean(kind EntityKind) string {
	if kind == KindCompany {
		return f.cleanCompany
	}
	return f.cleanPerson
}

// Score computes a 0-100 confidence that the query refers to the indexed
// record, combining exact, substring, edit-distance, phonetic and token
// overlap signals. usePhonetic toggles the Soundex/Metaphone candidates.
func Score(query string, rec *IndexedRecord, kind EntityKind, usePhonetic bool) (float64, MatchBasis) {
	return scoreForms(prepareForms(query), rec, kind, usePhonetic)
}

func scoreForms(query nameForms, rec *IndexedRecord, kind EntityKind, usePhonetic bool) (float64, MatchBasis) {
	if query.norm == "" {
		return 0, ""
	}

	// exact normalized match, primary or alias
	if query.norm == rec.Forms.norm {
		return 100, BasisExact
	}
	for _, alias := range rec.Aliases {
		if query.norm == alias {
			return 100, BasisExact
		}
	}

	qc := query.clean(kind)
	mc := rec.Forms.clean(kind)
	if qc == "" || mc == "" {
		// degenerate after cleaning; not an error
		return 0, ""
	}
	if qc == mc {
		return 98, BasisExact
	}

	qcLen := utf8.RuneCountInString(qc)
	mcLen := utf8.RuneCountInString(mc)

	// Quick reject for very different lengths. Substring containment still
	// has to be checked first so "Sberbank" matches "Sberbank Public Joint
	// Stock Company"; beyond that only token overlap can rescue the pair.
	if max(qcLen, mcLen) > 3*min(qcLen, mcLen) {
		if contained, coverage := substringMatch(qc, mc); contained {
			return round2(math.Min(90, 70+coverage*0.2)), BasisSubstring
		}
		for _, alias := range rec.Aliases {
			if contained, coverage := substringMatch(qc, alias); contained {
				return round2(math.Min(85, 65+coverage*0.2)), BasisSubstring
			}
		}
		if ts := TokenOverlap(qc, mc); ts >= 60 {
			return round2(math.Min(75, ts)), BasisToken
		}
		return 0, ""
	}

	var best float64
	var basis MatchBasis
	consider := func(score float64, b MatchBasis) {
		if score > best {
			best = score
			basis = b
		}
	}

	if contained, coverage := substringMatch(qc, mc); contained {
		consider(math.Min(90, 70+coverage*0.2), BasisSubstring)
	}
	for _, alias := range rec.Aliases {
		if contained, coverage := substringMatch(qc, alias); contained {
			consider(math.Min(85, 65+coverage*0.2), BasisSubstring)
		}
	}

	if ratio := LevenshteinRatio(qc, mc); ratio >= 75 {
		consider(ratio, BasisEditDistance)
	}
	for _, alias := range rec.Aliases {
		if ratio := LevenshteinRatio(qc, alias); ratio >= 75 {
			consider(ratio*0.95, BasisEditDistance)
		}
	}

	if usePhonetic {
		if sq, sm := Soundex(qc), Soundex(mc); sq != "" && sq == sm {
			consider(75, BasisPhonetic)
		}
		if mq, mm := Metaphone(qc), Metaphone(mc); mq != "" && mq == mm {
			consider(72, BasisPhonetic)
		}
	}

	if ts := TokenOverlap(qc, mc); ts > 0 {
		common := commonTokens(qc, mc)
		if adjusted := ts * (0.5 + 0.1*float64(common)); adjusted > 0 {
			consider(math.Min(75, adjusted), BasisToken)
		}
	}

	if best == 0 {
		return 0, ""
	}
	return round2(best), basis
}

// LevenshteinDistance is the classic single-character edit distance.
func LevenshteinDistance(s1, s2 string) int {
	return levenshtein.ComputeDistance(s1, s2)
}

// LevenshteinRatio maps edit distance to a 0-100 similarity:
// 100*(maxlen-dist)/maxlen. Two empty strings score 100.
func LevenshteinRatio(s1, s2 string) float64 {
	maxLen := max(utf8.RuneCountInString(s1), utf8.RuneCountInString(s2))
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(s1, s2)
	return float64(maxLen-dist) / float64(maxLen) * 100
}

// TokenOverlap is the Jaccard similarity (0-100) of the whitespace-split
// lowercase token sets of the two strings.
func TokenOverlap(s1, s2 string) float64 {
	set1 := tokenSet(s1)
	set2 := tokenSet(s2)
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	common := 0
	for tok := range set1 {
		if set2[tok] {
			common++
		}
	}
	union := len(set1) + len(set2) - common
	return float64(common) / float64(union) * 100
}

// substringMatch reports containment in either direction and the coverage
// percentage of the shorter string over the longer one.
func substringMatch(query, target string) (bool, float64) {
	if !strings.Contains(target, query) && !strings.Contains(query, target) {
		return false, 0
	}
	qLen := utf8.RuneCountInString(query)
	tLen := utf8.RuneCountInString(target)
	longer := max(qLen, tLen)
	if longer == 0 {
		return false, 0
	}
	return true, float64(min(qLen, tLen)) / float64(longer) * 100
}

func commonTokens(s1, s2 string) int {
	set2 := tokenSet(s2)
	common := 0
	for tok := range tokenSet(s1) {
		if set2[tok] {
			common++
		}
	}
	return common
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
