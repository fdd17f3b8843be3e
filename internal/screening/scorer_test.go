package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

func indexedRecord(t *testing.T, name string, aliases ...string) *IndexedRecord {
	t.Helper()
	blob := ""
	if len(aliases) > 0 {
		blob = aliases[0]
		for _, a := range aliases[1:] {
			blob += "|" + a
		}
	}
	snap := BuildSnapshot([]models.SanctionRecord{{
		ID:           "test-1",
		ListType:     "EU",
		OriginalName: name,
		AliasNames:   blob,
		EntityType:   models.EntityTypeIndividual,
		IsActive:     true,
	}}, testLogger())
	require.Equal(t, 1, snap.Records())
	return snap.records[0]
}

func TestScoreExactMatch(t *testing.T) {
	rec := indexedRecord(t, "Vladimir Putin", "Vladimir Vladimirovich Putin")

	score, basis := Score("vLaDiMiR pUtIn", rec, KindIndividual, true)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, BasisExact, basis)

	// exact via alias
	score, basis = Score("Vladimir Vladimirovich Putin", rec, KindIndividual, true)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, BasisExact, basis)

	// exact after transliteration
	score, _ = Score("Владимир Путин", rec, KindIndividual, true)
	assert.Equal(t, 100.0, score)
}

func TestScoreCleanedExactMatch(t *testing.T) {
	rec := indexedRecord(t, "Apple Inc.")

	score, basis := Score("Apple", rec, KindCompany, true)
	assert.Equal(t, 98.0, score)
	assert.Equal(t, BasisExact, basis)

	// §8: cleaned-exact or substring path must clear a compliance threshold
	assert.GreaterOrEqual(t, score, 85.0)
}

func TestScorePersonalCleaning(t *testing.T) {
	rec := indexedRecord(t, "Dr. John Smith Jr.")

	score, _ := Score("John Smith", rec, KindIndividual, true)
	assert.Equal(t, 98.0, score)
}

func TestScorePartialName(t *testing.T) {
	rec := indexedRecord(t, "Vladimir Putin", "Vladimir Vladimirovich Putin")

	score, basis := Score("Putin", rec, KindIndividual, true)
	assert.GreaterOrEqual(t, score, 75.0)
	assert.Equal(t, BasisSubstring, basis)
}

func TestScoreQuickRejectStillFindsSubstring(t *testing.T) {
	rec := indexedRecord(t, "Sberbank Public Joint Stock Company")

	// 8 chars against a far longer cleaned name: quick-reject branch, but
	// containment rescues it
	score, basis := Score("Sberbank", rec, KindCompany, true)
	assert.GreaterOrEqual(t, score, 75.0)
	assert.LessOrEqual(t, score, 90.0)
	assert.Equal(t, BasisSubstring, basis)
}

func TestScoreQuickRejectUnrelated(t *testing.T) {
	rec := indexedRecord(t, "Sberbank Public Joint Stock Company")

	score, _ := Score("Zed", rec, KindCompany, true)
	assert.Equal(t, 0.0, score)
}

func TestScoreEditDistance(t *testing.T) {
	rec := indexedRecord(t, "John Smith")

	score, basis := Score("John Smyth", rec, KindIndividual, false)
	assert.GreaterOrEqual(t, score, 75.0)
	assert.Less(t, score, 98.0)
	assert.Equal(t, BasisEditDistance, basis)
}

func TestScorePhonetic(t *testing.T) {
	rec := indexedRecord(t, "Robert")

	// edit distance is too far (2 of 6) but the names sound alike
	score, basis := Score("Rupert", rec, KindIndividual, true)
	assert.Equal(t, 75.0, score)
	assert.Equal(t, BasisPhonetic, basis)

	score, _ = Score("Rupert", rec, KindIndividual, false)
	assert.Equal(t, 0.0, score)
}

func TestScoreTokenReorder(t *testing.T) {
	rec := indexedRecord(t, "Smith John")

	score, _ := Score("John Smith", rec, KindIndividual, false)
	assert.GreaterOrEqual(t, score, 60.0)
}

func TestScoreDegenerateQuery(t *testing.T) {
	rec := indexedRecord(t, "Vladimir Putin")

	for _, q := range []string{"", "???", "  ", "Mr"} {
		score, _ := Score(q, rec, KindIndividual, true)
		assert.Equal(t, 0.0, score, "query %q", q)
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 1, LevenshteinDistance("smith", "smyth"))
	assert.Equal(t, 0, LevenshteinDistance("smith", "smith"))
	assert.Equal(t, 5, LevenshteinDistance("", "smith"))

	assert.GreaterOrEqual(t, LevenshteinRatio("smith", "smyth"), 75.0)
	assert.Equal(t, 100.0, LevenshteinRatio("", ""))
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 100.0, TokenOverlap("john smith", "smith john"))
	assert.Equal(t, 0.0, TokenOverlap("john", ""))
	assert.InDelta(t, 33.33, TokenOverlap("john smith", "john doe"), 0.01)
}

func TestSubstringMatch(t *testing.T) {
	ok, coverage := substringMatch("sberbank", "sberbank of russia")
	assert.True(t, ok)
	assert.InDelta(t, 44.44, coverage, 0.01)

	ok, _ = substringMatch("gazprom", "sberbank")
	assert.False(t, ok)
}
