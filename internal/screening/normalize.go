package screening

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes and drops combining marks, so "José" becomes "Jose".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// honorific titles and name particles stripped from the start of personal names
var (
	personalTitles = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "dr": true,
		"prof": true, "sir": true, "dame": true,
	}
	personalParticles = map[string]bool{
		"van": true, "von": true, "de": true, "da": true,
		"di": true, "du": true, "la": true, "le": true, "el": true,
	}
	personalSuffixes = map[string]bool{
		"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
	}
	personalSuffixWords = map[string]bool{
		"junior": true, "senior": true,
	}
	companySuffixes = map[string]bool{
		"inc": true, "incorporated": true, "corp": true, "corporation": true,
		"co": true, "company": true, "ltd": true, "limited": true,
		"llc": true, "llp": true, "pllc": true,
		"gmbh": true, "ag": true, "sa": true, "sas": true, "pty": true,
		"bv": true, "nv": true, "plc": true, "sl": true,
		"as": true, "oas": true, "aka": true,
	}
)

// Normalize transliterates a name to Latin script, strips diacritics,
// lowercases, replaces every non-alphanumeric character with a space and
// collapses whitespace. It is idempotent and never fails; characters with
// no transliteration pass through unchanged.
//
// "Путин" -> "putin", "José García" -> "jose garcia",
// "Vladimir-Putin" -> "vladimir putin".
func Normalize(raw string) string {
	s := unidecode.Unidecode(raw)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			// split on the separator rather than merging adjacent words
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CleanPersonal removes honorific prefixes and name particles anchored at
// the start, and generational suffixes anchored at the end, of an already
// normalized personal name. A single-token name is left alone, so "mr"
// stays "mr". "dr john smith jr" -> "john smith".
func CleanPersonal(name string) string {
	tokens := strings.Fields(strings.ToLower(name))

	if len(tokens) > 1 && personalTitles[tokens[0]] {
		tokens = tokens[1:]
	}
	if len(tokens) > 1 && personalParticles[tokens[0]] {
		tokens = tokens[1:]
	}
	if n := len(tokens); n > 1 && personalSuffixes[tokens[n-1]] {
		tokens = tokens[:n-1]
	}
	if n := len(tokens); n > 1 && personalSuffixWords[tokens[n-1]] {
		tokens = tokens[:n-1]
	}
	return strings.Join(tokens, " ")
}

// CleanCompany lowercases and strips one trailing business suffix, e.g.
// "apple inc" -> "apple". A trailing "pty ltd" is removed as a unit.
func CleanCompany(name string) string {
	tokens := strings.Fields(strings.ToLower(name))

	if n := len(tokens); n > 1 && companySuffixes[tokens[n-1]] {
		tokens = tokens[:n-1]
		// "pty ltd" leaves a dangling "pty" after dropping "ltd"
		if n = len(tokens); n > 1 && tokens[n-1] == "pty" {
			tokens = tokens[:n-1]
		}
	}
	return strings.Join(tokens, " ")
}

// TokensForIndex generates the token set used for indexed prefix search:
// every whitespace-separated word of length >= 2 plus every prefix of
// length >= 3 of that word. The scorer does not use these.
func TokensForIndex(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	for _, word := range strings.Fields(normalized) {
		r := []rune(word)
		if len(r) < 2 {
			continue
		}
		add(word)
		for i := 3; i < len(r); i++ {
			add(string(r[:i]))
		}
	}
	return tokens
}
