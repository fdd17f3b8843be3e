package screening

import "strings"

// soundexDigits maps consonants to the standard Soundex digit table.
var soundexDigits = map[byte]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// Soundex encodes a name phonetically: the first letter is kept verbatim,
// subsequent letters map through the digit table, vowels and repeated
// digits are skipped, and the code is padded or truncated to 4 characters.
// "Smith" and "Smyth" both encode to "S530".
func Soundex(name string) string {
	name = strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if name == "" {
		return ""
	}

	code := []byte{name[0]}
	prev := soundexDigits[name[0]] // zero value means "no digit"

	for i := 1; i < len(name); i++ {
		c := name[i]
		digit := soundexDigits[c]
		if digit != 0 && digit != prev {
			code = append(code, digit)
		}
		if !strings.ContainsRune("AEIOUYHW", rune(c)) {
			prev = digit
		}
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code[:4])
}

// Metaphone is a deliberately simplified, non-standard phonetic encoder:
// consecutive vowels collapse to a single 'A' marker, C/G/J/K/Q/S/X/Z map
// to X, D/T to T, F/V to F, duplicate consecutive consonants are skipped,
// and the code is truncated to 4 characters. Codes are not
// compatible with reference Metaphone implementations.
func Metaphone(name string) string {
	name = strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if name == "" {
		return ""
	}

	var code []byte
	prevWasVowel := false

	for i := 0; i < len(name); i++ {
		c := name[i]
		if i == 0 {
			if c == 'K' && len(name) > 1 && name[1] == 'N' {
				code = append(code, 'N')
			} else {
				code = append(code, c)
			}
			prevWasVowel = isVowel(c)
			continue
		}

		// duplicate consecutive consonants
		if len(code) > 0 && code[len(code)-1] == c && !isVowel(c) {
			continue
		}

		if isVowel(c) {
			if !prevWasVowel {
				code = append(code, 'A')
			}
			prevWasVowel = true
			continue
		}
		prevWasVowel = false

		switch {
		case c == 'B' && i == len(name)-1 && name[i-1] == 'M':
			// silent trailing B as in "lamb"
		case strings.IndexByte("CGJKQSXZ", c) >= 0:
			code = append(code, 'X')
		case c == 'D' || c == 'T':
			code = append(code, 'T')
		case c == 'F' || c == 'V':
			code = append(code, 'F')
		default:
			code = append(code, c)
		}
	}

	if len(code) > 4 {
		code = code[:4]
	}
	return string(code)
}

func isVowel(c byte) bool {
	return c == 'A' || c == 'E' || c == 'I' || c == 'O' || c == 'U'
}
