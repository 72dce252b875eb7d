// Package normalize canonicalizes raw column headers before any comparison.
// Header is pure and idempotent: Header(Header(x)) == Header(x).
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the words of a normalized header.
const Separator = '_'

const tatweel = 'ـ'

// arabicFold maps letter variants onto one representative so spellings that
// differ only in hamza placement, taa marbuta or final yaa compare equal.
var arabicFold = map[rune]rune{
	'أ': 'ا',
	'إ': 'ا',
	'آ': 'ا',
	'ٱ': 'ا',
	'ة': 'ه',
	'ي': 'ى',
	'ی': 'ى',
}

// markStripper decomposes (compatibility form, so presentation ligatures and
// full-width letters split too), drops non-spacing marks such as harakat and
// composed hamza, then recomposes. Transformers carry state, so one is built
// per call.
func markStripper() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Header normalizes a raw header: lowercase, trim, strip diacritics, fold
// Arabic letter variants, drop everything that is not a letter/digit of the
// Latin or Arabic script, and collapse whitespace/hyphen/underscore runs into
// a single underscore. Empty input yields "".
func Header(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if stripped, _, err := transform.String(markStripper(), s); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if isSeparator(r) {
			pendingSep = true
			continue
		}
		if folded, ok := arabicFold[r]; ok {
			r = folded
		}
		if !keep(r) {
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteRune(Separator)
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits a normalized header into keywords, dropping tokens shorter
// than minLen runes.
func Tokens(normalized string, minLen int) []string {
	if normalized == "" {
		return nil
	}
	parts := strings.Split(normalized, string(Separator))
	out := parts[:0]
	for _, p := range parts {
		if utf8.RuneCountInString(p) >= minLen {
			out = append(out, p)
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == tatweel:
		return false
	case unicode.IsDigit(r):
		return true
	case unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r):
		return true
	}
	return false
}
