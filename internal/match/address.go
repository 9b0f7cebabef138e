// Package match decides whether a search result's address plausibly
// belongs to the requested place. The upstream service happily returns
// same-named businesses in other cities; typed-mode searches filter
// those out with this predicate.
package match

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var wordRe = regexp.MustCompile(`[a-zA-Z]+`)

// foldDiacritics decomposes to NFD, drops combining marks, recomposes.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases and strips diacritics, so "Nîmes" and "nimes"
// compare equal.
func normalize(s string) string {
	s = strings.ToLower(s)
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		return s
	}
	return folded
}

// AddressMatchesPlace reports whether the place name occurs in the
// address as a whole alphabetic token, or immediately followed by a
// comma. Both sides are case-folded and diacritic-stripped first.
func AddressMatchesPlace(address, place string) bool {
	if address == "" || place == "" {
		return false
	}

	addrNorm := normalize(address)
	placeNorm := normalize(place)

	tokens := wordRe.FindAllString(addrNorm, -1)
	if slices.Contains(tokens, placeNorm) {
		return true
	}
	return strings.Contains(addrNorm, placeNorm+",")
}
