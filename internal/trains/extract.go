package trains

import (
	"strings"
	"unicode"
)

// trainTypes lists the recognized long-distance and regional train
// categories. Ordered so longer codes match before their prefixes
// (ICE before IC).
var trainTypes = []string{"ICE", "IRE", "TGV", "IC", "EC", "RE", "RB", "RJ", "NJ"}

// ExtractTrainNumber returns the first whitespace-delimited all-digit token
// of a line label, e.g. "ICE 513" yields "513". A label without such a token
// has no extractable number and cannot be indexed.
func ExtractTrainNumber(label string) (string, bool) {
	for _, token := range strings.Fields(label) {
		if isAllDigits(token) {
			return token, true
		}
	}
	return "", false
}

// ExtractTrainType returns the train category code the uppercased label
// starts with, e.g. "ICE 513" yields "ICE". Unrecognized labels yield
// ok=false but remain indexable by number.
func ExtractTrainType(label string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(label))
	for _, trainType := range trainTypes {
		if strings.HasPrefix(upper, trainType) {
			return trainType, true
		}
	}
	return "", false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// digitsOnly strips every non-digit rune from s.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
