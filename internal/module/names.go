package module

import (
	"regexp"
	"strings"
)

const maxEntityNameLength = 63

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// CleanName turns an arbitrary string into a catalog entity name: at most 63
// characters, runs of other characters collapsed to '-', no leading or trailing
// '-', and never empty.
func CleanName(input string) string {
	result := input
	if len(result) > maxEntityNameLength {
		result = result[:maxEntityNameLength]
	}
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if result == "" {
		return "a"
	}
	return result
}

// PrefixWithDot makes a relative reference explicit ("a/b" -> "./a/b").
func PrefixWithDot(p string) string {
	if strings.HasPrefix(p, ".") {
		return p
	}
	return "./" + p
}
