package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold returns the case-folded, trimmed form of value for comparisons.
// A fresh Caser is used per call because casers carry state.
func Fold(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}

// FoldSet builds a membership set of folded values, skipping blanks.
func FoldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := Fold(v); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Title renders an upstream enum such as NOT_YET_RELEASED as "Not Yet Released".
func Title(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(value))
}
