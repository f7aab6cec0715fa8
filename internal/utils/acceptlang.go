package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// DetermineLocale picks the response locale. An explicit query value wins
// over the Accept-Language header; unsupported or unparsable input falls
// back to def. Supported values are base languages such as "en" or "sw".
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	ordered := []string{strings.ToLower(def)}
	for _, s := range supported {
		s = strings.ToLower(s)
		if s != ordered[0] {
			ordered = append(ordered, s)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, s := range ordered {
		tags = append(tags, language.Make(s))
	}
	_, idx := language.MatchStrings(language.NewMatcher(tags), queryLang, acceptLang)
	if idx < 0 || idx >= len(ordered) {
		return ordered[0]
	}
	return ordered[idx]
}
