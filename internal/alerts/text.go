package alerts

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/soaringjerry/Scamwatch/internal/identifier"
)

const maxSummaryLen = 500

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Script and style contents are dropped.
func stripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if t := string(name); t == "script" || t == "style" {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if t := string(name); (t == "script" || t == "style") && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

var phoneMention = regexp.MustCompile(`(?:\+?254|\b0)[\s-]?[17]\d{2}[\s-]?\d{3}[\s-]?\d{3}\b`)

// extractPhones finds Kenyan mobile numbers in text and returns them
// normalized and de-duplicated in order of appearance.
func extractPhones(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range phoneMention.FindAllString(text, -1) {
		p, err := identifier.NormalizePhone(m)
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
