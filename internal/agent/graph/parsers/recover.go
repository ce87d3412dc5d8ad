package parsers

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/negotiation-sim/server/internal/agent/model"
)

var (
	textField     = fieldPattern("text")
	approachField = fieldPattern("approach")
)

func fieldPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?:"` + key + `"|'` + key + `'|\b` + key + `)\s*:\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')`)
}

// recoverSuggestionPairs pulls text/approach values out of text that no longer
// parses as JSON and pairs them by position.
func recoverSuggestionPairs(s string) []model.Suggestion {
	texts := fieldValues(textField, s)
	approaches := fieldValues(approachField, s)

	n := min(len(texts), len(approaches), model.SuggestionSetSize)
	out := make([]model.Suggestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Suggestion{Text: texts[i], Approach: approaches[i]})
	}
	return out
}

func fieldValues(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" || m[2] == "" {
			out = append(out, unescapeDouble(m[1]))
			continue
		}
		out = append(out, strings.ReplaceAll(m[2], `\'`, `'`))
	}
	return out
}

func unescapeDouble(v string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+v+`"`), &out); err != nil {
		return v
	}
	return out
}
