package classification

import (
	"encoding/json"
	"strings"
)

// strategy tries to derive a Result from raw model text. The bool reports
// whether the strategy produced an answer.
type strategy func(rawText string) (Result, bool)

var (
	dangerTokens   = []string{"venomous", "dangerous", "poisonous"}
	negationTokens = []string{"not", "non"}
	mildTokens     = []string{"mildly", "slightly"}
)

// defaultStrategies is evaluated in order; the first hit wins.
var defaultStrategies = []strategy{
	extractEmbeddedObject,
	scanKeywords,
}

// Normalize converts a free-form model reply into a Result. It never fails:
// when nothing can be extracted the verdict is StatusUnknown and the
// description is the raw text.
func Normalize(rawText string) Result {
	return normalizeWith(rawText, defaultStrategies)
}

func normalizeWith(rawText string, strategies []strategy) Result {
	for _, apply := range strategies {
		if result, ok := safeApply(apply, rawText); ok {
			return result
		}
	}
	return Result{Status: StatusUnknown, Description: rawText}
}

func safeApply(apply strategy, rawText string) (result Result, ok bool) {
	defer func() {
		if recover() != nil {
			result, ok = Result{}, false
		}
	}()
	return apply(rawText)
}

type embeddedObject struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// extractEmbeddedObject decodes the span between the first '{' and the last
// '}' and accepts it only when the status is a known verdict.
func extractEmbeddedObject(rawText string) (Result, bool) {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start == -1 || end == -1 || end < start {
		return Result{}, false
	}

	var obj embeddedObject
	if err := json.Unmarshal([]byte(rawText[start:end+1]), &obj); err != nil {
		return Result{}, false
	}

	status, ok := ParseStatus(obj.Status)
	if !ok {
		return Result{}, false
	}

	description := obj.Description
	if strings.TrimSpace(description) == "" {
		description = rawText
	}
	return Result{Status: status, Description: description}, true
}

// scanKeywords classifies by the first line mentioning danger. Later lines are
// never consulted. It always succeeds.
func scanKeywords(rawText string) (Result, bool) {
	result := Result{Status: StatusUnknown, Description: rawText}
	for _, line := range strings.Split(rawText, "\n") {
		lower := strings.ToLower(line)
		if !containsAny(lower, dangerTokens) {
			continue
		}
		switch {
		case containsAny(lower, negationTokens):
			result.Status = StatusNotVenomous
		case containsAny(lower, mildTokens):
			result.Status = StatusMildlyVenomous
		default:
			result.Status = StatusVenomous
		}
		return result, true
	}
	return result, true
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
