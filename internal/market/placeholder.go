package market

import (
	"regexp"
	"strings"

	"github.com/rickgao/polymarket-live/internal/model"
)

var (
	// Generic slot names in a question, e.g. "Will Person A win?".
	questionPlaceholder = regexp.MustCompile(
		`\b(?:individual|person|option|choice|team|player|company)\s+[a-z0-9]\b|\bleader\s+\d+\b|\bcandidate\s+[a-z]\b`)

	// Generic outcome labels, e.g. "Option 3", "B", "7".
	outcomePlaceholder = regexp.MustCompile(
		`^(?:(?:individual|leader|person|candidate|option|choice|team|player|company)\s*(?:[a-z0-9]|\d+)|[a-z]|\d+)$`)

	placeholderKeywords = []string{"test market", "placeholder", "example", "dummy", "sample"}

	// Short generic outcomes that are always real.
	binaryOutcomes = map[string]struct{}{
		"yes": {}, "no": {}, "up": {}, "down": {}, "true": {}, "false": {},
	}
)

// IsRealMarket reports whether a market has a meaningful question and at
// least one meaningful outcome.
func IsRealMarket(m model.Market) bool {
	if len(m.Outcomes) == 0 {
		return false
	}

	question := strings.ToLower(m.Question)
	if questionPlaceholder.MatchString(question) {
		return false
	}
	for _, kw := range placeholderKeywords {
		if strings.Contains(question, kw) {
			return false
		}
	}

	for _, outcome := range m.Outcomes {
		o := strings.ToLower(strings.TrimSpace(outcome))
		if _, ok := binaryOutcomes[o]; ok {
			return true
		}
		if len(o) > 1 && !outcomePlaceholder.MatchString(o) {
			return true
		}
	}
	return false
}

// FilterEvent keeps only the real markets of ev. It reports false when none
// are left.
func FilterEvent(ev model.Event) (model.Event, bool) {
	kept := make([]model.Market, 0, len(ev.Markets))
	for _, m := range ev.Markets {
		if IsRealMarket(m) {
			kept = append(kept, m)
		}
	}
	ev.Markets = kept
	return ev, len(kept) > 0
}
