package classify

import (
	"strings"

	"github.com/saoki0913/career-compass-retrieval/internal/intent"
	"github.com/saoki0913/career-compass-retrieval/pkg/types"
)

// ambiguousOrder fixes iteration order over intent.AmbiguousRules so two
// co-occurring ambiguous families (e.g. "news" and "career" in the same
// chunk) resolve deterministically.
var ambiguousOrder = []string{"message", "news", "career"}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// resolveAmbiguous applies spec §4.5's ambiguity rules. It returns ok=false
// when an ambiguous token is present but its required context is absent
// (message, career), in which case the caller falls through to ordinary
// rule matching; "news" always resolves once its token is present.
func resolveAmbiguous(lowerAll string) (types.ContentType, bool) {
	for _, key := range ambiguousOrder {
		rule, exists := intent.AmbiguousRules[key]
		if !exists || !containsAny(lowerAll, rule.Tokens) {
			continue
		}
		switch key {
		case "news":
			switch {
			case containsAny(lowerAll, rule.PressContext):
				return rule.PressIntent, true
			case containsAny(lowerAll, rule.IRContext):
				return rule.IRIntent, true
			default:
				return rule.Fallback, true
			}
		default: // message, career
			if containsAny(lowerAll, rule.Context) {
				return rule.Intent, true
			}
		}
	}
	return "", false
}

// genericMatches tests every profile's URL patterns against url and every
// profile's strong+weak keywords against heading/text, per spec §4.5 step 1.
func genericMatches(url, heading, text string) []types.ContentType {
	lowerURL := strings.ToLower(url)
	lowerRest := strings.ToLower(heading + " " + text)

	var matches []types.ContentType
	for _, ct := range intent.ContentTypesNew {
		profile := intent.Profiles[ct]
		if containsAny(lowerURL, profile.URLPatterns) {
			matches = append(matches, ct)
			continue
		}
		if containsAny(lowerRest, profile.StrongKeywords) || containsAny(lowerRest, profile.WeakKeywords) {
			matches = append(matches, ct)
		}
	}
	return matches
}

// classifyRule is the pure rule-based pass (spec §4.5 steps 1-3 plus
// ambiguity overrides). ok is false when the chunk is ambiguous (≥2
// matches, no ambiguity-rule resolution) or unknown (0 matches, no
// sourceChannel), meaning the caller should defer to the LLM.
func classifyRule(input ChunkInput, sourceChannel types.ContentType) (types.ContentType, bool) {
	lowerAll := strings.ToLower(input.SourceURL + " " + input.Heading + " " + input.Text)
	if ct, ok := resolveAmbiguous(lowerAll); ok {
		return ct, true
	}

	matches := genericMatches(input.SourceURL, input.Heading, input.Text)
	switch len(matches) {
	case 1:
		return matches[0], true
	case 0:
		if sourceChannel != "" {
			return sourceChannel, true
		}
		return "", false
	default:
		return "", false
	}
}
