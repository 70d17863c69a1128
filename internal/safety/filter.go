package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// CONTENT FILTER
// =============================================================================

// harmfulTerms flag content that must never go out regardless of the
// user's own style.
var harmfulTerms = []string{
	"kill yourself", "commit suicide", "self harm",
	"i hate you", "you're worthless", "you're stupid",
	"racist", "sexist", "homophobic", "transphobic",
	"nazi", "hitler", "white supremacy",
}

// inappropriateTerms flag content unsuitable for an automated reply.
var inappropriateTerms = []string{
	"porn", "sex", "nude", "explicit",
	"drugs", "cocaine", "heroin", "weed",
	"violence", "murder", "assault",
}

var (
	harmfulPatterns       = compilePatterns(harmfulTerms)
	inappropriatePatterns = compilePatterns(inappropriateTerms)
)

func compilePatterns(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		out[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(t))
	}
	return out
}

// FilterResult is the outcome of one content filter pass.
type FilterResult struct {
	Safe   bool
	Reason string
}

// FilterContent checks response text against the harmful and inappropriate
// term lists. Safe iff neither list matches; harmful matches take
// precedence in the reported reason.
func FilterContent(content string) FilterResult {
	lower := strings.ToLower(content)

	var harmful, inappropriate []string
	for i, p := range harmfulPatterns {
		if p.MatchString(lower) {
			harmful = append(harmful, harmfulTerms[i])
		}
	}
	for i, p := range inappropriatePatterns {
		if p.MatchString(lower) {
			inappropriate = append(inappropriate, inappropriateTerms[i])
		}
	}

	if len(harmful) > 0 {
		return FilterResult{Safe: false, Reason: fmt.Sprintf("Harmful content detected: %s", strings.Join(harmful, ", "))}
	}
	if len(inappropriate) > 0 {
		return FilterResult{Safe: false, Reason: fmt.Sprintf("Inappropriate content detected: %s", strings.Join(inappropriate, ", "))}
	}
	return FilterResult{Safe: true}
}
