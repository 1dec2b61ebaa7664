package ai

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseScore parses the classifier's "Score|Reason" response. A missing
// separator still yields a score when the leading token is numeric, with a
// placeholder reason. A non-numeric score is an error.
func ParseScore(raw string) (int, string, error) {
	raw = strings.TrimSpace(raw)
	scorePart, reason, found := strings.Cut(raw, "|")
	if !found {
		scorePart = firstToken(raw)
		reason = "No reason provided"
	}

	score, err := strconv.Atoi(strings.TrimSpace(scorePart))
	if err != nil {
		return 0, "", fmt.Errorf("unparseable urgency score %q", raw)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, strings.TrimSpace(reason), nil
}

// StripCodeFences removes a surrounding markdown code fence, with or
// without a language tag, from a model response.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "{") {
		// drop the language tag line, e.g. ```json
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
