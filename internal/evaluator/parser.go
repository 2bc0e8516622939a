package evaluator

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	scorePrefix  = "SCORE:"
	reasonPrefix = "REASON:"

	// ReasonUnparsed is reported when a reply carries no extractable score.
	ReasonUnparsed = "No reason provided"
	// ReasonError is reported when the model call itself failed.
	ReasonError = "Evaluation error"
)

// Result is one paper's parsed evaluation. Parsed is false when no numeric
// score could be extracted from the reply; the score then stays at zero so a
// single malformed reply degrades instead of aborting the batch.
type Result struct {
	Score  float64
	Reason string
	Parsed bool
}

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// ParseReply extracts a score and reason from a model reply. The first line
// starting with "SCORE:" yields the first number found in its remainder,
// tolerating shapes like "8", "8/10" or "~8.5". The first line starting with
// "REASON:" yields the trimmed remainder. A reply without an extractable
// score parses to the zero result with ReasonUnparsed.
func ParseReply(raw string) Result {
	var (
		score       float64
		scoreFound  bool
		reason      string
		reasonFound bool
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case !scoreFound && strings.HasPrefix(line, scorePrefix):
			remainder := strings.TrimPrefix(line, scorePrefix)
			token := numberPattern.FindString(remainder)
			if token == "" {
				continue
			}
			value, err := strconv.ParseFloat(token, 64)
			if err != nil {
				continue
			}
			score = value
			scoreFound = true
		case !reasonFound && strings.HasPrefix(line, reasonPrefix):
			reason = strings.TrimSpace(strings.TrimPrefix(line, reasonPrefix))
			reasonFound = true
		}
	}

	if !scoreFound {
		return Result{Score: 0, Reason: ReasonUnparsed}
	}

	if reason == "" {
		reason = ReasonUnparsed
	}

	return Result{Score: score, Reason: reason, Parsed: true}
}
