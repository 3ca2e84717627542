package consent

import (
	"regexp"
	"strings"
)

// Result is the three-valued outcome of a yes/no micro-intent classification.
type Result string

const (
	Yes     Result = "yes"
	No      Result = "no"
	Unknown Result = "unknown"
)

// Classifier maps a caller transcript to yes/no/unknown. Implementations
// must be deterministic for the same input; the gate may consult a secondary
// classifier with the same contract when the primary returns Unknown.
type Classifier func(transcript string) Result

var (
	yesRe = regexp.MustCompile(`(?i)\b(y(es)?|yeah|yep|affirmative|correct|sure|ok(ay)?|i do|please|go ahead)\b`)
	noRe  = regexp.MustCompile(`(?i)\b(n(o)?|nope|negative|don'?t|do not|nah|stop|decline|not now)\b`)
)

// Classify is the default deterministic classifier. Yes wins when both
// patterns match ("yes, don't worry" counts as consent).
func Classify(transcript string) Result {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return Unknown
	}
	if yesRe.MatchString(t) {
		return Yes
	}
	if noRe.MatchString(t) {
		return No
	}
	return Unknown
}
