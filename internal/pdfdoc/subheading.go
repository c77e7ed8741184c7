package pdfdoc

import (
	"regexp"
	"strings"
)

// boilerplateLabels appear on almost every page of the kinds of procedural
// manuals this pipeline was built for; they are never real subheadings.
var boilerplateLabels = map[string]bool{
	"general info": true, "poll worker info": true, "equipment": true,
	"set up location": true, "open location": true, "checking in voters": true,
	"update registration": true, "voting": true, "election night": true,
	"nightly closing": true, "provisional voting": true, "equipment info": true,
	"table of contents": true,
}

var titleSmallWords = map[string]bool{
	"the": true, "and": true, "or": true, "for": true, "of": true, "a": true,
	"an": true, "in": true, "to": true, "on": true, "at": true, "by": true,
	"with": true, "is": true, "are": true, "as": true, "but": true, "not": true,
}

var (
	tocDottedLeaderRE = regexp.MustCompile(`\.\s*\d+$`)
	sectionLabelRE    = regexp.MustCompile(`(?i)^Section\s+(?:One|Two|Three|Four|Five|Six|Seven|Eight|Nine|Ten|\d+)$`)
)

var bodyTextFragments = []string{
	"you will", "you can", "they will", "this is", "if the",
	"do not", "must be", "please", "may not", "should be",
}

// detectSubheading recognises a short title-case phrase as a subsection
// heading, e.g. "Voter Contacts" or "Envelope Drop Box, continued".
func detectSubheading(line string) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return ""
	}
	if boilerplateLabels[strings.ToLower(stripped)] {
		return ""
	}

	words := strings.Fields(stripped)
	nw := len(words)
	if nw < 2 || nw > 8 {
		return ""
	}

	if stripped[0] >= '0' && stripped[0] <= '9' {
		return ""
	}

	last := stripped[len(stripped)-1]
	if strings.ContainsRune(".!?:;", rune(last)) {
		return ""
	}

	if strings.Contains(stripped, "..........") || tocDottedLeaderRE.MatchString(stripped) {
		return ""
	}

	if sectionLabelRE.MatchString(stripped) {
		return ""
	}

	continued := false
	if strings.HasSuffix(strings.ToLower(stripped), ", continued") {
		continued = true
		stripped = strings.TrimSpace(stripped[:len(stripped)-len(", continued")])
		words = strings.Fields(stripped)
		nw = len(words)
		if nw < 2 {
			return ""
		}
	}

	if !isUpperFirst(words[0]) {
		return ""
	}

	capCount, checkCount := 0, 0
	for _, w := range words {
		wl := strings.ToLower(w)
		if titleSmallWords[wl] {
			continue
		}
		checkCount++
		if isUpperFirst(w) {
			capCount++
		}
	}
	if checkCount > 0 && float64(capCount)/float64(checkCount) < 0.6 {
		return ""
	}

	lower := strings.ToLower(stripped)
	for _, frag := range bodyTextFragments {
		if strings.Contains(lower, frag) {
			return ""
		}
	}

	if strings.HasPrefix(stripped, "•") || strings.HasPrefix(stripped, "-") ||
		strings.HasPrefix(stripped, "–") || strings.HasPrefix(stripped, "o ") ||
		strings.HasPrefix(stripped, "► ") {
		return ""
	}

	if continued {
		return stripped + ", continued"
	}
	return stripped
}

func isUpperFirst(w string) bool {
	if w == "" {
		return false
	}
	r := []rune(w)[0]
	return r >= 'A' && r <= 'Z'
}
