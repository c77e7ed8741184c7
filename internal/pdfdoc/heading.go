package pdfdoc

import (
	"regexp"
	"sort"
	"strings"
)

// wordNums canonicalises written-out section numbers to digits, the same
// table the original ingester used before this pipeline was ported to Go.
var wordNums = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"eleven": "11", "twelve": "12",
}

var tableMarkers = map[string]bool{
	"what": true, "how": true, "action": true, "column": true,
	"description": true, "issue": true,
}

var (
	numberedSubsectionRE = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\s+([A-Z].+)`)
	sectionDigitRE       = regexp.MustCompile(`\b(Section\s+\d+\s*[:\-\x{2013}]?)\s+([A-Z].+)`)
	allCapsHeadingRE     = regexp.MustCompile(`(?:^|\s)([A-Z][A-Z\s]{8,50})(?:\s|$)`)
)

func wordSectionRE() *regexp.Regexp {
	names := make([]string, 0, len(wordNums))
	for w := range wordNums {
		names = append(names, w)
	}
	sort.Strings(names)
	pattern := `(?i)\b(Section\s+(?:` + strings.Join(names, "|") + `)\s*[:\-\x{2013}]?)\s+([A-Z].+)`
	return regexp.MustCompile(pattern)
}

var wordSectionPattern = wordSectionRE()

func stem(w string) string {
	w = strings.ToLower(w)
	switch {
	case strings.HasSuffix(w, "ing") && len(w) > 5:
		return w[:len(w)-3]
	case strings.HasSuffix(w, "es") && len(w) > 4:
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && len(w) > 3:
		return w[:len(w)-1]
	default:
		return w
	}
}

// extractTitle trims a detected heading match down to at most 8 meaningful
// words, stopping early at digits, table-of-contents column markers, or a
// repeated word stem (a sign the match ran into body text).
func extractTitle(prefix, rest string) string {
	words := strings.Fields(strings.TrimSpace(rest))
	var titleWords []string
	seenStems := map[string]bool{}
	for _, w := range words {
		if len(titleWords) >= 8 {
			break
		}
		wl := strings.ToLower(w)
		st := stem(wl)
		if w != "" && w[0] >= '0' && w[0] <= '9' {
			break
		}
		if tableMarkers[wl] && len(titleWords) >= 3 {
			break
		}
		if seenStems[st] && len(titleWords) >= 2 {
			break
		}
		seenStems[st] = true
		titleWords = append(titleWords, w)
	}
	return strings.TrimSpace(prefix + " " + strings.Join(titleWords, " "))
}

// detectHeading infers a top-level section heading from a page's flattened
// (single-spaced) text, trying each pattern in order and stopping at the
// first match.
func detectHeading(text string) string {
	if m := numberedSubsectionRE.FindStringSubmatch(text); m != nil {
		return extractTitle(m[1], m[2])
	}
	if m := sectionDigitRE.FindStringSubmatch(text); m != nil {
		return extractTitle(m[1], m[2])
	}
	if m := wordSectionPattern.FindStringSubmatch(text); m != nil {
		prefix := m[1]
		for word, num := range wordNums {
			re := regexp.MustCompile(`(?i)` + word)
			prefix = re.ReplaceAllString(prefix, num)
		}
		return extractTitle(prefix, m[2])
	}
	if m := allCapsHeadingRE.FindStringSubmatch(text); m != nil {
		heading := strings.TrimSpace(m[1])
		words := strings.Fields(heading)
		if len(words) <= 8 && heading == strings.ToUpper(heading) {
			return titleCase(heading)
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
