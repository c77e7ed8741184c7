// Package facts extracts deterministic factual strings (times, dates,
// colour-coded transport-box references) from a chunk's raw content and
// prepends them to its contextual content, so BM25 can match exact facts a
// paraphrasing embedding might blur.
package facts

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	timeRE  = regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}\s*(?:a\.m\.|p\.m\.|AM|PM|a\.m|p\.m))\.?`)
	dateRE  = regexp.MustCompile(`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2})`)
	colorRE = regexp.MustCompile(`(?i)\b(RED|BLUE|GREEN|YELLOW|ORANGE|PURPLE|BLACK|WHITE)\s+Transport\s+Box\s+contains:?\s*([^.]+)`)
)

// Extract finds times, dates, and colour-coded transport-box phrases in
// rawContent and returns the deterministic fact lines to prepend, in the
// order the original ingester produced them.
func Extract(rawContent string) []string {
	var lines []string

	if times := uniqueOrdered(findGroup(timeRE, rawContent)); len(times) > 0 {
		lines = append(lines, "Times mentioned: "+strings.Join(times, ", "))
	}
	if dates := uniqueOrdered(findGroup(dateRE, rawContent)); len(dates) > 0 {
		lines = append(lines, "Dates mentioned: "+strings.Join(dates, ", "))
	}
	for _, m := range colorRE.FindAllStringSubmatch(rawContent, -1) {
		color := strings.ToUpper(m[1])
		contents := strings.TrimSpace(m[2])
		lines = append(lines, fmt.Sprintf("%s Transport Box contains: %s", color, contents))
	}

	return lines
}

// BuildContextualContent assembles contextual_content as
// "[<section_title>] <facts>| <raw_content>", matching generate_chunk_context.
func BuildContextualContent(rawContent, sectionTitle string) string {
	factLines := Extract(rawContent)
	factPrefix := ""
	if len(factLines) > 0 {
		factPrefix = strings.Join(factLines, " | ") + " | "
	}
	return fmt.Sprintf("[%s] %s%s", sectionTitle, factPrefix, rawContent)
}

func findGroup(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func uniqueOrdered(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
