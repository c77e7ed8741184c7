package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTimes(t *testing.T) {
	lines := Extract("Polls open at 6:00 a.m. and close at 7:00 p.m. sharp.")
	assert.Contains(t, lines, "Times mentioned: 6:00 a.m., 7:00 p.m.")
}

func TestExtractDates(t *testing.T) {
	lines := Extract("Early voting begins March 3 and ends March 15.")
	assert.Contains(t, lines, "Dates mentioned: March 3, March 15")
}

func TestExtractTransportBox(t *testing.T) {
	lines := Extract("BLUE Transport Box contains: provisional ballots and envelopes.")
	assert.Contains(t, lines, "BLUE Transport Box contains: provisional ballots and envelopes")
}

func TestExtractEmptyWhenNoFacts(t *testing.T) {
	lines := Extract("Check the voter registration list before proceeding.")
	assert.Empty(t, lines)
}

func TestBuildContextualContentPrefixesSectionAndFacts(t *testing.T) {
	ctx := BuildContextualContent("Polls open at 6:00 a.m.", "Section 5: Election Day")
	assert.Equal(t, "[Section 5: Election Day] Times mentioned: 6:00 a.m. | Polls open at 6:00 a.m.", ctx)
}

func TestBuildContextualContentNoFacts(t *testing.T) {
	ctx := BuildContextualContent("nothing special here", "Introduction")
	assert.Equal(t, "[Introduction] nothing special here", ctx)
}
