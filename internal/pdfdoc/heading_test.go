package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectHeadingNumberedSubsection(t *testing.T) {
	got := detectHeading("intro text 3.2 Opening The Location more words here")
	assert.Equal(t, "3.2 Opening The Location more words here", got)
}

func TestDetectHeadingSectionDigit(t *testing.T) {
	got := detectHeading("Some preface. Section 5: Election Day Procedures begin here")
	assert.Equal(t, "Section 5: Election Day Procedures begin here", got)
}

func TestDetectHeadingWordSection(t *testing.T) {
	got := detectHeading("Section Two: Poll Worker Information follows below")
	assert.Equal(t, "Section 2: Poll Worker Information follows below", got)
}

func TestDetectHeadingAllCaps(t *testing.T) {
	got := detectHeading("text before OPENING THE VOTING LOCATION text after")
	assert.Equal(t, "Opening The Voting Location", got)
}

func TestDetectHeadingNone(t *testing.T) {
	got := detectHeading("just some ordinary lowercase sentence with no markers")
	assert.Equal(t, "", got)
}

func TestDetectSubheadingAccepts(t *testing.T) {
	assert.Equal(t, "Voter Contacts", detectSubheading("Voter Contacts"))
	assert.Equal(t, "Envelope Drop Box, continued", detectSubheading("Envelope Drop Box, continued"))
}

func TestDetectSubheadingRejectsBoilerplate(t *testing.T) {
	assert.Equal(t, "", detectSubheading("Poll Worker Info"))
}

func TestDetectSubheadingRejectsBodyText(t *testing.T) {
	assert.Equal(t, "", detectSubheading("You will need to check the list"))
}

func TestDetectSubheadingRejectsSentenceFragment(t *testing.T) {
	assert.Equal(t, "", detectSubheading("This ends in a period."))
}

func TestDetectSubheadingRejectsTOCLine(t *testing.T) {
	assert.Equal(t, "", detectSubheading("Voter Contacts .......... 12"))
}
