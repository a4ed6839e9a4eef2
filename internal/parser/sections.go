package parser

import "regexp"

// sectionWindow is how many characters of text a section extract keeps,
// counted from the start of the heading match.
const sectionWindow = 5000

// Section keys form a fixed vocabulary. A missing key in the output map
// means the heading pattern was not found, not that extraction failed.
const (
	SectionBusiness    = "business"
	SectionRiskFactors = "risk_factors"
	SectionLegal       = "legal_proceedings"
	SectionMDNA        = "mdna"
	SectionControls    = "controls"
	SectionExecComp    = "executive_compensation"
	SectionOtherEvents = "other_events"
)

// Heading patterns anchored on SEC item numbering. Matched against
// normalized text, so headings appear inline rather than on their own
// lines.
var sectionPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{SectionBusiness, regexp.MustCompile(`(?i)\bitem\s*1\b[.\s]*business\b`)},
	{SectionRiskFactors, regexp.MustCompile(`(?i)\bitem\s*1a\b[.\s]*risk\s*factors\b`)},
	{SectionLegal, regexp.MustCompile(`(?i)\bitem\s*3\b[.\s]*legal\s*proceedings\b`)},
	{SectionMDNA, regexp.MustCompile(`(?i)\bitem\s*7\b[.\s]*management'?s?\s*discussion\b`)},
	{SectionControls, regexp.MustCompile(`(?i)\bitem\s*9a\b[.\s]*controls\s*and\s*procedures\b`)},
	{SectionExecComp, regexp.MustCompile(`(?i)\b(?:item\s*11\b[.\s]*)?executive\s*compensation\b`)},
	{SectionOtherEvents, regexp.MustCompile(`(?i)\bitem\s*8\.01\b[.\s]*other\s*events\b`)},
}

// ExtractSections finds each known section heading in text and takes a
// fixed-size window from the first match. First match wins; later,
// possibly better matches are not considered.
func ExtractSections(text string) map[string]string {
	sections := make(map[string]string)
	for _, sp := range sectionPatterns {
		loc := sp.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := loc[0]
		end := start + sectionWindow
		if end > len(text) {
			end = len(text)
		}
		sections[sp.key] = text[start:end]
	}
	return sections
}
