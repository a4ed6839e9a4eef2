// Package keywords holds the classification vocabularies and the text
// matcher used by the signal pipelines.
package keywords

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var vocabYAML []byte

// Vocabulary is the full set of classification term lists. It is loaded
// once and treated as immutable; callers receive it by injection.
type Vocabulary struct {
	AIKeywords         []string          `yaml:"ai_keywords"`
	TechStackKeywords  []string          `yaml:"techstack_keywords"`
	LeadershipKeywords []string          `yaml:"leadership_keywords"`
	PatentKeywords     []string          `yaml:"patent_keywords"`
	TopAITools         []string          `yaml:"top_ai_tools"`
	Technologies       map[string]string `yaml:"technologies"`
}

// Load parses the embedded vocabulary.
func Load() (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		return nil, eris.Wrap(err, "keywords: unmarshal vocabulary")
	}
	if len(v.AIKeywords) == 0 || len(v.PatentKeywords) == 0 {
		return nil, eris.New("keywords: vocabulary is incomplete")
	}
	return &v, nil
}

// PatentTerms returns the union of patent-specific and general AI terms,
// deduplicated, in vocabulary order.
func (v *Vocabulary) PatentTerms() []string {
	seen := make(map[string]struct{}, len(v.PatentKeywords)+len(v.AIKeywords))
	out := make([]string, 0, len(v.PatentKeywords)+len(v.AIKeywords))
	for _, list := range [][]string{v.PatentKeywords, v.AIKeywords} {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// shortTermLen is the length at or below which a term matches on word
// boundaries instead of as a substring, so "ai" does not hit "aisle"
// and "rag" does not hit "storage".
const shortTermLen = 3

type term struct {
	keyword string
	re      *regexp.Regexp // nil means plain substring match
}

// Matcher matches a fixed term list against lowercased text. All
// patterns are compiled up front; Match is safe for concurrent use.
type Matcher struct {
	terms []term
}

// NewMatcher builds a matcher where short terms match on word boundaries
// and longer terms match as substrings.
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{terms: make([]term, 0, len(keywords))}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		t := term{keyword: kw}
		if len(kw) <= shortTermLen {
			t.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		m.terms = append(m.terms, t)
	}
	return m
}

// NewStrictMatcher builds a matcher where every term matches on word
// boundaries regardless of length. Used for patent classification.
func NewStrictMatcher(keywords []string) *Matcher {
	m := &Matcher{terms: make([]term, 0, len(keywords))}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		m.terms = append(m.terms, term{
			keyword: kw,
			re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
		})
	}
	return m
}

// Match returns the terms found in text, in vocabulary order. A term is
// reported at most once no matter how often it occurs.
func (m *Matcher) Match(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, t := range m.terms {
		if t.re != nil {
			if t.re.MatchString(lower) {
				found = append(found, t.keyword)
			}
		} else if strings.Contains(lower, t.keyword) {
			found = append(found, t.keyword)
		}
	}
	return found
}

// MatchCount returns how many distinct terms occur in text.
func (m *Matcher) MatchCount(text string) int {
	return len(m.Match(text))
}
