// Package sigpipe implements the signal pipeline: fetch external
// evidence per company, classify it with keyword heuristics, reduce it
// to bounded scores, and persist the results.
package sigpipe

import (
	"strings"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
)

// Classifier labels job and patent records against the loaded
// vocabularies. It is immutable after construction and safe for
// concurrent use.
type Classifier struct {
	ai     *keywords.Matcher
	tech   *keywords.Matcher
	patent *keywords.Matcher
	cfg    config.SignalsConfig
}

// NewClassifier builds a Classifier from the vocabulary. Patent matching
// is strict word-boundary matching over the patent and AI term union.
func NewClassifier(vocab *keywords.Vocabulary, cfg config.SignalsConfig) *Classifier {
	return &Classifier{
		ai:     keywords.NewMatcher(vocab.AIKeywords),
		tech:   keywords.NewMatcher(vocab.TechStackKeywords),
		patent: keywords.NewStrictMatcher(vocab.PatentTerms()),
		cfg:    cfg,
	}
}

// ClassifyJob classifies one job posting over its title and description.
//
// The relevance threshold is two-tier: postings with a description need
// the full threshold, title-only postings need only the sparse
// threshold, since short text offers fewer chances to match and a
// single strong hit is more reliable there.
func (c *Classifier) ClassifyJob(job model.JobPosting) model.ClassifiedJob {
	text := job.Title + " " + job.Description
	matched := c.ai.Match(text)

	threshold := c.cfg.JobRelevanceThreshold
	if strings.TrimSpace(job.Description) == "" {
		threshold = c.cfg.SparseRelevanceThreshold
	}

	return model.ClassifiedJob{
		JobPosting: job,
		Classification: model.Classification{
			MatchedKeywords: matched,
			IsRelevant:      len(matched) >= threshold,
			RelevanceScore:  boundedScore(len(matched), c.cfg.JobScorePerKeyword),
		},
		TechStackKeywords: c.tech.Match(text),
	}
}

// ClassifyPatent classifies one patent over its title and abstract. A
// single keyword is enough: patent text is technical and terse, and the
// strict word-boundary matching already suppresses incidental hits.
func (c *Classifier) ClassifyPatent(p model.Patent) model.ClassifiedPatent {
	text := p.Title + " " + p.Abstract
	matched := c.patent.Match(text)

	return model.ClassifiedPatent{
		Patent: p,
		Classification: model.Classification{
			MatchedKeywords: matched,
			IsRelevant:      len(matched) >= c.cfg.PatentRelevanceThreshold,
			RelevanceScore:  boundedScore(len(matched), c.cfg.PatentScorePerKeyword),
		},
	}
}

// boundedScore is the per-record linear score, capped at 100.
func boundedScore(matches int, perKeyword float64) float64 {
	score := float64(matches) * perKeyword
	if score > 100 {
		return 100
	}
	return score
}
