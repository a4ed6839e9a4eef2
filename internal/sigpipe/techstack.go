package sigpipe

import (
	"sort"
	"strings"

	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
)

// TechDetector spots known technologies in free text and assigns each a
// category and a confidence.
type TechDetector struct {
	names      []string // sorted for deterministic output
	categories map[string]string
}

// NewTechDetector builds a detector from the vocabulary's technology
// table.
func NewTechDetector(vocab *keywords.Vocabulary) *TechDetector {
	names := make([]string, 0, len(vocab.Technologies))
	for name := range vocab.Technologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return &TechDetector{names: names, categories: vocab.Technologies}
}

// Detect returns every known technology mentioned in text. Confidence
// grades the match: 0.9 when the technology appears as a whole token,
// 0.7 when a token partially overlaps the name, 0.5 for a bare
// substring hit.
func (d *TechDetector) Detect(text string) []model.TechDetection {
	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)

	var out []model.TechDetection
	for _, name := range d.names {
		if !strings.Contains(lower, name) {
			continue
		}
		out = append(out, model.TechDetection{
			Name:       name,
			Category:   d.categories[name],
			AIRelated:  true,
			Confidence: confidence(name, tokens),
		})
	}
	return out
}

func confidence(name string, tokens []string) float64 {
	for _, tok := range tokens {
		if tok == name {
			return 0.9
		}
	}
	for _, tok := range tokens {
		if strings.Contains(name, tok) {
			return 0.7
		}
	}
	return 0.5
}

// DetectAll merges detections across several texts, keeping the highest
// confidence seen for each technology.
func (d *TechDetector) DetectAll(texts []string) []model.TechDetection {
	best := make(map[string]model.TechDetection)
	for _, text := range texts {
		for _, det := range d.Detect(text) {
			if prev, ok := best[det.Name]; !ok || det.Confidence > prev.Confidence {
				best[det.Name] = det
			}
		}
	}

	out := make([]model.TechDetection, 0, len(best))
	for _, name := range d.names {
		if det, ok := best[name]; ok {
			out = append(out, det)
		}
	}
	return out
}
