package classification

import (
	"census_server/core/domain"
	"census_server/pkg/logger"
)

// =============================================================================
// Classifier (primary matcher + fallback chain)
// =============================================================================

// topCandidateCount bounds the evidence carried on the result.
const topCandidateCount = 3

// Classifier is the sector classification engine. It holds only read-only
// tables, performs no I/O and is safe for arbitrary concurrent use.
type Classifier struct {
	matcher  *DomainMatcher
	fallback *FallbackChain
	log      *logger.Logger
}

// NewClassifier wires the engine from its static tables.
func NewClassifier(table *PatternTable, fallback *FallbackChain) *Classifier {
	return &Classifier{
		matcher:  NewDomainMatcher(table),
		fallback: fallback,
		log:      logger.Default().WithField("component", "classifier"),
	}
}

// NewDefaultClassifier builds a classifier over the built-in tables.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(NewPatternTable(), NewFallbackChain())
}

// Classify maps a portal URL to a sector category with confidence and
// evidence. It is total: every input, including malformed URLs and the empty
// string, yields a terminal category. It never returns an error.
func (c *Classifier) Classify(rawURL string) domain.ClassificationResult {
	siteDomain := extractDomain(rawURL)

	candidates := c.matcher.Match(siteDomain)

	result := domain.ClassificationResult{
		Domain: siteDomain,
	}
	for i, cand := range candidates {
		if i >= topCandidateCount {
			break
		}
		result.TopCandidates = append(result.TopCandidates, domain.CandidateScore{
			Category:   cand.category,
			Confidence: cand.confidence,
		})
	}

	if len(candidates) > 0 {
		best := candidates[0]
		result.Category = best.category
		result.Confidence = best.confidence
		result.MatchedPatterns = best.patterns
		result.Stage = "pattern"
		return result
	}

	cat, conf, ruleName := c.fallback.Resolve(siteDomain)
	c.log.Debug("fallback classification: %s via %s (%.0f%%)", cat, ruleName, conf)

	result.Category = cat
	result.Confidence = conf
	result.Stage = ruleName
	return result
}
