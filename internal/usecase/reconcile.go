package usecase

import (
	"context"

	"github.com/agext/levenshtein"

	"github.com/unisportai/unisport-sync/internal/domain/location"
	"github.com/unisportai/unisport-sync/internal/platform/logging"
)

// DefaultFuzzyThreshold is the minimum similarity ratio for a fuzzy name
// match to be accepted. The threshold is inclusive.
const DefaultFuzzyThreshold = 0.85

var levenshteinParams = levenshtein.NewParams()

// NameMatch is one accepted reconciliation between two source spellings.
type NameMatch struct {
	Target  string  `json:"target"`
	Matched string  `json:"matched"`
	Ratio   float64 `json:"ratio"`
	Fuzzy   bool    `json:"fuzzy"`
}

// NameMatcher reconciles a name against a candidate set: exact raw
// equality first, then best fuzzy candidate over trimmed lower-cased
// forms. Ties go to the lexicographically smallest candidate so reruns
// are deterministic.
type NameMatcher struct {
	threshold float64
	logger    *logging.Logger
}

func NewNameMatcher(threshold float64, logger *logging.Logger) *NameMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NameMatcher{threshold: threshold, logger: logger}
}

// Match returns the reconciled candidate for target, or ok=false when no
// candidate reaches the threshold. Candidates are compared in the order
// given; the similarity ratio for the exact path is 1.
func (m *NameMatcher) Match(ctx context.Context, target string, candidates []string) (NameMatch, bool) {
	for _, candidate := range candidates {
		if candidate == target {
			return NameMatch{Target: target, Matched: candidate, Ratio: 1}, true
		}
	}

	normalizedTarget := location.NormalizeName(target)
	best := NameMatch{Target: target, Fuzzy: true}
	found := false
	for _, candidate := range candidates {
		ratio := Similarity(normalizedTarget, location.NormalizeName(candidate))
		if ratio < m.threshold {
			continue
		}
		if !found || ratio > best.Ratio || (ratio == best.Ratio && candidate < best.Matched) {
			best.Matched = candidate
			best.Ratio = ratio
			found = true
		}
	}
	if !found {
		return NameMatch{}, false
	}

	m.logger.InfoContext(ctx, "fuzzy name match accepted",
		"target", target,
		"matched", best.Matched,
		"ratio", best.Ratio,
	)
	return best, true
}

// Similarity is the Levenshtein ratio in [0, 1] between two strings.
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, levenshteinParams)
}
