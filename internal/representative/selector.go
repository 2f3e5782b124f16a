// Package representative picks the single article that carries a cluster of
// near-duplicates forward. Scoring favors detail up to a soft cap and trusted
// sources over unknown ones, with ties resolved by input order.
package representative

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Aidadev0831/AIDE-data-core/internal/cluster"
)

const (
	// Combined title+description length at which the information score
	// saturates. Beyond this, extra verbosity earns nothing.
	informationLengthCap = 500

	trustedReliability   = 1.0
	untrustedReliability = 0.3
)

// Candidate is one cluster member in fetch order.
type Candidate struct {
	ID          int64
	Title       string
	Description string
	Source      string
}

type Selector struct {
	informationWeight float64
	reliabilityWeight float64
	trustedSources    map[string]struct{}
	logger            zerolog.Logger
}

// NewSelector normalizes the two weights to sum to 1. Both weights zero is a
// configuration error.
func NewSelector(informationWeight, reliabilityWeight float64, trustedSources []string, logger zerolog.Logger) (*Selector, error) {
	if informationWeight < 0 || reliabilityWeight < 0 {
		return nil, fmt.Errorf("selector weights must not be negative: information=%f reliability=%f", informationWeight, reliabilityWeight)
	}
	total := informationWeight + reliabilityWeight
	if total == 0 {
		return nil, fmt.Errorf("selector weights must not both be zero")
	}

	trusted := make(map[string]struct{}, len(trustedSources))
	for _, source := range trustedSources {
		trusted[source] = struct{}{}
	}

	return &Selector{
		informationWeight: informationWeight / total,
		reliabilityWeight: reliabilityWeight / total,
		trustedSources:    trusted,
		logger:            logger,
	}, nil
}

// Select returns the highest-scoring candidate. Equal scores resolve to the
// candidate appearing first; a single candidate is returned without scoring.
func (s *Selector) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	best := 0
	bestScore := s.Score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if score := s.Score(candidates[i]); score > bestScore {
			best = i
			bestScore = score
		}
	}

	s.logger.Debug().
		Int64("article_id", candidates[best].ID).
		Str("source", candidates[best].Source).
		Float64("score", bestScore).
		Int("candidates", len(candidates)).
		Msg("selected representative")
	return candidates[best], true
}

// SelectFromClusters picks one representative per non-negative cluster id.
// Outliers are skipped; the caller treats each as its own singleton
// representative. Candidates and assignments are parallel slices in fetch
// order, which also fixes the tie-break order inside each cluster.
func (s *Selector) SelectFromClusters(candidates []Candidate, assignments []int) (map[int]Candidate, error) {
	if len(candidates) != len(assignments) {
		return nil, fmt.Errorf("candidate/assignment length mismatch: %d vs %d", len(candidates), len(assignments))
	}

	grouped := make(map[int][]Candidate)
	order := make([]int, 0)
	for i, candidate := range candidates {
		id := assignments[i]
		if id == cluster.Outlier {
			continue
		}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], candidate)
	}

	representatives := make(map[int]Candidate, len(grouped))
	for _, id := range order {
		if winner, ok := s.Select(grouped[id]); ok {
			representatives[id] = winner
		}
	}
	return representatives, nil
}

// Score combines information content and source reliability with the
// configured weights.
func (s *Selector) Score(candidate Candidate) float64 {
	return s.informationWeight*informationScore(candidate) +
		s.reliabilityWeight*s.reliabilityScore(candidate.Source)
}

func informationScore(candidate Candidate) float64 {
	length := len([]rune(candidate.Title)) + len([]rune(candidate.Description))
	score := float64(length) / informationLengthCap
	if score > 1 {
		return 1
	}
	return score
}

func (s *Selector) reliabilityScore(source string) float64 {
	if _, ok := s.trustedSources[source]; ok {
		return trustedReliability
	}
	return untrustedReliability
}
