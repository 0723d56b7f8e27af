package scoring

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
)

// ScoreResult is the complete scoring output for a single agent–vehicle
// pair. It is computed fresh per call and never persisted: workload and
// performance move continuously underneath it.
type ScoreResult struct {
	AgentID   uuid.UUID      `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Composite int            `json:"composite"`
	Factors   []FactorResult `json:"factors"`
	Reasons   []string       `json:"reasons"`
}

// Scorer runs the five-factor weighted additive scoring engine.
type Scorer struct {
	weights WeightSet
	logger  *slog.Logger
}

func NewScorer(weights WeightSet, logger *slog.Logger) *Scorer {
	return &Scorer{weights: weights, logger: logger}
}

// ScoreCandidate computes the composite score for one agent–vehicle pair.
// Sub-scores are integers in [0,100]; rounding of the weighted sum happens
// once, on the aggregate.
func (s *Scorer) ScoreCandidate(c *Candidate) ScoreResult {
	factors := []FactorResult{
		CategoryFactor(c),
		PriceRangeFactor(c),
		TierFactor(c),
		WorkloadFactor(c),
		PerformanceFactor(c),
	}

	weights := []float64{
		s.weights.Category,
		s.weights.PriceRange,
		s.weights.Tier,
		s.weights.Workload,
		s.weights.Performance,
	}

	var total float64
	reasons := make([]string, 0, len(factors))
	for i := range factors {
		factors[i].Weight = weights[i]
		total += float64(factors[i].Score) * weights[i]
		reasons = append(reasons, factors[i].Reason)
	}

	return ScoreResult{
		AgentID:   c.Agent.ID,
		AgentName: c.Agent.Name,
		Composite: roundHalfUp(total),
		Factors:   factors,
		Reasons:   reasons,
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
