package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/scoring"
	"github.com/showroomhq/leadrouter/internal/store"
)

// Outcome of an auto-assignment decision.
type Outcome string

const (
	OutcomeAutoAssign   Outcome = "auto_assign"
	OutcomeManualReview Outcome = "manual_review"
	OutcomeNoCandidate  Outcome = "no_candidate"
)

// Decision is the ranking policy's verdict for a vehicle. Top is nil only
// when no eligible candidate exists.
type Decision struct {
	Outcome Outcome              `json:"outcome"`
	Top     *scoring.ScoreResult `json:"top,omitempty"`
}

// Matcher ranks eligible sales agents for a vehicle. All reads are
// snapshots: any number of rankings may run concurrently, and nothing here
// writes.
type Matcher struct {
	store     store.Store
	scorer    *scoring.Scorer
	threshold int
	logger    *slog.Logger

	// injected for tests; defaults to time.Now
	now func() time.Time
}

func New(s store.Store, weights scoring.WeightSet, threshold int, logger *slog.Logger) *Matcher {
	return &Matcher{
		store:     s,
		scorer:    scoring.NewScorer(weights, logger),
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Rank scores every eligible agent against the vehicle and returns them in
// descending composite order. Agents at or over capacity are never scored.
// An empty result is a valid outcome, not an error.
func (m *Matcher) Rank(ctx context.Context, vehicleID uuid.UUID) ([]scoring.ScoreResult, error) {
	vehicle, err := m.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	agents, err := m.store.ListEligibleAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible agents: %w", err)
	}

	var results []scoring.ScoreResult
	for _, agent := range agents {
		active, err := m.store.CountActiveLeadsForAgent(ctx, agent.ID)
		if err != nil {
			return nil, fmt.Errorf("count workload for %s: %w", agent.ID, err)
		}
		if agent.MaxLeads <= 0 || active >= agent.MaxLeads {
			m.logger.Debug("agent at capacity, skipping",
				"agent", agent.Name, "active", active, "max", agent.MaxLeads)
			continue
		}

		perf, err := m.store.GetMonthlyPerformance(ctx, agent.ID, m.now())
		if err != nil {
			return nil, fmt.Errorf("performance snapshot for %s: %w", agent.ID, err)
		}

		results = append(results, m.scorer.ScoreCandidate(&scoring.Candidate{
			Agent:       agent,
			Vehicle:     vehicle,
			ActiveLeads: active,
			Performance: *perf,
		}))
	}

	// Stable keeps the eligibility read order on equal composites.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Composite > results[j].Composite
	})
	return results, nil
}

// TopN returns the first n ranked candidates.
func (m *Matcher) TopN(ctx context.Context, vehicleID uuid.UUID, n int) ([]scoring.ScoreResult, error) {
	results, err := m.Rank(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Decide applies the auto-assign threshold to the top-ranked candidate.
func (m *Matcher) Decide(ctx context.Context, vehicleID uuid.UUID) (Decision, error) {
	results, err := m.Rank(ctx, vehicleID)
	if err != nil {
		return Decision{}, err
	}
	if len(results) == 0 {
		return Decision{Outcome: OutcomeNoCandidate}, nil
	}

	top := results[0]
	if top.Composite >= m.threshold {
		return Decision{Outcome: OutcomeAutoAssign, Top: &top}, nil
	}
	return Decision{Outcome: OutcomeManualReview, Top: &top}, nil
}
