package scoring

import (
	"fmt"
	"math"

	"github.com/showroomhq/leadrouter/internal/store"
)

// FactorResult captures one factor's contribution to the composite score.
type FactorResult struct {
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason"`
}

// Candidate bundles all inputs needed to score a single agent–vehicle pair.
// Workload and performance are snapshots taken for this run only.
type Candidate struct {
	Agent       *store.Agent
	Vehicle     *store.Vehicle
	ActiveLeads int
	Performance store.PerformanceSnapshot
}

// Price bands for tier matching. Boundary values belong to the lower band.
const (
	juniorPriceCeiling = 50_000.0
	seniorPriceFloor   = 100_000.0
)

// --- Individual factor calculators ---

// CategoryFactor scores specialist fit: 100 for a declared specialty, 50 for
// a category the agent is merely permitted to serve, 0 when the agent's
// rules exclude the category outright.
func CategoryFactor(c *Candidate) FactorResult {
	category := c.Vehicle.Category
	for _, s := range c.Agent.Specialties {
		if s == category {
			return FactorResult{Name: "category", Score: 100,
				Reason: fmt.Sprintf("specialist in %s", category)}
		}
	}
	if categoryPermitted(c.Agent.Rules, category) {
		return FactorResult{Name: "category", Score: 50,
			Reason: fmt.Sprintf("can serve %s but not a specialist", category)}
	}
	return FactorResult{Name: "category", Score: 0,
		Reason: fmt.Sprintf("category %s not permitted by assignment rules", category)}
}

func categoryPermitted(rules *store.AssignmentRules, category store.VehicleCategory) bool {
	if rules == nil || len(rules.AllowedCategories) == 0 {
		return true
	}
	for _, allowed := range rules.AllowedCategories {
		if allowed == category {
			return true
		}
	}
	return false
}

// PriceRangeFactor is all-or-nothing against the agent's optional price
// bounds. A missing bound places no restriction on that side.
func PriceRangeFactor(c *Candidate) FactorResult {
	price := c.Vehicle.Price
	rules := c.Agent.Rules
	if rules != nil {
		if rules.MinPrice != nil && price < *rules.MinPrice {
			return FactorResult{Name: "price_range", Score: 0,
				Reason: fmt.Sprintf("price %.0f below agent minimum %.0f", price, *rules.MinPrice)}
		}
		if rules.MaxPrice != nil && price > *rules.MaxPrice {
			return FactorResult{Name: "price_range", Score: 0,
				Reason: fmt.Sprintf("price %.0f above agent maximum %.0f", price, *rules.MaxPrice)}
		}
	}
	return FactorResult{Name: "price_range", Score: 100, Reason: "price within agent range"}
}

// TierFactor matches the agent's experience tier against the price band's
// ideal tier. Mismatches on high-value vehicles are penalised harder.
func TierFactor(c *Candidate) FactorResult {
	price := c.Vehicle.Price
	tier := c.Agent.Tier

	var ideal store.ExperienceTier
	var miss int
	switch {
	case price > seniorPriceFloor:
		ideal, miss = store.TierSenior, 20
	case price <= juniorPriceCeiling:
		ideal, miss = store.TierJunior, 50
	default:
		ideal, miss = store.TierMid, 50
	}

	if tier == ideal {
		return FactorResult{Name: "tier", Score: 100,
			Reason: fmt.Sprintf("%s tier ideal for price %.0f", tier, price)}
	}
	return FactorResult{Name: "tier", Score: miss,
		Reason: fmt.Sprintf("%s tier, price %.0f favours %s", tier, price, ideal)}
}

// WorkloadFactor rewards spare capacity. Over-capacity agents are excluded
// before scoring, but the result is clamped anyway.
func WorkloadFactor(c *Candidate) FactorResult {
	capacity := c.Agent.MaxLeads
	if capacity <= 0 {
		return FactorResult{Name: "workload", Score: 0, Reason: "no capacity configured"}
	}
	occupancy := float64(c.ActiveLeads) / float64(capacity)
	score := clampScore(int(math.Round((1 - occupancy) * 100)))
	return FactorResult{Name: "workload", Score: score,
		Reason: fmt.Sprintf("%d of %d lead slots in use", c.ActiveLeads, capacity)}
}

// PerformanceFactor scores the agent's conversion rate for the current
// calendar month. No history scores zero.
func PerformanceFactor(c *Candidate) FactorResult {
	rate := c.Performance.ConversionRate()
	score := clampScore(int(math.Round(rate * 100)))
	if c.Performance.Received == 0 {
		return FactorResult{Name: "performance", Score: score, Reason: "no leads received this month"}
	}
	return FactorResult{Name: "performance", Score: score,
		Reason: fmt.Sprintf("converted %d of %d leads this month", c.Performance.Converted, c.Performance.Received)}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
