package scoring

import (
	"testing"

	"github.com/showroomhq/leadrouter/internal/store"
)

func float64Ptr(v float64) *float64 { return &v }

func agent(tier store.ExperienceTier, specialties []store.VehicleCategory, rules *store.AssignmentRules, maxLeads int) *store.Agent {
	return &store.Agent{
		Name:        "test-agent",
		Role:        "sales",
		Tier:        tier,
		Specialties: specialties,
		Rules:       rules,
		MaxLeads:    maxLeads,
		Status:      store.AgentActive,
	}
}

func vehicle(category store.VehicleCategory, price float64) *store.Vehicle {
	return &store.Vehicle{Category: category, Price: price}
}

func TestCategoryFactor(t *testing.T) {
	tests := []struct {
		name        string
		specialties []store.VehicleCategory
		rules       *store.AssignmentRules
		category    store.VehicleCategory
		want        int
	}{
		{"specialist", []store.VehicleCategory{store.CategorySedan}, nil, store.CategorySedan, 100},
		{"no rules, not specialist", nil, nil, store.CategorySedan, 50},
		{"empty allow-list means unrestricted", nil, &store.AssignmentRules{}, store.CategorySUV, 50},
		{"category in allow-list", nil, &store.AssignmentRules{
			AllowedCategories: []store.VehicleCategory{store.CategorySUV},
		}, store.CategorySUV, 50},
		{"category excluded by allow-list", nil, &store.AssignmentRules{
			AllowedCategories: []store.VehicleCategory{store.CategorySUV},
		}, store.CategorySports, 0},
		{"specialist wins over allow-list", []store.VehicleCategory{store.CategoryCoupe},
			&store.AssignmentRules{AllowedCategories: []store.VehicleCategory{store.CategorySUV}},
			store.CategoryCoupe, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{
				Agent:   agent(store.TierMid, tt.specialties, tt.rules, 5),
				Vehicle: vehicle(tt.category, 60000),
			}
			r := CategoryFactor(c)
			if r.Score != tt.want {
				t.Errorf("got %d, want %d", r.Score, tt.want)
			}
			if r.Reason == "" {
				t.Error("expected a justification")
			}
		})
	}
}

func TestPriceRangeFactor(t *testing.T) {
	tests := []struct {
		name  string
		rules *store.AssignmentRules
		price float64
		want  int
	}{
		{"no rules", nil, 40000, 100},
		{"no bounds", &store.AssignmentRules{}, 40000, 100},
		{"below minimum", &store.AssignmentRules{MinPrice: float64Ptr(50000)}, 40000, 0},
		{"above maximum", &store.AssignmentRules{MaxPrice: float64Ptr(30000)}, 40000, 0},
		{"inside both bounds", &store.AssignmentRules{MinPrice: float64Ptr(30000), MaxPrice: float64Ptr(50000)}, 40000, 100},
		{"at minimum", &store.AssignmentRules{MinPrice: float64Ptr(40000)}, 40000, 100},
		{"at maximum", &store.AssignmentRules{MaxPrice: float64Ptr(40000)}, 40000, 100},
		{"only min set, price above", &store.AssignmentRules{MinPrice: float64Ptr(10000)}, 400000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{
				Agent:   agent(store.TierMid, nil, tt.rules, 5),
				Vehicle: vehicle(store.CategorySedan, tt.price),
			}
			r := PriceRangeFactor(c)
			if r.Score != tt.want {
				t.Errorf("got %d, want %d", r.Score, tt.want)
			}
		})
	}
}

func TestTierFactor(t *testing.T) {
	tests := []struct {
		name  string
		tier  store.ExperienceTier
		price float64
		want  int
	}{
		{"junior on budget vehicle", store.TierJunior, 40000, 100},
		{"junior at band boundary", store.TierJunior, 50000, 100},
		{"mid on budget vehicle", store.TierMid, 40000, 50},
		{"mid on mid-range", store.TierMid, 75000, 100},
		{"mid at upper boundary", store.TierMid, 100000, 100},
		{"senior on luxury", store.TierSenior, 150000, 100},
		{"junior on luxury", store.TierJunior, 150000, 20},
		{"senior on budget vehicle", store.TierSenior, 40000, 50},
		{"just above senior floor", store.TierSenior, 100001, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{
				Agent:   agent(tt.tier, nil, nil, 5),
				Vehicle: vehicle(store.CategorySedan, tt.price),
			}
			r := TierFactor(c)
			if r.Score != tt.want {
				t.Errorf("got %d, want %d", r.Score, tt.want)
			}
		})
	}
}

func TestWorkloadFactor(t *testing.T) {
	tests := []struct {
		name     string
		active   int
		maxLeads int
		want     int
	}{
		{"idle", 0, 5, 100},
		{"one of five", 1, 5, 80},
		{"four of five", 4, 5, 20},
		{"at capacity", 5, 5, 0},
		{"over capacity clamps to zero", 6, 5, 0},
		{"one of three rounds", 1, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{
				Agent:       agent(store.TierMid, nil, nil, tt.maxLeads),
				Vehicle:     vehicle(store.CategorySedan, 60000),
				ActiveLeads: tt.active,
			}
			r := WorkloadFactor(c)
			if r.Score != tt.want {
				t.Errorf("got %d, want %d", r.Score, tt.want)
			}
		})
	}
}

func TestPerformanceFactor(t *testing.T) {
	tests := []struct {
		name      string
		received  int
		converted int
		want      int
	}{
		{"no history", 0, 0, 0},
		{"half converted", 10, 5, 50},
		{"all converted", 4, 4, 100},
		{"one of three", 3, 1, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{
				Agent:       agent(store.TierMid, nil, nil, 5),
				Vehicle:     vehicle(store.CategorySedan, 60000),
				Performance: store.PerformanceSnapshot{Received: tt.received, Converted: tt.converted},
			}
			r := PerformanceFactor(c)
			if r.Score != tt.want {
				t.Errorf("got %d, want %d", r.Score, tt.want)
			}
		})
	}
}
