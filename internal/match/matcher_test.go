package match

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/scoring"
	"github.com/showroomhq/leadrouter/internal/store"
)

// Mock implementations

type mockStore struct {
	vehicles map[uuid.UUID]*store.Vehicle
	agents   []*store.Agent
	active   map[uuid.UUID]int
	perf     map[uuid.UUID]store.PerformanceSnapshot
}

func newMockStore() *mockStore {
	return &mockStore{
		vehicles: make(map[uuid.UUID]*store.Vehicle),
		active:   make(map[uuid.UUID]int),
		perf:     make(map[uuid.UUID]store.PerformanceSnapshot),
	}
}

func (m *mockStore) addVehicle(category store.VehicleCategory, price float64) uuid.UUID {
	v := &store.Vehicle{ID: uuid.New(), Category: category, Price: price}
	m.vehicles[v.ID] = v
	return v.ID
}

func (m *mockStore) addAgent(a *store.Agent) uuid.UUID {
	a.ID = uuid.New()
	if a.Role == "" {
		a.Role = "sales"
	}
	if a.Status == "" {
		a.Status = store.AgentActive
	}
	m.agents = append(m.agents, a)
	return a.ID
}

func (m *mockStore) GetVehicle(_ context.Context, id uuid.UUID) (*store.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) ListEligibleAgents(_ context.Context) ([]*store.Agent, error) {
	var out []*store.Agent
	for _, a := range m.agents {
		if a.Role == "sales" && a.Status == store.AgentActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) CountActiveLeadsForAgent(_ context.Context, agentID uuid.UUID) (int, error) {
	return m.active[agentID], nil
}

func (m *mockStore) GetMonthlyPerformance(_ context.Context, agentID uuid.UUID, _ time.Time) (*store.PerformanceSnapshot, error) {
	p := m.perf[agentID]
	return &p, nil
}

func (m *mockStore) CreateVehicle(_ context.Context, _ *store.Vehicle) error { return nil }
func (m *mockStore) ListVehicles(_ context.Context, _, _ int) ([]*store.Vehicle, error) {
	return nil, nil
}
func (m *mockStore) GetAgent(_ context.Context, _ uuid.UUID) (*store.Agent, error) {
	return nil, store.ErrNotFound
}
func (m *mockStore) CreateAgent(_ context.Context, _ *store.Agent) error { return nil }
func (m *mockStore) CreateLead(_ context.Context, _ *store.Lead) error   { return nil }
func (m *mockStore) GetLead(_ context.Context, _ uuid.UUID) (*store.Lead, error) {
	return nil, store.ErrNotFound
}
func (m *mockStore) ListLeads(_ context.Context, _ store.LeadFilter) ([]*store.Lead, error) {
	return nil, nil
}
func (m *mockStore) FindRecentDuplicate(_ context.Context, _, _ string, _ uuid.UUID, _ time.Duration) (*store.Lead, error) {
	return nil, nil
}
func (m *mockStore) AssignLead(_ context.Context, _ store.AssignRequest) (*store.Lead, error) {
	return nil, errors.New("not implemented")
}
func (m *mockStore) UpdateLeadStatus(_ context.Context, _ store.StatusUpdate) (*store.Lead, error) {
	return nil, errors.New("not implemented")
}
func (m *mockStore) AppendActivity(_ context.Context, _ *store.Activity) error { return nil }
func (m *mockStore) ListActivities(_ context.Context, _ uuid.UUID) ([]*store.Activity, error) {
	return nil, nil
}
func (m *mockStore) GetStats(_ context.Context) (*store.LeadStats, error) { return nil, nil }
func (m *mockStore) Close() error                                         { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMatcher(s store.Store) *Matcher {
	return New(s, scoring.DefaultWeights(), 80, discardLogger())
}

func TestRankExcludesAgentsAtCapacity(t *testing.T) {
	ms := newMockStore()
	vehicleID := ms.addVehicle(store.CategorySedan, 40000)

	fullID := ms.addAgent(&store.Agent{Name: "full", Tier: store.TierJunior, MaxLeads: 5})
	ms.active[fullID] = 5
	overID := ms.addAgent(&store.Agent{Name: "over", Tier: store.TierJunior, MaxLeads: 3})
	ms.active[overID] = 4
	freeID := ms.addAgent(&store.Agent{Name: "free", Tier: store.TierJunior, MaxLeads: 5})
	ms.active[freeID] = 2

	results, err := newMatcher(ms).Rank(context.Background(), vehicleID)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(results))
	}
	if results[0].AgentID != freeID {
		t.Errorf("expected agent %s, got %s", freeID, results[0].AgentID)
	}
}

func TestRankEmptyWhenNoCandidates(t *testing.T) {
	ms := newMockStore()
	vehicleID := ms.addVehicle(store.CategorySUV, 60000)

	results, err := newMatcher(ms).Rank(context.Background(), vehicleID)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty ranking, got %d", len(results))
	}
}

func TestRankUnknownVehicle(t *testing.T) {
	ms := newMockStore()
	_, err := newMatcher(ms).Rank(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRankOrdersByCompositeDescending(t *testing.T) {
	ms := newMockStore()
	vehicleID := ms.addVehicle(store.CategorySedan, 40000)

	// Specialist junior beats non-specialist senior on a budget sedan.
	seniorID := ms.addAgent(&store.Agent{Name: "senior", Tier: store.TierSenior, MaxLeads: 5})
	juniorID := ms.addAgent(&store.Agent{
		Name: "junior", Tier: store.TierJunior,
		Specialties: []store.VehicleCategory{store.CategorySedan},
		MaxLeads:    5,
	})

	results, err := newMatcher(ms).Rank(context.Background(), vehicleID)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results))
	}
	if results[0].AgentID != juniorID {
		t.Errorf("expected junior specialist first, got %s", results[0].AgentName)
	}
	if results[1].AgentID != seniorID {
		t.Errorf("expected senior second")
	}
	if results[0].Composite < results[1].Composite {
		t.Error("ranking not descending")
	}
}

func TestRankTiesKeepReadOrder(t *testing.T) {
	ms := newMockStore()
	vehicleID := ms.addVehicle(store.CategorySedan, 40000)

	firstID := ms.addAgent(&store.Agent{Name: "first", Tier: store.TierJunior, MaxLeads: 5})
	secondID := ms.addAgent(&store.Agent{Name: "second", Tier: store.TierJunior, MaxLeads: 5})

	results, err := newMatcher(ms).Rank(context.Background(), vehicleID)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results))
	}
	if results[0].Composite != results[1].Composite {
		t.Fatalf("expected a tie, got %d vs %d", results[0].Composite, results[1].Composite)
	}
	if results[0].AgentID != firstID || results[1].AgentID != secondID {
		t.Error("tie did not keep eligibility read order")
	}
}

func TestTopN(t *testing.T) {
	ms := newMockStore()
	vehicleID := ms.addVehicle(store.CategorySedan, 40000)
	for i := 0; i < 4; i++ {
		ms.addAgent(&store.Agent{Name: "agent", Tier: store.TierJunior, MaxLeads: 5})
	}

	results, err := newMatcher(ms).TopN(context.Background(), vehicleID, 2)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestDecide(t *testing.T) {
	t.Run("no candidate", func(t *testing.T) {
		ms := newMockStore()
		vehicleID := ms.addVehicle(store.CategorySedan, 40000)

		d, err := newMatcher(ms).Decide(context.Background(), vehicleID)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if d.Outcome != OutcomeNoCandidate {
			t.Errorf("expected no_candidate, got %s", d.Outcome)
		}
		if d.Top != nil {
			t.Error("expected nil top candidate")
		}
	})

	t.Run("auto-assign above threshold", func(t *testing.T) {
		ms := newMockStore()
		vehicleID := ms.addVehicle(store.CategorySedan, 40000)
		agentID := ms.addAgent(&store.Agent{
			Name: "ideal", Tier: store.TierJunior,
			Specialties: []store.VehicleCategory{store.CategorySedan},
			MaxLeads:    5,
		})

		d, err := newMatcher(ms).Decide(context.Background(), vehicleID)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if d.Outcome != OutcomeAutoAssign {
			t.Fatalf("expected auto_assign, got %s (composite %d)", d.Outcome, d.Top.Composite)
		}
		if d.Top.AgentID != agentID {
			t.Error("wrong winner")
		}
		if d.Top.Composite != 90 {
			t.Errorf("expected composite 90, got %d", d.Top.Composite)
		}
	})

	t.Run("manual review below threshold", func(t *testing.T) {
		ms := newMockStore()
		vehicleID := ms.addVehicle(store.CategorySedan, 150000)
		ms.addAgent(&store.Agent{
			Name: "junior", Tier: store.TierJunior,
			Specialties: []store.VehicleCategory{store.CategorySedan},
			MaxLeads:    5,
		})

		d, err := newMatcher(ms).Decide(context.Background(), vehicleID)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if d.Outcome != OutcomeManualReview {
			t.Fatalf("expected manual_review, got %s", d.Outcome)
		}
		if d.Top.Composite != 74 {
			t.Errorf("expected composite 74, got %d", d.Top.Composite)
		}
	})

	t.Run("sole agent at capacity means no candidate", func(t *testing.T) {
		ms := newMockStore()
		vehicleID := ms.addVehicle(store.CategorySedan, 40000)
		agentID := ms.addAgent(&store.Agent{
			Name: "busy", Tier: store.TierJunior,
			Specialties: []store.VehicleCategory{store.CategorySedan},
			MaxLeads:    5,
		})
		ms.active[agentID] = 5

		d, err := newMatcher(ms).Decide(context.Background(), vehicleID)
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if d.Outcome != OutcomeNoCandidate {
			t.Errorf("expected no_candidate, got %s", d.Outcome)
		}
	})
}
