package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/store"
)

type AdminHandler struct {
	store store.Store
}

func NewAdminHandler(s store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type AgentInfo struct {
	*store.Agent
	ActiveLeads    int     `json:"active_leads"`
	ConversionRate float64 `json:"conversion_rate"`
}

func (h *AdminHandler) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListEligibleAgents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]AgentInfo, 0, len(agents))
	now := time.Now()
	for _, a := range agents {
		active, err := h.store.CountActiveLeadsForAgent(r.Context(), a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		perf, err := h.store.GetMonthlyPerformance(r.Context(), a.ID, now)
		if err != nil {
			writeError(w, err)
			return
		}
		infos = append(infos, AgentInfo{
			Agent:          a,
			ActiveLeads:    active,
			ConversionRate: perf.ConversionRate(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// AgentPerformance returns the current-month snapshot for one agent.
// GET /api/v1/agents/{id}/performance
func (h *AdminHandler) AgentPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent id"})
		return
	}
	if _, err := h.store.GetAgent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	perf, err := h.store.GetMonthlyPerformance(r.Context(), id, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

type createAgentRequest struct {
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Tier        string                 `json:"tier"`
	Specialties []string               `json:"specialties,omitempty"`
	Rules       *store.AssignmentRules `json:"rules,omitempty"`
	MaxLeads    int                    `json:"max_leads"`
}

func (h *AdminHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.MaxLeads <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email and positive max_leads required"})
		return
	}
	tier := store.ExperienceTier(req.Tier)
	switch tier {
	case store.TierJunior, store.TierMid, store.TierSenior:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}

	agent := &store.Agent{
		Name:     req.Name,
		Email:    req.Email,
		Role:     "sales",
		Tier:     tier,
		Rules:    req.Rules,
		MaxLeads: req.MaxLeads,
		Status:   store.AgentActive,
	}
	for _, s := range req.Specialties {
		c := store.VehicleCategory(s)
		if !c.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid specialty: " + s})
			return
		}
		agent.Specialties = append(agent.Specialties, c)
	}

	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

type createVehicleRequest struct {
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

func (h *AdminHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	category := store.VehicleCategory(req.Category)
	if !category.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}
	if req.Price <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be positive"})
		return
	}

	vehicle := &store.Vehicle{
		Make:     req.Make,
		Model:    req.Model,
		Year:     req.Year,
		Category: category,
		Price:    req.Price,
	}
	if err := h.store.CreateVehicle(r.Context(), vehicle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *AdminHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.ListVehicles(r.Context(), 0, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []*store.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}
