package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/intake"
	"github.com/showroomhq/leadrouter/internal/store"
)

type LeadsHandler struct {
	service *intake.Service
	store   store.Store
}

func NewLeadsHandler(svc *intake.Service, s store.Store) *LeadsHandler {
	return &LeadsHandler{service: svc, store: s}
}

// Create handles public lead intake.
// POST /api/v1/leads
func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req intake.LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.SourceIP = clientIP(r)
	req.UserAgent = r.UserAgent()

	result, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Duplicate {
		duplicatesSuppressedTotal.Inc()
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":            "duplicate submission",
			"existing_lead_id": result.Lead.ID,
		})
		return
	}

	leadsCreatedTotal.Inc()
	routingDecisionsTotal.WithLabelValues(string(result.Decision.Outcome)).Inc()
	writeJSON(w, http.StatusCreated, result)
}

func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.LeadStatus(s)
		filter.Status = &status
	}
	if a := r.URL.Query().Get("agent_id"); a != "" {
		agentID, err := uuid.Parse(a)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent_id"})
			return
		}
		filter.AgentID = &agentID
	}

	leads, err := h.store.ListLeads(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if leads == nil {
		leads = []*store.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
		return
	}
	lead, err := h.store.GetLead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadsHandler) Activities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
		return
	}
	activities, err := h.store.ListActivities(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if activities == nil {
		activities = []*store.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

type noteRequest struct {
	Note  string `json:"note"`
	Actor string `json:"actor"`
}

// AddNote appends a manual note to the lead's timeline.
// POST /api/v1/leads/{id}/activities
func (h *LeadsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Actor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "actor required"})
		return
	}

	activity, err := h.service.AddNote(r.Context(), id, req.Note, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

type assignRequest struct {
	AgentID string `json:"agent_id"`
	Actor   string `json:"actor"`
}

// Assign applies a manual assignment.
// POST /api/v1/leads/{id}/assign
func (h *LeadsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent_id"})
		return
	}
	if req.Actor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "actor required"})
		return
	}

	lead, err := h.service.Assign(r.Context(), id, agentID, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type statusRequest struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id,omitempty"`
	Actor   string `json:"actor"`
}

// UpdateStatus transitions a lead. An agent change may ride along in the
// same call; it is applied before the status write.
// POST /api/v1/leads/{id}/status
func (h *LeadsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	status := store.LeadStatus(req.Status)
	switch status {
	case store.StatusNew, store.StatusInService, store.StatusConverted, store.StatusLost, store.StatusArchived:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if req.Actor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "actor required"})
		return
	}

	if req.AgentID != "" {
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent_id"})
			return
		}
		if _, err := h.service.Assign(r.Context(), id, agentID, req.Actor); err != nil {
			writeError(w, err)
			return
		}
	}

	lead, err := h.service.UpdateStatus(r.Context(), id, status, req.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, intake.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidAssignee):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrAtCapacity):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
