package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/match"
	"github.com/showroomhq/leadrouter/internal/scoring"
)

type RoutingHandler struct {
	matcher *match.Matcher
}

func NewRoutingHandler(m *match.Matcher) *RoutingHandler {
	return &RoutingHandler{matcher: m}
}

// Rank returns the scored candidate list for a vehicle.
// GET /api/v1/routing/rank/{vehicle_id}?limit=n
func (h *RoutingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicle_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vehicle_id"})
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}

	start := time.Now()
	results, err := h.matcher.TopN(r.Context(), vehicleID, limit)
	rankingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []scoring.ScoreResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Decision returns the auto-assign verdict for a vehicle without applying it.
// GET /api/v1/routing/decision/{vehicle_id}
func (h *RoutingHandler) Decision(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicle_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vehicle_id"})
		return
	}

	start := time.Now()
	decision, err := h.matcher.Decide(r.Context(), vehicleID)
	rankingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
