package handler

import (
	"net/http"

	"github.com/comate/comate/internal/api/response"
	"github.com/comate/comate/internal/services/catalog"
	"github.com/comate/comate/internal/services/matching"
)

// MatchHandler handles batch matching and the read-only public endpoints
type MatchHandler struct {
	matching *matching.Service
	catalog  *catalog.Service
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matching *matching.Service, catalog *catalog.Service) *MatchHandler {
	return &MatchHandler{
		matching: matching,
		catalog:  catalog,
	}
}

// BatchMatch handles POST /api/v1/admin/batch-match
func (h *MatchHandler) BatchMatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.matching.RunBatch(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BatchFromModel(result))
}

// Stats handles GET /api/v1/stats
func (h *MatchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.matching.Stats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsFromModel(stats))
}

// Questions handles GET /api/v1/questions
func (h *MatchHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.catalog.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.QuestionsFromModel(questions))
}
