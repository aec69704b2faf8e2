package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parleyhq/parley/internal/catalog"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/service"
)

type DomainHandler struct {
	svc *service.DialogService
}

func NewDomainHandler(svc *service.DialogService) *DomainHandler {
	return &DomainHandler{svc: svc}
}

type domainInfo struct {
	Name        string   `json:"name"`
	PrimaryKey  string   `json:"primary_key"`
	Requestable []string `json:"requestable_slots"`
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.svc.Domains()
	infos := make([]domainInfo, 0, len(names))
	for _, name := range names {
		ks, ok := h.svc.Source(name)
		if !ok {
			continue
		}
		infos = append(infos, domainInfo{
			Name:        ks.Name(),
			PrimaryKey:  ks.PrimaryKey(),
			Requestable: ks.SystemRequestableSlots(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"domains": infos,
		"count":   len(infos),
	})
}

type similarRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit,omitempty"`
}

const defaultSimilarLimit = 10

// Similar runs a nearest-neighbor lookup over a domain's entity embeddings.
// Only catalog sources backed by Postgres support this.
func (h *DomainHandler) Similar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "domain")
	ks, ok := h.svc.Source(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown domain")
		return
	}

	searcher, ok := ks.(catalog.SimilaritySearcher)
	if !ok {
		writeError(w, http.StatusBadRequest, "domain does not support similarity search")
		return
	}

	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Embedding) == 0 {
		writeError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = l
	}

	records, err := searcher.FindSimilarEntities(r.Context(), req.Embedding, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search entities")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": records,
		"count":    len(records),
	})
}
