package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/service"
)

type decideRequest struct {
	BeliefState *domain.BeliefState `json:"belief_state"`
	UserActs    []domain.UserAct    `json:"user_acts"`
}

type decideResponse struct {
	SysAct *domain.SysAct `json:"sys_act"`
	Turn   int            `json:"turn"`
}

// Decide runs one turn of the decision core for a session: it interprets
// the posted belief state and user acts and returns the chosen system act.
func (h *SessionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for i, act := range req.UserActs {
		if !domain.ValidUserActType(string(act.Type)) {
			writeError(w, http.StatusBadRequest, "invalid user act type at index "+strconv.Itoa(i))
			return
		}
	}

	act, turn, err := h.svc.Decide(r.Context(), id, req.BeliefState, req.UserActs)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to decide turn")
		return
	}

	writeJSON(w, http.StatusOK, decideResponse{SysAct: act, Turn: turn})
}
