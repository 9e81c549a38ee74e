package meal

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
	"github.com/EmpoweredVote/meal-tracker/internal/utils"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

type Handler struct {
	svc *Service
	val *validation.Validator
	log *zap.Logger
}

func NewHandler(svc *Service, val *validation.Validator, log *zap.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

func (h *Handler) RecordMealHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req RecordRequest
	if err := h.val.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	// both parse; the validator already checked the format
	start, _ := time.Parse(time.RFC3339, req.StartTime)
	end, _ := time.Parse(time.RFC3339, req.EndTime)

	rec, err := h.svc.RecordMeal(r.Context(), userID, start, end)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"status": "success", "data": rec})
}

func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	recs, err := h.svc.GetMealHistory(r.Context(), userID, Filter(r.URL.Query().Get("filterType")))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "data": recs})
}
