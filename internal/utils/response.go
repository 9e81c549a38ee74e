package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

type ErrorResponse struct {
	Status string              `json:"status"`
	Errors []apperr.FieldError `json:"errors"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status code and writes the error envelope.
// Internal errors are logged and answered with a generic message.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Status: "error",
			Errors: []apperr.FieldError{{Message: apperr.ErrInternal.Message}},
		})
		return
	}

	fields := appErr.Fields
	if len(fields) == 0 {
		fields = []apperr.FieldError{{Message: appErr.Message}}
	}
	WriteJSON(w, appErr.Kind.HTTPStatus(), ErrorResponse{Status: "error", Errors: fields})
}
