package auth

import (
	"net/http"

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

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.val.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	sess, err := h.svc.Register(r.Context(), req)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"token":  sess.Token,
		"user":   sess.User,
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.val.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"token":  sess.Token,
	})
}

// LogoutHandler has nothing to revoke; the client discards its token.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "logged out",
	})
}

func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	u, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "user": u})
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req ProfileRequest
	if err := h.val.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "user": u})
}

func (h *Handler) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req PasswordRequest
	if err := h.val.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	if err := h.svc.UpdatePassword(r.Context(), userID, req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "password updated"})
}

func (h *Handler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), userID); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "account deleted"})
}

// VerifyHandler echoes the identity carried by a valid token.
func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.WriteError(w, h.log, apperr.ErrUnauthenticated)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "success", "user": id})
}
