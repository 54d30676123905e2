package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trove-market/trove/internal/platform/httpx"
	"github.com/trove-market/trove/internal/shared"
)

// Handler wires HTTP endpoints for registration and sign-in.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/sign-in", h.handleSignIn)
	r.Post("/users/{userID}/password", h.handleUpdatePassword)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required_without=Username,omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type updatePasswordRequest struct {
	UpdatePassToken string `json:"updatePassToken" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Register(r.Context(), req.Email, req.Username, req.Password); err != nil {
		if errors.Is(err, shared.ErrDuplicateName) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "user already exists")
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "user created"})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.SignIn(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			// Same body for unknown user and wrong password.
			httpx.JSON(w, http.StatusOK, map[string]any{"message": "user doesn't exist", "valid": false})
			return
		}
		h.logger.Error("sign in", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":         "user logged",
		"valid":           true,
		"token":           result.Token,
		"updatePassToken": result.UpdatePassToken,
	})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req updatePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdatePassword(r.Context(), userID, req.UpdatePassToken, req.NewPassword); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) || errors.Is(err, shared.ErrNotFound) {
			httpx.JSON(w, http.StatusOK, map[string]any{"message": "password not updated", "updated": false})
			return
		}
		h.logger.Error("update password", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "password updated", "updated": true})
}
