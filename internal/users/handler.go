package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trove-market/trove/internal/platform/httpx"
	"github.com/trove-market/trove/internal/shared"
)

// Handler wires user directory HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type elevateRequest struct {
	Role string `json:"role" validate:"required"`
}

// HandleList serves the user listing with item counts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	take, _ := strconv.Atoi(r.URL.Query().Get("take"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	listed, total, err := h.service.List(r.Context(), r.URL.Query().Get("term"), shared.Page{Take: take, Skip: skip})
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if listed == nil {
		listed = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": listed, "count": total})
}

// HandleElevate serves explicit role changes.
func (h *Handler) HandleElevate(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req elevateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Elevate(r.Context(), userID, req.Role); err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("elevate user", slog.Int64("userID", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("user with id = %d updated", userID)})
}
