package tags

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

// Handler wires tag catalog HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type createTagRequest struct {
	Name        string `json:"name" validate:"required,max=30"`
	Description string `json:"description" validate:"max=300"`
}

type updateTagRequest struct {
	Description string `json:"description" validate:"required,max=300"`
}

// HandleList serves the tag listing with item counts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	take, _ := strconv.Atoi(r.URL.Query().Get("take"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	listed, total, err := h.service.List(r.Context(), r.URL.Query().Get("term"), shared.Page{Take: take, Skip: skip})
	if err != nil {
		h.logger.Error("list tags", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if listed == nil {
		listed = []WithCount{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tags": listed, "count": total})
}

// HandleCreate serves tag creation.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tag, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateName) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "tag already exists")
			return
		}
		h.logger.Error("create tag", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "tag created", "tag": tag})
}

// HandleUpdate serves tag description updates.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	tagID, err := strconv.ParseInt(chi.URLParam(r, "tagID"), 10, 64)
	if err != nil || tagID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tag id")
		return
	}
	var req updateTagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tag, err := h.service.UpdateDescription(r.Context(), tagID, req.Description)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no tag with that id")
			return
		}
		h.logger.Error("update tag", slog.Int64("tagID", tagID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("tag with id = %d updated", tag.ID),
		"tag":     tag,
	})
}
