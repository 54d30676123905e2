package items

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trove-market/trove/internal/historic"
	"github.com/trove-market/trove/internal/platform/httpx"
	"github.com/trove-market/trove/internal/shared"
)

// Handler wires the item directory HTTP endpoints. Ownership decisions
// live in the service scope; the handler only translates transport.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	ledger    *historic.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ledger *historic.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		ledger:    ledger,
		validator: validator.New(),
	}
}

// MountRoutes registers item routes on the provided router. The caller
// wraps them with authentication and the role gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleFindAll)
	r.Post("/create", h.handleCreate)
	r.Get("/{itemID}", h.handleFindOne)
	r.Post("/{itemID}/update", h.handleUpdate)
	r.Delete("/{itemID}/delete", h.handleDelete)
	r.Get("/{itemID}/changes", h.handleChanges)
	r.Post("/{itemID}/update-tags", h.handleUpdateTags)
	r.Get("/{itemID}/related-items", h.handleRelated)
}

func (h *Handler) handleFindAll(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	listed, total, err := h.service.FindAll(r.Context(), claims.UserID, claims.Role, parseListQuery(r), parsePage(r))
	if err != nil {
		h.logger.Error("find all items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if listed == nil {
		listed = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": listed, "count": total})
}

func (h *Handler) handleFindOne(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.FindOne(r.Context(), claims.UserID, claims.Role, itemID)
	if err != nil {
		if !IsNotFound(err) {
			h.logger.Error("find item", slog.Int64("itemID", itemID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item": item})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid multipart form")
		return
	}

	price, _ := strconv.ParseFloat(r.PostFormValue("price"), 64)
	stock, _ := strconv.Atoi(r.PostFormValue("stock"))
	form := createForm{
		Name:        r.PostFormValue("name"),
		Price:       price,
		Stock:       stock,
		Description: r.PostFormValue("description"),
		ColorTheme:  r.PostFormValue("colorTheme"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateInput{
		Name:        form.Name,
		Price:       form.Price,
		Stock:       form.Stock,
		Description: form.Description,
		ColorTheme:  form.ColorTheme,
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		input.File = file
		input.FileName = header.Filename
	}

	created, err := h.service.Create(r.Context(), claims.UserID, input)
	if err != nil {
		h.logger.Error("create item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "item created", "item": created})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.Update(r.Context(), claims.UserID, claims.Role, itemID, UpdateInput{
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
		ColorTheme:  req.ColorTheme,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		if IsNotFound(err) {
			// Hidden and missing items answer alike.
			httpx.JSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("no item with id = %d found", itemID)})
			return
		}
		h.logger.Error("update item", slog.Int64("itemID", itemID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("item with id = %d updated", itemID),
		"item":    item,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), claims.UserID, claims.Role, itemID)
	if err != nil {
		h.logger.Error("delete item", slog.Int64("itemID", itemID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !deleted {
		httpx.JSON(w, http.StatusOK, map[string]any{"message": "no item found"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("item with id = %d removed", itemID)})
}

func (h *Handler) handleChanges(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	dir := shared.ParseSortDirection(r.URL.Query().Get("order"))
	entries, total, err := h.ledger.ListChanges(r.Context(), itemID, claims.UserID, claims.Role, parsePage(r), dir)
	if err != nil {
		h.logger.Error("list item changes", slog.Int64("itemID", itemID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []historic.Entry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"changes": entries, "count": total})
}

func (h *Handler) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var req updateTagsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	item, err := h.service.UpdateTags(r.Context(), claims.UserID, claims.Role, itemID, req.TagsID)
	if err != nil {
		if IsNotFound(err) {
			httpx.JSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("no item with id = %d", itemID)})
			return
		}
		h.logger.Error("update item tags", slog.Int64("itemID", itemID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	verb := "updated"
	if len(item.Tags) == 0 {
		verb = "removed"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("tags %s for item with id = %d", verb, itemID),
		"item":    item,
	})
}

func (h *Handler) handleRelated(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	itemID, ok := h.itemID(w, r)
	if !ok {
		return
	}
	dir := shared.ParseSortDirection(r.URL.Query().Get("order"))
	result, err := h.service.Related(r.Context(), claims.UserID, claims.Role, itemID, parsePage(r), dir)
	if err != nil {
		if !IsNotFound(err) {
			h.logger.Error("related items", slog.Int64("itemID", itemID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	if !result.HasTags {
		httpx.JSON(w, http.StatusOK, map[string]any{"message": "item doesn't exist", "count": 0})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("items related to %q", result.Name),
		"items":   result.Items,
		"count":   result.Count,
	})
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return 0, false
	}
	return id, true
}
