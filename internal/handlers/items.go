package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campusdesk/apiserver/internal/services"
	"github.com/campusdesk/apiserver/internal/store"
	"github.com/campusdesk/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ItemHandler provides HTTP handlers for lost/found items.
type ItemHandler struct {
	itemService *services.ItemService
	userService *services.UserService
}

// NewItemHandler constructs a handler with the provided services.
func NewItemHandler(itemService *services.ItemService, userService *services.UserService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		userService: userService,
	}
}

// ItemRouter registers item routes on the given router. Reads are
// public; every mutation requires authentication.
func ItemRouter(
	r chi.Router,
	itemService *services.ItemService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewItemHandler(itemService, userService)

	r.Get("/", handler.ListItems)
	r.With(authMiddleware).Post("/", handler.CreateItem)
	r.Route("/{itemID}", func(r chi.Router) {
		r.Get("/", handler.GetItem)
		r.With(authMiddleware).Put("/", handler.UpdateItem)
		r.With(authMiddleware).Delete("/", handler.DeleteItem)
		r.With(authMiddleware).Post("/claim", handler.ClaimItem)
		r.With(authMiddleware).Post("/verify", handler.VerifyItem)
		r.With(authMiddleware).Post("/close", handler.CloseItem)
	})
}

// ItemListResponse is the paginated list response payload.
type ItemListResponse struct {
	Items []types.ExpandedItem `json:"items"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := store.ItemFilter{
		Category:  strings.TrimSpace(query.Get("category")),
		Status:    strings.TrimSpace(query.Get("status")),
		Type:      strings.TrimSpace(query.Get("type")),
		Search:    strings.TrimSpace(query.Get("search")),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.TrimSpace(query.Get("sortOrder")),
		Offset:    offset,
		Limit:     limit,
	}

	items, total, err := h.itemService.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ItemListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in services.ItemCreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	item, err := h.itemService.Create(r.Context(), in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var in services.ItemUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	item, err := h.itemService.Update(r.Context(), id, in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) ClaimItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	item, err := h.itemService.Claim(r.Context(), id, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) VerifyItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	item, err := h.itemService.Verify(r.Context(), id, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) CloseItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	item, err := h.itemService.Close(r.Context(), id, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	if err := h.itemService.Delete(r.Context(), id, caller); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
