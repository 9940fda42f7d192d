package handlers

import (
	"net/http"

	"github.com/campusdesk/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// StatsHandler serves simple per-status counts for admins.
type StatsHandler struct {
	itemService  *services.ItemService
	issueService *services.IssueService
	userService  *services.UserService
}

// StatsRouter registers the stats route.
func StatsRouter(
	r chi.Router,
	itemService *services.ItemService,
	issueService *services.IssueService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := &StatsHandler{
		itemService:  itemService,
		issueService: issueService,
		userService:  userService,
	}
	r.With(authMiddleware).Get("/", handler.GetStats)
}

// StatsResponse holds per-status counts for both resources.
type StatsResponse struct {
	Items  map[string]int `json:"items"`
	Issues map[string]int `json:"issues"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	caller := callerFromRequest(r, h.userService)

	itemCounts, err := h.itemService.StatusCounts(r.Context(), caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	issueCounts, err := h.issueService.StatusCounts(r.Context(), caller)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Items:  itemCounts,
		Issues: issueCounts,
	})
}
