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

// IssueHandler provides HTTP handlers for facility issues.
type IssueHandler struct {
	issueService *services.IssueService
	userService  *services.UserService
}

// NewIssueHandler constructs a handler with the provided services.
func NewIssueHandler(issueService *services.IssueService, userService *services.UserService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
		userService:  userService,
	}
}

// IssueRouter registers issue routes on the given router. Reads are
// public; every mutation requires authentication.
func IssueRouter(
	r chi.Router,
	issueService *services.IssueService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewIssueHandler(issueService, userService)

	r.Get("/", handler.ListIssues)
	r.With(authMiddleware).Post("/", handler.CreateIssue)
	r.Route("/{issueID}", func(r chi.Router) {
		r.Get("/", handler.GetIssue)
		r.With(authMiddleware).Put("/", handler.UpdateIssue)
		r.With(authMiddleware).Delete("/", handler.DeleteIssue)
		r.With(authMiddleware).Post("/upvote", handler.ToggleUpvote)
		r.With(authMiddleware).Put("/assign", handler.AssignIssue)
		r.With(authMiddleware).Put("/status", handler.UpdateIssueStatus)
	})
}

// IssueListResponse is the paginated list response payload.
type IssueListResponse struct {
	Issues []types.ExpandedIssue `json:"issues"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
	Total  int                   `json:"total"`
}

// AssignRequest names the user an admin assigns an issue to.
type AssignRequest struct {
	AssigneeID int `json:"assignee_id"`
}

func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := store.IssueFilter{
		Category:  strings.TrimSpace(query.Get("category")),
		Status:    strings.TrimSpace(query.Get("status")),
		Priority:  strings.TrimSpace(query.Get("priority")),
		Search:    strings.TrimSpace(query.Get("search")),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.TrimSpace(query.Get("sortOrder")),
		Offset:    offset,
		Limit:     limit,
	}

	issues, total, err := h.issueService.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IssueListResponse{
		Issues: issues,
		Page:   page,
		Limit:  limit,
		Total:  total,
	})
}

func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	issue, err := h.issueService.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var in services.IssueCreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	issue, err := h.issueService.Create(r.Context(), in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (h *IssueHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var in services.IssueUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	issue, err := h.issueService.Update(r.Context(), id, in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) ToggleUpvote(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	issue, err := h.issueService.ToggleUpvote(r.Context(), id, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) AssignIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	issue, err := h.issueService.Assign(r.Context(), id, req.AssigneeID, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) UpdateIssueStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var in services.IssueStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	issue, err := h.issueService.UpdateStatus(r.Context(), id, in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "issueID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	caller := callerFromRequest(r, h.userService)
	if err := h.issueService.Delete(r.Context(), id, caller); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
