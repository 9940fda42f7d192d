package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/campusdesk/apiserver/internal/services"
	"github.com/campusdesk/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides HTTP handlers for account management.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers account-management routes. All routes require
// authentication; the admin-only rules are enforced by the service.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListUsers)
	r.Put("/me", handler.UpdateProfile)
	r.Put("/{userID}/role", handler.SetRole)
	r.Put("/{userID}/active", handler.SetActive)
}

// UserListResponse is the paginated account list payload.
type UserListResponse struct {
	Users []types.User `json:"users"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

// ProfileRequest is a partial self-service profile update.
type ProfileRequest struct {
	Name      *string `json:"name"`
	StudentID *string `json:"student_id"`
	Password  *string `json:"password"`
}

// RoleRequest sets a user's role.
type RoleRequest struct {
	Role types.Role `json:"role"`
}

// ActiveRequest toggles a user's active flag.
type ActiveRequest struct {
	Active bool `json:"active"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := callerFromRequest(r, h.userService)
	users, total, err := h.userService.List(r.Context(), offset, limit, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Users: users,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	in := services.ProfileInput{
		Name:      req.Name,
		StudentID: req.StudentID,
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update password")
			return
		}
		hash := string(hashed)
		in.PasswordHash = &hash
	}

	caller := callerFromRequest(r, h.userService)
	user, err := h.userService.UpdateProfile(r.Context(), in, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	user, err := h.userService.SetRole(r.Context(), id, req.Role, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller := callerFromRequest(r, h.userService)
	user, err := h.userService.SetActive(r.Context(), id, req.Active, caller)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
