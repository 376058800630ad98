package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bazaar-market/apiserver/internal/auth"
	"github.com/bazaar-market/apiserver/internal/services"
	"github.com/bazaar-market/apiserver/types"
)

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	userService *services.UserService
	pageSize    int
}

func NewUserHandler(userService *services.UserService, pageSize int) *UserHandler {
	if pageSize < 1 {
		pageSize = 20
	}
	return &UserHandler{userService: userService, pageSize: pageSize}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, pageSize int) {
	handler := NewUserHandler(userService, pageSize)

	r.Get("/", handler.ListUsers)
	r.Get("/username/{username}", handler.GetUserByUsername)
	r.Get("/email/{email}", handler.GetUserByEmail)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.With(RequireIdentity).Put("/", handler.UpdateUser)
		r.With(RequireIdentity).Delete("/", handler.DeleteUser)
	})
}

// UserListResponse is the paginated list response payload.
type UserListResponse struct {
	Items []types.User `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := h.userService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: users,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserByEmail is admin-only; email addresses are not public identifiers.
func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	if err := auth.CheckAdmin(claimsFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}

	email := strings.TrimSpace(chi.URLParam(r, "email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update to the caller's own account, or to any
// account for admins. Only admins may change the admin flag.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := claimsFromContext(r.Context())
	if err := auth.CheckSelfOrAdmin(actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	var update types.UserUpdate
	if err := decodeStrict(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if update.IsAdmin != nil && !actor.IsAdmin {
		writeError(w, http.StatusForbidden, "insufficient privileges")
		return
	}

	user, err := h.userService.Update(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account and everything it owns, and returns the
// deleted record.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := auth.CheckSelfOrAdmin(claimsFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
