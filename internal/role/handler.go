package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rogue-contacts/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Create handles POST /businesses/{owner}/{business}/roles
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	var dto CreateRoleDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.CreateRole(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business"), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// List handles GET /businesses/{owner}/{business}/roles
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	roles, err := h.Service.GetAllRoles(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}

// Update handles PATCH /businesses/{owner}/{business}/roles/{roleId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	roleID, err := transport.Int64Param(chi.URLParam(r, "roleId"), "roleId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateRoleDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.UpdateRole(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business"), roleID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /businesses/{owner}/{business}/roles/{roleId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	roleID, err := transport.Int64Param(chi.URLParam(r, "roleId"), "roleId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.DeleteRole(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business"), roleID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Assign handles PUT /businesses/{owner}/{business}/roles/{roleId}/members/{username}
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Service.AssignRole)
}

// Unassign handles DELETE /businesses/{owner}/{business}/roles/{roleId}/members/{username}
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.Service.UnassignRole)
}

type membershipFunc func(ctx context.Context, callerID int64, owner, business string, roleID int64, username string) error

func (h *Handler) membership(w http.ResponseWriter, r *http.Request, fn membershipFunc) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	roleID, err := transport.Int64Param(chi.URLParam(r, "roleId"), "roleId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	err = fn(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business"), roleID, chi.URLParam(r, "username"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
