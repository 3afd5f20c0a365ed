package business

import (
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

// Create handles POST /businesses
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	var dto CreateBusinessDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.CreateBusiness(r.Context(), callerID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// Get handles GET /businesses/{owner}/{business}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.GetBusiness(r.Context(), callerID, GetBusinessQuery{
		OwnerName:    chi.URLParam(r, "owner"),
		BusinessName: chi.URLParam(r, "business"),
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetByID handles GET /businesses/{businessId}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	id, err := transport.Int64Param(chi.URLParam(r, "businessId"), "businessId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	resp, err := h.Service.GetBusiness(r.Context(), callerID, GetBusinessQuery{BusinessID: id})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /businesses/{owner}/{business}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteBusiness(r.Context(), callerID, chi.URLParam(r, "owner"), chi.URLParam(r, "business")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOwned handles GET /users/me/businesses
func (h *Handler) ListOwned(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListOwnedBusinesses(r.Context(), callerID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, list)
}
