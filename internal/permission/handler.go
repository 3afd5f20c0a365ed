package permission

import (
	"net/http"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base}
}

// List handles GET /permissions/{kind}
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.HandleServiceError(w, r, internal.NewNotFoundError("Unknown permission kind.", internal.ErrCodeKindNotFound))
		return
	}
	h.WriteJSON(w, http.StatusOK, All(kind))
}
