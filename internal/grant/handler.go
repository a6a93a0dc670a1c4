package grant

import (
	"context"
	"net/http"

	"github.com/frahmantamala/access-approval/internal/transport"
)

type ServiceAPI interface {
	ListForUser(ctx context.Context, userID int64) ([]*AccessGrant, error)
}

type GrantsResponse struct {
	Grants []*AccessGrant `json:"grants"`
}

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

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}
	grants, err := h.Service.ListForUser(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsResponse{Grants: grants})
}
