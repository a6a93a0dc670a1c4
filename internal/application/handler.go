package application

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/access-approval/internal"
	"github.com/frahmantamala/access-approval/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, applicantID int64, dto SubmitApplicationDTO) (*Application, error)
	OwnerDecide(ctx context.Context, applicationID, ownerID int64, dto DecisionDTO) (*DecisionResult, error)
	AdminDecide(ctx context.Context, applicationID, adminID int64, dto DecisionDTO) (*DecisionResult, error)
	GetApplication(ctx context.Context, applicationID, requesterID int64) (*Application, error)
	ListForOwner(ctx context.Context, ownerID int64, q OwnerQuery) ([]*Application, error)
	ListForAdmin(ctx context.Context, adminID int64, pendingOnly bool) ([]*Application, error)
	ListForApplicant(ctx context.Context, userID int64) ([]*Application, error)
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

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	var dto SubmitApplicationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("Submit: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.Service.Submit(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(app))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	apps, err := h.Service.ListForApplicant(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToListResponse(apps))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}
	applicationID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	app, err := h.Service.GetApplication(r.Context(), applicationID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(app))
}

// ListForOwner serves GET /owner/applications?service_id=&pending=
func (h *Handler) ListForOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	pending, err := pendingParam(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	q := OwnerQuery{PendingOnly: pending}
	if raw := r.URL.Query().Get("service_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, internal.NewValidationFieldError("service_id", "invalid service_id", internal.ErrCodeInvalidID))
			return
		}
		q.ServiceID = &id
	}

	apps, err := h.Service.ListForOwner(r.Context(), userID, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToListResponse(apps))
}

// ListForAdmin serves GET /admin/applications?pending=
func (h *Handler) ListForAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}

	pending, err := pendingParam(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	apps, err := h.Service.ListForAdmin(r.Context(), userID, pending)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToListResponse(apps))
}

func (h *Handler) OwnerDecide(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.OwnerDecide)
}

func (h *Handler) AdminDecide(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.AdminDecide)
}

type decideFunc func(ctx context.Context, applicationID, userID int64, dto DecisionDTO) (*DecisionResult, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	userID, ok := h.CallerID(w, r)
	if !ok {
		return
	}
	applicationID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("decide: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := fn(r.Context(), applicationID, userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result.ToResponse())
}

func pendingParam(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("pending")
	if raw == "" {
		return false, nil
	}
	pending, err := strconv.ParseBool(raw)
	if err != nil {
		return false, internal.NewValidationFieldError("pending", "pending must be true or false", internal.ErrCodeValidationFailed)
	}
	return pending, nil
}
