package handler

import (
	"net/http"

	"github.com/creatorkit/backend/internal/contextkeys"
	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/service"
)

type EntitlementHandler struct {
	svc *service.EntitlementService
}

func NewEntitlementHandler(svc *service.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{svc: svc}
}

// Get handles GET /api/entitlement.
func (h *EntitlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.UserIDFrom(r.Context())
	if userID == "" {
		Error(w, domain.ErrUnauthorized("unauthorized"))
		return
	}

	resp, err := h.svc.Snapshot(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// Cancel handles POST /api/subscription/cancel.
func (h *EntitlementHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.UserIDFrom(r.Context())
	if userID == "" {
		Error(w, domain.ErrUnauthorized("unauthorized"))
		return
	}

	resp, err := h.svc.Cancel(r.Context(), userID)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}
