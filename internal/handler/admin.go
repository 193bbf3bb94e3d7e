package handler

import (
	"net/http"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	svc *service.EntitlementService
}

func NewAdminHandler(svc *service.EntitlementService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// GetStats returns system-wide counts.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// SetUnlimited handles PUT /api/admin/entitlements/{userId}/unlimited.
func (h *AdminHandler) SetUnlimited(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		Error(w, domain.ErrValidation("userId", "userId is required"))
		return
	}

	var req domain.SetUnlimitedRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.svc.SetUnlimited(r.Context(), userID, *req.Unlimited)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}
