package handler

import (
	"net/http"
	"strconv"

	"github.com/creatorkit/backend/internal/contextkeys"
	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/service"
)

// CreditsHandler serves metered feature calls and the credit audit trail.
type CreditsHandler struct {
	usage        *service.UsageService
	entitlements *service.EntitlementService
}

func NewCreditsHandler(usage *service.UsageService, entitlements *service.EntitlementService) *CreditsHandler {
	return &CreditsHandler{usage: usage, entitlements: entitlements}
}

// Consume handles POST /api/credits/consume.
func (h *CreditsHandler) Consume(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.UserIDFrom(r.Context())
	if userID == "" {
		Error(w, domain.ErrUnauthorized("unauthorized"))
		return
	}

	var req domain.ConsumeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.usage.Consume(r.Context(), userID, req.Feature, req.Payload)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// Transactions handles GET /api/credits/transactions.
func (h *CreditsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.UserIDFrom(r.Context())
	if userID == "" {
		Error(w, domain.ErrUnauthorized("unauthorized"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(w, domain.ErrValidation("limit", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	txns, err := h.entitlements.History(r.Context(), userID, limit)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"transactions": txns})
}
