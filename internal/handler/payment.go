package handler

import (
	"net/http"

	"github.com/creatorkit/backend/internal/contextkeys"
	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	verifier *service.PaymentVerifier
}

func NewPaymentHandler(verifier *service.PaymentVerifier) *PaymentHandler {
	return &PaymentHandler{verifier: verifier}
}

// Verify handles POST /api/payment/verify.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.UserIDFrom(r.Context())
	if userID == "" {
		Error(w, domain.ErrUnauthorized("unauthorized"))
		return
	}

	var req domain.VerifyPaymentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.verifier.Verify(r.Context(), userID, &req, correlationID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}

// correlationID reuses the request id so client reports can be matched to log lines.
func correlationID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
