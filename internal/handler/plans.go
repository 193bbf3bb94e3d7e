package handler

import (
	"net/http"

	"github.com/creatorkit/backend/internal/domain"
)

// FeatureLister exposes the feature cost table.
type FeatureLister interface {
	List() []domain.FeatureCost
}

// PlansHandler handles the public catalogue endpoints.
type PlansHandler struct {
	features FeatureLister
}

// NewPlansHandler creates a new PlansHandler.
func NewPlansHandler(features FeatureLister) *PlansHandler {
	return &PlansHandler{features: features}
}

// List handles GET /api/plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.AvailablePlans())
}

// Features handles GET /api/features.
func (h *PlansHandler) Features(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.features.List())
}
