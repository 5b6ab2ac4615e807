package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/authz"
	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
	"github.com/bookwell/bookwell-api/internal/repository"
)

type BusinessHandler struct {
	businessRepo   repository.BusinessRepository
	membershipRepo repository.MembershipRepository
	logger         zerolog.Logger
}

func NewBusinessHandler(businessRepo repository.BusinessRepository, membershipRepo repository.MembershipRepository, logger zerolog.Logger) *BusinessHandler {
	return &BusinessHandler{
		businessRepo:   businessRepo,
		membershipRepo: membershipRepo,
		logger:         logger.With().Str("component", "business_handler").Logger(),
	}
}

func (h *BusinessHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, h.logger, errs.Validation("invalid request payload"))
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeError(w, h.logger, errs.Validation("business name is required"))
		return
	}

	business, err := h.businessRepo.CreateBusiness(r.Context(), payload.Name, ident.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, business)
}

func (h *BusinessHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	business, err := h.businessRepo.GetBusinessByID(r.Context(), mux.Vars(r)["businessID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

// ListStaff returns the staff memberships of a business, including the
// permission flags each member holds.
func (h *BusinessHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	business, err := h.businessRepo.GetBusinessByID(r.Context(), mux.Vars(r)["businessID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	staff, err := h.membershipRepo.ListByBusiness(r.Context(), business.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if staff == nil {
		staff = []models.StaffMembership{}
	}

	writeJSON(w, http.StatusOK, map[string][]models.StaffMembership{"staff": staff})
}
