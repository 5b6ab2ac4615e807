package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/authz"
	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
	"github.com/bookwell/bookwell-api/internal/notification"
	"github.com/bookwell/bookwell-api/internal/repository"
)

const (
	actionAccept  = "accept"
	actionDecline = "decline"
)

type InviteHandler struct {
	inviteRepo     repository.InviteRepository
	businessRepo   repository.BusinessRepository
	membershipRepo repository.MembershipRepository
	inviteTTL      time.Duration
	mailer         notification.InviteMailer
	urlTpl         string
	logger         zerolog.Logger
	now            func() time.Time
}

type createInviteRequest struct {
	BusinessID  string                  `json:"businessId"`
	Email       string                  `json:"email"`
	Role        string                  `json:"role"`
	Permissions models.StaffPermissions `json:"permissions"`
}

type respondInviteRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

type inviteListResponse struct {
	Invites []models.Invitation `json:"invites"`
}

func NewInviteHandler(
	inviteRepo repository.InviteRepository,
	businessRepo repository.BusinessRepository,
	membershipRepo repository.MembershipRepository,
	inviteTTL time.Duration,
	mailer notification.InviteMailer,
	inviteURLTemplate string,
	logger zerolog.Logger,
) *InviteHandler {
	if inviteURLTemplate == "" {
		inviteURLTemplate = "https://app.bookwell.dev/invites/respond?token=%s"
	}
	return &InviteHandler{
		inviteRepo:     inviteRepo,
		businessRepo:   businessRepo,
		membershipRepo: membershipRepo,
		inviteTTL:      inviteTTL,
		mailer:         mailer,
		urlTpl:         inviteURLTemplate,
		logger:         logger.With().Str("component", "invite_handler").Logger(),
		now:            time.Now,
	}
}

// CreateInvite issues a new staff invitation for a business. One active
// invite per (business, email); a racing duplicate gets a conflict.
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, errs.Validation("invalid request payload"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeError(w, h.logger, errs.Validation("email is required"))
		return
	}
	if strings.TrimSpace(req.BusinessID) == "" {
		writeError(w, h.logger, errs.Validation("businessId is required"))
		return
	}
	if req.Role != "" && req.Role != models.RoleStaff {
		writeError(w, h.logger, errs.Validation("role must be \"staff\""))
		return
	}

	business, err := h.businessRepo.GetBusinessByID(r.Context(), req.BusinessID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.allowStaffManagement(r, business, ident) {
		writeErrorCode(w, http.StatusForbidden, "forbidden", "insufficient permissions for business")
		return
	}

	now := h.now()
	invite := models.Invitation{
		BusinessID:  business.ID,
		InvitedBy:   ident.UserID,
		Email:       req.Email,
		Role:        models.RoleStaff,
		Permissions: req.Permissions,
		Status:      models.InviteStatusPending,
		ExpiresAt:   now.Add(h.inviteTTL),
	}

	created, err := h.persistWithToken(r, invite, now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.sendInviteMail(created, business.Name)

	writeJSON(w, http.StatusCreated, created)
}

// persistWithToken generates the invite token and stores the record. The
// unique token index is a backstop for the negligible collision case: one
// regenerate-and-retry, then the failure surfaces as a storage error.
func (h *InviteHandler) persistWithToken(r *http.Request, invite models.Invitation, now time.Time) (models.Invitation, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := generateInviteToken()
		if err != nil {
			return models.Invitation{}, errs.Storage(err, "generate invite token")
		}
		invite.Token = token

		created, err := h.inviteRepo.CreateInvite(r.Context(), invite, now)
		if err != nil {
			if errors.Is(err, repository.ErrTokenCollision) {
				continue
			}
			return models.Invitation{}, err
		}
		return created, nil
	}
	return models.Invitation{}, errs.Storage(repository.ErrTokenCollision, "issue invite")
}

func (h *InviteHandler) sendInviteMail(invite models.Invitation, businessName string) {
	if h.mailer == nil {
		return
	}
	inviteURL := fmt.Sprintf(h.urlTpl, invite.Token)
	if err := h.mailer.SendInvite(invite.Email, businessName, inviteURL); err != nil {
		// Delivery is an external collaborator; the stored invite is the
		// source of truth, so a mail failure never fails the request.
		h.logger.Warn().Err(err).Str("invite_id", invite.ID).Msg("failed to send invite email")
	}
}

// ListPendingInvites resolves pending, unexpired invites for an email,
// newest first. An email with no matches yields an empty list, not an
// error.
func (h *InviteHandler) ListPendingInvites(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, h.logger, errs.Validation("email query parameter is required"))
		return
	}

	invites, err := h.inviteRepo.ListPendingByEmail(r.Context(), email, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if invites == nil {
		invites = []models.Invitation{}
	}

	writeJSON(w, http.StatusOK, inviteListResponse{Invites: invites})
}

// RespondToInvite accepts or declines the invite identified by its token.
// Expiry is checked against now before the stored status, so an expired
// invite is gone even if the sweep has not rewritten it yet.
func (h *InviteHandler) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req respondInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, errs.Validation("invalid request payload"))
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		writeError(w, h.logger, errs.Validation("token is required"))
		return
	}
	if req.Action != actionAccept && req.Action != actionDecline {
		writeError(w, h.logger, errs.Validation("action must be \"accept\" or \"decline\""))
		return
	}

	invite, err := h.inviteRepo.GetInviteByToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	now := h.now()
	if invite.IsExpired(now) {
		writeError(w, h.logger, errs.Expired("invite has expired"))
		return
	}
	if invite.IsTerminal() {
		writeError(w, h.logger, errs.InvalidState("invite has already been responded to"))
		return
	}

	var updated models.Invitation
	switch req.Action {
	case actionAccept:
		updated, err = h.inviteRepo.AcceptInvite(r.Context(), invite.ID, ident.UserID, invite.Permissions, now)
	case actionDecline:
		updated, err = h.inviteRepo.DeclineInvite(r.Context(), invite.ID, now)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated.BusinessName = invite.BusinessName

	h.logger.Info().
		Str("invite_id", updated.ID).
		Str("business_id", updated.BusinessID).
		Str("action", req.Action).
		Str("user_id", ident.UserID).
		Msg("invite responded")

	writeJSON(w, http.StatusOK, updated)
}

// PreviewInvite lets an invitee inspect an invite before signing in. The
// response embeds the business summary and omits nothing the invitee
// would not already hold (they have the token).
func (h *InviteHandler) PreviewInvite(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		writeError(w, h.logger, errs.Validation("token is required"))
		return
	}

	invite, err := h.inviteRepo.GetInviteByToken(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if invite.IsExpired(h.now()) {
		writeError(w, h.logger, errs.Expired("invite has expired"))
		return
	}
	if invite.IsTerminal() {
		writeError(w, h.logger, errs.InvalidState("invite has already been responded to"))
		return
	}

	response := struct {
		BusinessID   string                  `json:"businessId"`
		BusinessName string                  `json:"businessName"`
		Email        string                  `json:"email"`
		Role         string                  `json:"role"`
		Permissions  models.StaffPermissions `json:"permissions"`
		ExpiresAt    time.Time               `json:"expiresAt"`
	}{
		BusinessID:   invite.BusinessID,
		BusinessName: invite.BusinessName,
		Email:        invite.Email,
		Role:         invite.Role,
		Permissions:  invite.Permissions,
		ExpiresAt:    invite.ExpiresAt,
	}

	writeJSON(w, http.StatusOK, response)
}

// ListBusinessInvites returns every invite for a business. Pending rows
// past their deadline are reported as expired even before the sweep has
// rewritten them.
func (h *InviteHandler) ListBusinessInvites(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	businessID := mux.Vars(r)["businessID"]
	business, err := h.businessRepo.GetBusinessByID(r.Context(), businessID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.allowStaffManagement(r, business, ident) {
		writeErrorCode(w, http.StatusForbidden, "forbidden", "insufficient permissions for business")
		return
	}

	invites, err := h.inviteRepo.ListByBusiness(r.Context(), business.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	now := h.now()
	for i := range invites {
		if invites[i].Status == models.InviteStatusPending && invites[i].IsExpired(now) {
			invites[i].Status = models.InviteStatusExpired
		}
	}
	if invites == nil {
		invites = []models.Invitation{}
	}

	writeJSON(w, http.StatusOK, inviteListResponse{Invites: invites})
}

// CancelInvite withdraws a pending invite before it is responded to.
func (h *InviteHandler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	ident, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	vars := mux.Vars(r)
	business, err := h.businessRepo.GetBusinessByID(r.Context(), vars["businessID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.allowStaffManagement(r, business, ident) {
		writeErrorCode(w, http.StatusForbidden, "forbidden", "insufficient permissions for business")
		return
	}

	if err := h.inviteRepo.CancelInvite(r.Context(), vars["inviteID"], business.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InviteHandler) allowStaffManagement(r *http.Request, business models.Business, ident authz.Identity) bool {
	if business.OwnerID == ident.UserID {
		return true
	}
	membership, err := h.membershipRepo.GetMembership(r.Context(), business.ID, ident.UserID)
	if err != nil {
		return false
	}
	return authz.CanManageStaff(business, membership, ident.UserID)
}

func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
