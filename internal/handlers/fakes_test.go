package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
	"github.com/bookwell/bookwell-api/internal/repository"
)

// fakeStore backs handler tests with an in-memory implementation of the
// repository interfaces. Accept applies the invite transition and the
// membership grant under one lock, mirroring the transactional store.
type fakeStore struct {
	mu          sync.Mutex
	businesses  map[string]models.Business
	invites     map[string]models.Invitation
	memberships map[string]models.StaffMembership
	tokenIndex  map[string]string

	// collisions forces the next n CreateInvite calls to report a token
	// collision; failGrant makes accepts fail after the lookup.
	collisions int
	failGrant  bool

	seq  int
	base time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		businesses:  make(map[string]models.Business),
		invites:     make(map[string]models.Invitation),
		memberships: make(map[string]models.StaffMembership),
		tokenIndex:  make(map[string]string),
		base:        time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func membershipKey(businessID, userID string) string {
	return businessID + "/" + userID
}

func (s *fakeStore) addBusiness(id, name, ownerID string) models.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	business := models.Business{ID: id, Name: name, OwnerID: ownerID, CreatedAt: s.base, UpdatedAt: s.base}
	s.businesses[id] = business
	return business
}

func (s *fakeStore) addMembership(m models.StaffMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey(m.BusinessID, m.UserID)] = m
}

func (s *fakeStore) invite(id string) models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invites[id]
}

func (s *fakeStore) membership(businessID, userID string) (models.StaffMembership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipKey(businessID, userID)]
	return m, ok
}

// InviteRepository

func (s *fakeStore) CreateInvite(_ context.Context, invite models.Invitation, now time.Time) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.invites {
		if existing.BusinessID == invite.BusinessID && existing.Email == invite.Email &&
			existing.Status == models.InviteStatusPending && existing.IsExpired(now) {
			existing.Status = models.InviteStatusExpired
			s.invites[id] = existing
		}
	}

	for _, existing := range s.invites {
		if existing.BusinessID == invite.BusinessID && existing.Email == invite.Email &&
			existing.Status == models.InviteStatusPending {
			return models.Invitation{}, errs.Conflict("an active invite already exists for this email")
		}
	}

	if s.collisions > 0 {
		s.collisions--
		return models.Invitation{}, repository.ErrTokenCollision
	}
	if _, exists := s.tokenIndex[invite.Token]; exists {
		return models.Invitation{}, repository.ErrTokenCollision
	}

	s.seq++
	invite.ID = fmt.Sprintf("inv-%d", s.seq)
	invite.CreatedAt = s.base.Add(time.Duration(s.seq) * time.Minute)
	invite.UpdatedAt = invite.CreatedAt
	s.invites[invite.ID] = invite
	s.tokenIndex[invite.Token] = invite.ID
	return invite, nil
}

func (s *fakeStore) GetInviteByToken(_ context.Context, token string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokenIndex[token]
	if !ok {
		return models.Invitation{}, errs.NotFound("invite not found")
	}
	invite := s.invites[id]
	invite.BusinessName = s.businesses[invite.BusinessID].Name
	return invite, nil
}

func (s *fakeStore) ListPendingByEmail(_ context.Context, email string, now time.Time) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invites []models.Invitation
	for _, invite := range s.invites {
		if invite.Email != email || invite.Status != models.InviteStatusPending || invite.IsExpired(now) {
			continue
		}
		invite.BusinessName = s.businesses[invite.BusinessID].Name
		invites = append(invites, invite)
	}
	sort.Slice(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}

func (s *fakeStore) ListByBusiness(_ context.Context, businessID string) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invites []models.Invitation
	for _, invite := range s.invites {
		if invite.BusinessID == businessID {
			invites = append(invites, invite)
		}
	}
	sort.Slice(invites, func(i, j int) bool {
		return invites[i].CreatedAt.After(invites[j].CreatedAt)
	})
	return invites, nil
}

func (s *fakeStore) AcceptInvite(_ context.Context, inviteID, userID string, perms models.StaffPermissions, now time.Time) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || invite.Status != models.InviteStatusPending {
		return models.Invitation{}, errs.InvalidState("invite is no longer pending")
	}
	if s.failGrant {
		// Neither the transition nor the grant is applied.
		return models.Invitation{}, errs.Storage(errors.New("membership write failed"), "grant membership")
	}

	invite.Status = models.InviteStatusAccepted
	invite.AcceptedAt = &now
	invite.AcceptedBy = &userID
	invite.UpdatedAt = now
	s.invites[inviteID] = invite

	key := membershipKey(invite.BusinessID, userID)
	if existing, ok := s.memberships[key]; ok {
		existing.Permissions = existing.Permissions.Merge(perms)
		existing.UpdatedAt = now
		s.memberships[key] = existing
	} else {
		invitedBy := invite.InvitedBy
		s.memberships[key] = models.StaffMembership{
			BusinessID:  invite.BusinessID,
			UserID:      userID,
			Role:        invite.Role,
			Permissions: perms,
			InvitedBy:   &invitedBy,
			JoinedAt:    now,
			UpdatedAt:   now,
		}
	}
	return invite, nil
}

func (s *fakeStore) DeclineInvite(_ context.Context, inviteID string, now time.Time) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || invite.Status != models.InviteStatusPending {
		return models.Invitation{}, errs.InvalidState("invite is no longer pending")
	}
	invite.Status = models.InviteStatusDeclined
	invite.DeclinedAt = &now
	invite.UpdatedAt = now
	s.invites[inviteID] = invite
	return invite, nil
}

func (s *fakeStore) CancelInvite(_ context.Context, inviteID, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok || invite.BusinessID != businessID || invite.Status != models.InviteStatusPending {
		return errs.NotFound("pending invite not found")
	}
	delete(s.invites, inviteID)
	delete(s.tokenIndex, invite.Token)
	return nil
}

func (s *fakeStore) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, invite := range s.invites {
		if invite.Status == models.InviteStatusPending && invite.IsExpired(now) {
			invite.Status = models.InviteStatusExpired
			invite.UpdatedAt = now
			s.invites[id] = invite
			count++
		}
	}
	return count, nil
}

// BusinessRepository

func (s *fakeStore) CreateBusiness(_ context.Context, name, ownerID string) (models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	business := models.Business{
		ID:        fmt.Sprintf("biz-%d", s.seq),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.base,
		UpdatedAt: s.base,
	}
	s.businesses[business.ID] = business
	return business, nil
}

func (s *fakeStore) GetBusinessByID(_ context.Context, businessID string) (models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	business, ok := s.businesses[businessID]
	if !ok {
		return models.Business{}, errs.NotFound("business not found")
	}
	return business, nil
}

// fakeMemberships exposes the same store through the membership interface,
// whose ListByBusiness signature differs from the invite one.
type fakeMemberships struct {
	store *fakeStore
}

func (f *fakeMemberships) GetMembership(_ context.Context, businessID, userID string) (models.StaffMembership, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	membership, ok := f.store.memberships[membershipKey(businessID, userID)]
	if !ok {
		return models.StaffMembership{}, errs.NotFound("membership not found")
	}
	return membership, nil
}

func (f *fakeMemberships) ListByBusiness(_ context.Context, businessID string) ([]models.StaffMembership, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	var memberships []models.StaffMembership
	for _, membership := range f.store.memberships {
		if membership.BusinessID == businessID {
			memberships = append(memberships, membership)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].UserID < memberships[j].UserID
	})
	return memberships, nil
}

var (
	_ repository.InviteRepository     = (*fakeStore)(nil)
	_ repository.BusinessRepository   = (*fakeStore)(nil)
	_ repository.MembershipRepository = (*fakeMemberships)(nil)
)
