package memberships

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/retry"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages seller organizations and their teams.
type Service interface {
	CreateSellerOrg(ctx context.Context, principal auth.Principal, input CreateSellerInput) (*models.SellerOrg, error)
	Invite(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, input InviteInput) (*models.Invite, error)
	AcceptInvite(ctx context.Context, principal auth.Principal, inviteID uuid.UUID) (*models.Membership, error)
	AssignRole(ctx context.Context, principal auth.Principal, sellerID, userID uuid.UUID, role enums.MemberRole) error
	Remove(ctx context.Context, principal auth.Principal, sellerID, userID uuid.UUID) error
	ListMembers(ctx context.Context, principal auth.Principal, sellerID uuid.UUID) ([]Member, error)
}

// ServiceParams bundles the team service dependencies.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Permissions permissions.Checker
	Retry       retry.Policy
	Logger      *logger.Logger
	Clock       func() time.Time
}

type service struct {
	repo  Repository
	tx    txRunner
	perms permissions.Checker
	retry retry.Policy
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Permissions == nil {
		return nil, fmt.Errorf("permission checker required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:  params.Repo,
		tx:    params.Tx,
		perms: params.Permissions,
		retry: params.Retry,
		logg:  params.Logger,
		now:   func() time.Time { return clock().UTC() },
	}, nil
}

// CreateSellerOrg creates the organization together with its single owner membership.
func (s *service) CreateSellerOrg(ctx context.Context, principal auth.Principal, input CreateSellerInput) (*models.SellerOrg, error) {
	if principal.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller name required")
	}
	tier := input.PlanTier
	if tier == "" {
		tier = enums.PlanTierFree
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan tier")
	}

	var org *models.SellerOrg
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			org = &models.SellerOrg{
				ID:                 uuid.New(),
				Name:               name,
				OwnerID:            principal.UserID,
				PlanTier:           tier,
				SubscriptionStatus: enums.SubscriptionStatusInactive,
			}
			if err := repo.CreateSellerOrg(ctx, org); err != nil {
				return err
			}
			if err := repo.CreateMembership(ctx, &models.Membership{
				SellerOrgID: org.ID,
				UserID:      principal.UserID,
				Role:        enums.MemberRoleOwner,
			}); err != nil {
				return err
			}
			return repo.PromoteToSeller(ctx, principal.UserID)
		})
	})
	if err != nil {
		return nil, db.WrapStorage(err, "create seller organization")
	}

	s.logg.Info(s.logg.WithSellerID(ctx, org.ID.String()), "seller organization created")
	return org, nil
}

func (s *service) Invite(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, input InviteInput) (*models.Invite, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if err := validateAssignableRole(input.Role); err != nil {
		return nil, err
	}
	if err := s.perms.Require(ctx, principal, sellerID, enums.CapabilityTeamInvite); err != nil {
		return nil, err
	}

	invite := &models.Invite{
		SellerOrgID: sellerID,
		Email:       email,
		Role:        input.Role,
		Status:      enums.InviteStatusPending,
		InvitedBy:   principal.UserID,
	}
	if err := s.repo.CreateInvite(ctx, invite); err != nil {
		return nil, db.WrapStorage(err, "create invite")
	}
	return invite, nil
}

// AcceptInvite creates the membership, marks the invite accepted and upgrades
// the user's platform role. The three writes are replayed together on a
// write conflict.
func (s *service) AcceptInvite(ctx context.Context, principal auth.Principal, inviteID uuid.UUID) (*models.Membership, error) {
	if principal.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var membership *models.Membership
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			invite, err := repo.FindInvite(ctx, inviteID)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
				}
				return err
			}
			if invite.Status != enums.InviteStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "invite is no longer pending").
					WithDetails(map[string]any{"status": invite.Status})
			}

			user, err := repo.FindUser(ctx, principal.UserID)
			if err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
				}
				return err
			}
			if normalizeEmail(user.Email) != invite.Email {
				return pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
			}

			if _, err := repo.FindMembership(ctx, invite.SellerOrgID, user.ID); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "already a member of this seller")
			} else if !db.IsNotFound(err) {
				return err
			}

			membership = &models.Membership{
				SellerOrgID: invite.SellerOrgID,
				UserID:      user.ID,
				Role:        invite.Role,
				InvitedBy:   &invite.InvitedBy,
			}
			if err := repo.CreateMembership(ctx, membership); err != nil {
				return err
			}

			accepted, err := repo.MarkInviteAccepted(ctx, invite.ID, user.ID, s.now())
			if err != nil {
				return err
			}
			if !accepted {
				// someone else flipped the invite between our read and write
				return pkgerrors.New(pkgerrors.CodeWriteConflict, "invite changed concurrently")
			}
			return repo.PromoteToSeller(ctx, user.ID)
		})
	})
	if err != nil {
		return nil, db.WrapStorage(err, "accept invite")
	}
	return membership, nil
}

func (s *service) AssignRole(ctx context.Context, principal auth.Principal, sellerID, userID uuid.UUID, role enums.MemberRole) error {
	if err := validateAssignableRole(role); err != nil {
		return err
	}
	if err := s.perms.Require(ctx, principal, sellerID, enums.CapabilityTeamAssignRole); err != nil {
		return err
	}

	membership, err := s.findMembership(ctx, sellerID, userID)
	if err != nil {
		return err
	}
	if membership.Role == enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "owner role is immutable")
	}
	if membership.Role == role {
		return nil
	}
	if err := s.repo.UpdateRole(ctx, membership.ID, role); err != nil {
		return db.WrapStorage(err, "update member role")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, principal auth.Principal, sellerID, userID uuid.UUID) error {
	if err := s.perms.Require(ctx, principal, sellerID, enums.CapabilityTeamRemove); err != nil {
		return err
	}

	membership, err := s.findMembership(ctx, sellerID, userID)
	if err != nil {
		return err
	}
	if membership.Role == enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "owner cannot be removed")
	}
	if err := s.repo.DeleteMembership(ctx, membership.ID); err != nil {
		return db.WrapStorage(err, "remove member")
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, principal auth.Principal, sellerID uuid.UUID) ([]Member, error) {
	if err := s.perms.Require(ctx, principal, sellerID, enums.CapabilityTeamView); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, sellerID)
	if err != nil {
		return nil, db.WrapStorage(err, "list members")
	}
	return members, nil
}

func (s *service) findMembership(ctx context.Context, sellerID, userID uuid.UUID) (*models.Membership, error) {
	membership, err := s.repo.FindMembership(ctx, sellerID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, db.WrapStorage(err, "load membership")
	}
	return membership, nil
}

func validateAssignableRole(role enums.MemberRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
			WithDetails(map[string]any{"role": role})
	}
	if role == enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "owner role cannot be assigned")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
