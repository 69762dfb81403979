package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Repository is the persistence surface the team service relies on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	FindMembership(ctx context.Context, sellerID, userID uuid.UUID) (*models.Membership, error)
	CreateMembership(ctx context.Context, membership *models.Membership) error
	UpdateRole(ctx context.Context, membershipID uuid.UUID, role enums.MemberRole) error
	DeleteMembership(ctx context.Context, membershipID uuid.UUID) error
	ListMembers(ctx context.Context, sellerID uuid.UUID) ([]Member, error)
	CreateSellerOrg(ctx context.Context, org *models.SellerOrg) error
	CreateInvite(ctx context.Context, invite *models.Invite) error
	FindInvite(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	MarkInviteAccepted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	PromoteToSeller(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListByUser returns every membership the user holds. It backs the permission resolver.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&memberships).Error
	return memberships, err
}

func (r *repository) FindMembership(ctx context.Context, sellerID, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("seller_org_id = ? AND user_id = ?", sellerID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) CreateMembership(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *repository) UpdateRole(ctx context.Context, membershipID uuid.UUID, role enums.MemberRole) error {
	return r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Update("role", role).Error
}

func (r *repository) DeleteMembership(ctx context.Context, membershipID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", membershipID).
		Delete(&models.Membership{}).Error
}

type memberRow struct {
	models.Membership
	Email string `gorm:"column:email"`
	Name  string `gorm:"column:name"`
}

func (r *repository) ListMembers(ctx context.Context, sellerID uuid.UUID) ([]Member, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, users.email, users.name").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.seller_org_id = ?", sellerID).
		Order("memberships.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, Member{
			MembershipID: row.ID,
			UserID:       row.UserID,
			Email:        row.Email,
			Name:         row.Name,
			Role:         row.Role,
			CreatedAt:    row.CreatedAt,
		})
	}
	return members, nil
}

func (r *repository) CreateSellerOrg(ctx context.Context, org *models.SellerOrg) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) CreateInvite(ctx context.Context, invite *models.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *repository) FindInvite(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// MarkInviteAccepted flips a pending invite to accepted. It reports false when
// the invite was no longer pending.
func (r *repository) MarkInviteAccepted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, enums.InviteStatusPending).
		Updates(map[string]any{
			"status":      enums.InviteStatusAccepted,
			"accepted_by": userID,
			"accepted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// PromoteToSeller upgrades buyers; admins and sellers are left untouched.
func (r *repository) PromoteToSeller(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND system_role = ?", userID, enums.SystemRoleBuyer).
		Update("system_role", enums.SystemRoleSeller).Error
}
