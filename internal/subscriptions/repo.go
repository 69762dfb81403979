package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Repository writes subscription state onto users and the seller orgs they own.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error)
	UpdateUserSubscription(ctx context.Context, userID uuid.UUID, state State) error
	UpdateOwnedSellerOrgs(ctx context.Context, ownerID uuid.UUID, status enums.SubscriptionStatus, tier *enums.PlanTier) error
}

// State is the subscription snapshot stored on a user.
type State struct {
	SubscriptionID  string
	Plan            string
	Status          enums.SubscriptionStatus
	NextBillingDate *time.Time
	Cycle           *enums.BillingCycle
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindUserBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserSubscription overwrites the subscription columns. Empty id and
// plan leave the stored values in place.
func (r *repository) UpdateUserSubscription(ctx context.Context, userID uuid.UUID, state State) error {
	updates := map[string]any{"subscription_status": state.Status}
	if state.SubscriptionID != "" {
		updates["subscription_id"] = state.SubscriptionID
	}
	if state.Plan != "" {
		updates["subscription_plan"] = state.Plan
	}
	if state.NextBillingDate != nil {
		updates["next_billing_date"] = *state.NextBillingDate
	}
	if state.Cycle != nil {
		updates["billing_cycle"] = *state.Cycle
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

func (r *repository) UpdateOwnedSellerOrgs(ctx context.Context, ownerID uuid.UUID, status enums.SubscriptionStatus, tier *enums.PlanTier) error {
	updates := map[string]any{"subscription_status": status}
	if tier != nil {
		updates["plan_tier"] = *tier
	}
	return r.db.WithContext(ctx).
		Model(&models.SellerOrg{}).
		Where("owner_id = ?", ownerID).
		Updates(updates).Error
}
