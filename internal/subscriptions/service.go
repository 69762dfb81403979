package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Activation is a paid or activated subscription as reported by the gateway.
type Activation struct {
	UserID         uuid.UUID
	SubscriptionID string
	Plan           string
	Cycle          string
	ChargeAt       *time.Time
}

// Service applies gateway subscription events. It is the only writer of
// subscription state.
type Service interface {
	Activate(ctx context.Context, in Activation) error
	Cancel(ctx context.Context, subscriptionID string) error
}

type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger}, nil
}

// Activate marks the user's subscription active with the reported plan,
// cycle and next charge date, and lifts the orgs the user owns to the plan tier.
func (s *service) Activate(ctx context.Context, in Activation) error {
	if in.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription event carries no user")
	}
	if strings.TrimSpace(in.SubscriptionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	state := State{
		SubscriptionID:  strings.TrimSpace(in.SubscriptionID),
		Plan:            strings.TrimSpace(in.Plan),
		Status:          enums.SubscriptionStatusActive,
		NextBillingDate: in.ChargeAt,
		Cycle:           ParseCycle(in.Cycle),
	}
	tier := PlanTierFor(state.Plan)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindUser(ctx, in.UserID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription user not found")
			}
			return db.WrapStorage(err, "load subscription user")
		}
		if err := repo.UpdateUserSubscription(ctx, in.UserID, state); err != nil {
			return db.WrapStorage(err, "update user subscription")
		}
		return db.WrapStorage(repo.UpdateOwnedSellerOrgs(ctx, in.UserID, enums.SubscriptionStatusActive, tier),
			"update seller org subscription")
	})
}

// Cancel marks the subscription cancelled on whichever user holds it.
func (s *service) Cancel(ctx context.Context, subscriptionID string) error {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindUserBySubscriptionID(ctx, subscriptionID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no user holds this subscription")
			}
			return db.WrapStorage(err, "find subscription user")
		}
		err = repo.UpdateUserSubscription(ctx, user.ID, State{Status: enums.SubscriptionStatusCancelled})
		if err != nil {
			return db.WrapStorage(err, "cancel user subscription")
		}
		return db.WrapStorage(repo.UpdateOwnedSellerOrgs(ctx, user.ID, enums.SubscriptionStatusCancelled, nil),
			"cancel seller org subscription")
	})
}

// ParseCycle accepts the gateway's period names; unknown values are nil.
func ParseCycle(raw string) *enums.BillingCycle {
	var cycle enums.BillingCycle
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly", "month":
		cycle = enums.BillingCycleMonthly
	case "yearly", "year", "annual", "annually":
		cycle = enums.BillingCycleYearly
	default:
		return nil
	}
	return &cycle
}

// PlanTierFor maps a plan name such as "pro_monthly" onto a tier.
func PlanTierFor(plan string) *enums.PlanTier {
	name := strings.ToLower(plan)
	for _, tier := range []enums.PlanTier{enums.PlanTierPro, enums.PlanTierBasic} {
		if strings.HasPrefix(name, string(tier)) {
			t := tier
			return &t
		}
	}
	return nil
}
