package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stondral/tsew-sub002/pkg/db/dbtest"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
)

func newService(t *testing.T) (Service, *models.User, *models.SellerOrg, func() (*models.User, *models.SellerOrg)) {
	t.Helper()
	client, conn := dbtest.Client(t)
	user := &models.User{Email: "owner@example.com", SystemRole: enums.SystemRoleSeller}
	require.NoError(t, conn.Create(user).Error)
	org := &models.SellerOrg{Name: "Tea House", OwnerID: user.ID}
	require.NoError(t, conn.Create(org).Error)

	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Tx: client})
	require.NoError(t, err)
	reload := func() (*models.User, *models.SellerOrg) {
		var u models.User
		var o models.SellerOrg
		require.NoError(t, conn.First(&u, "id = ?", user.ID).Error)
		require.NoError(t, conn.First(&o, "id = ?", org.ID).Error)
		return &u, &o
	}
	return svc, user, org, reload
}

func TestActivateThenCancel(t *testing.T) {
	svc, user, _, reload := newService(t)
	ctx := context.Background()
	chargeAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Activate(ctx, Activation{
		UserID:         user.ID,
		SubscriptionID: "sub_123",
		Plan:           "pro_monthly",
		Cycle:          "monthly",
		ChargeAt:       &chargeAt,
	}))

	u, o := reload()
	assert.Equal(t, enums.SubscriptionStatusActive, u.SubscriptionStatus)
	require.NotNil(t, u.SubscriptionID)
	assert.Equal(t, "sub_123", *u.SubscriptionID)
	require.NotNil(t, u.BillingCycle)
	assert.Equal(t, enums.BillingCycleMonthly, *u.BillingCycle)
	require.NotNil(t, u.NextBillingDate)
	assert.True(t, u.NextBillingDate.Equal(chargeAt))
	assert.Equal(t, enums.PlanTierPro, o.PlanTier)
	assert.Equal(t, enums.SubscriptionStatusActive, o.SubscriptionStatus)

	require.NoError(t, svc.Cancel(ctx, "sub_123"))
	u, o = reload()
	assert.Equal(t, enums.SubscriptionStatusCancelled, u.SubscriptionStatus)
	assert.Equal(t, enums.SubscriptionStatusCancelled, o.SubscriptionStatus)
	assert.Equal(t, "sub_123", *u.SubscriptionID)
}

func TestCancelUnknownSubscription(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.Cancel(context.Background(), "sub_missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestActivateUnknownUser(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.Activate(context.Background(), Activation{UserID: uuid.New(), SubscriptionID: "sub_1"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestParseCycleAndTier(t *testing.T) {
	assert.Equal(t, enums.BillingCycleYearly, *ParseCycle("Annual"))
	assert.Nil(t, ParseCycle("weekly"))
	assert.Equal(t, enums.PlanTierBasic, *PlanTierFor("basic_yearly"))
	assert.Nil(t, PlanTierFor("enterprise"))
}
