package permissions

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
)

// MembershipSource lists every membership held by a user.
type MembershipSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
}

// Checker is the read-side contract other services depend on.
type Checker interface {
	HasPermission(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, capability enums.Capability) (bool, error)
	SellersWithPermission(ctx context.Context, principal auth.Principal, capability enums.Capability) (Scope, error)
	Require(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, capability enums.Capability) error
	RequireAll(ctx context.Context, principal auth.Principal, sellerIDs []uuid.UUID, capability enums.Capability) error
}

// Resolver answers capability questions from membership records. It has no
// side effects.
type Resolver struct {
	memberships MembershipSource
}

var _ Checker = (*Resolver)(nil)

func NewResolver(memberships MembershipSource) (*Resolver, error) {
	if memberships == nil {
		return nil, errors.New("membership source required")
	}
	return &Resolver{memberships: memberships}, nil
}

// ForRequest returns a resolver that loads each user's memberships at most once.
// Use one per request; it must not outlive the request.
func (r *Resolver) ForRequest() *Resolver {
	if _, cached := r.memberships.(*cachingSource); cached {
		return r
	}
	return &Resolver{memberships: &cachingSource{inner: r.memberships, byUser: map[uuid.UUID][]models.Membership{}}}
}

func (r *Resolver) HasPermission(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, capability enums.Capability) (bool, error) {
	if principal.IsPlatformAdmin() {
		return true, nil
	}
	if principal.IsZero() || sellerID == uuid.Nil || !capability.IsValid() {
		return false, nil
	}

	memberships, err := r.memberships.ListByUser(ctx, principal.UserID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load memberships")
	}
	for _, m := range memberships {
		if m.SellerOrgID == sellerID && RoleHasCapability(m.Role, capability) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) SellersWithPermission(ctx context.Context, principal auth.Principal, capability enums.Capability) (Scope, error) {
	if principal.IsPlatformAdmin() {
		return AllSellers(), nil
	}
	if principal.IsZero() || !capability.IsValid() {
		return Scope{}, nil
	}

	memberships, err := r.memberships.ListByUser(ctx, principal.UserID)
	if err != nil {
		return Scope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load memberships")
	}
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		if RoleHasCapability(m.Role, capability) {
			ids = append(ids, m.SellerOrgID)
		}
	}
	return SellerScope(ids...), nil
}

// Require fails with CodeForbidden unless the principal holds capability on
// sellerID. The error never explains which check failed.
func (r *Resolver) Require(ctx context.Context, principal auth.Principal, sellerID uuid.UUID, capability enums.Capability) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	ok, err := r.HasPermission(ctx, principal, sellerID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden()
	}
	return nil
}

// RequireAll requires capability on every seller in sellerIDs. An empty list
// is only satisfied by platform admins.
func (r *Resolver) RequireAll(ctx context.Context, principal auth.Principal, sellerIDs []uuid.UUID, capability enums.Capability) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if principal.IsPlatformAdmin() {
		return nil
	}
	if len(sellerIDs) == 0 {
		return forbidden()
	}
	scope, err := r.SellersWithPermission(ctx, principal, capability)
	if err != nil {
		return err
	}
	for _, id := range sellerIDs {
		if !scope.Contains(id) {
			return forbidden()
		}
	}
	return nil
}

func forbidden() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "forbidden")
}

type cachingSource struct {
	inner  MembershipSource
	mu     sync.Mutex
	byUser map[uuid.UUID][]models.Membership
}

func (c *cachingSource) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.byUser[userID]; ok {
		return cached, nil
	}
	memberships, err := c.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.byUser[userID] = memberships
	return memberships, nil
}
