package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// permissionGate answers capability checks. With a cache configured, answers are
// memoised for the TTL, so a revoked permission keeps working until its entry expires.
type permissionGate struct {
	BaseService
	permissionRepo portsrepo.PermissionReader
	cache          *expirable.LRU[string, bool]
}

// NewPermissionGate creates a PermissionGateSvc. A zero size or ttl disables memoisation.
func NewPermissionGate(permissionRepo portsrepo.PermissionReader, size int, ttl time.Duration) portssvc.PermissionGateSvc {
	g := &permissionGate{permissionRepo: permissionRepo}
	if size > 0 && ttl > 0 {
		g.cache = expirable.NewLRU[string, bool](size, nil, ttl)
	}
	return g
}

// Ensure permissionGate implements the PermissionGateSvc interface
var _ portssvc.PermissionGateSvc = (*permissionGate)(nil)

// CanPerform reports whether actorID may perform permDomain.resource.action in organizationID.
func (g *permissionGate) CanPerform(ctx context.Context, actorID, organizationID, permDomain, resource, action string) bool {
	if actorID == "" || organizationID == "" {
		return false
	}

	code := domain.PermissionCode(permDomain, resource, action)
	key := organizationID + "|" + actorID + "|" + code
	if g.cache != nil {
		if allowed, ok := g.cache.Get(key); ok {
			return allowed
		}
	}

	allowed, err := g.permissionRepo.HasPermission(ctx, actorID, organizationID, code)
	if err != nil {
		// Lookup failures deny and are not memoised
		g.LogError(ctx, err, "Permission lookup failed, denying",
			slog.String("actor_id", actorID),
			slog.String("organization_id", organizationID),
			slog.String("permission", code))
		return false
	}

	if g.cache != nil {
		g.cache.Add(key, allowed)
	}
	return allowed
}

// AuthorizeRole checks actorID's membership role in organizationID against required.
func (g *permissionGate) AuthorizeRole(ctx context.Context, actorID, organizationID string, required domain.OrganizationRole) error {
	if actorID == "" || organizationID == "" {
		return apperrors.NewAccessDeniedError("an authenticated organization member is required")
	}

	role, err := g.permissionRepo.FindMemberRole(ctx, actorID, organizationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			g.LogWarn(ctx, "Authorization failed: user is not a member",
				slog.String("actor_id", actorID),
				slog.String("organization_id", organizationID))
			return apperrors.NewAccessDeniedError("actor is not a member of the organization")
		}
		g.LogError(ctx, err, "Membership lookup failed",
			slog.String("actor_id", actorID),
			slog.String("organization_id", organizationID))
		return err
	}

	if !role.Satisfies(required) {
		g.LogWarn(ctx, "Authorization failed: user lacks required role",
			slog.String("actor_id", actorID),
			slog.String("organization_id", organizationID),
			slog.String("user_role", string(role)),
			slog.String("required_role", string(required)))
		return apperrors.NewAccessDeniedError("actor's organization role does not allow this operation")
	}
	return nil
}
