package repositories

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
)

// PermissionReader answers permission lookups for organization members.
type PermissionReader interface {
	// HasPermission reports whether actorID holds permissionCode in organizationID.
	HasPermission(ctx context.Context, actorID, organizationID, permissionCode string) (bool, error)

	// FindMemberRole returns actorID's role in organizationID, or apperrors.ErrNotFound
	// when the actor is not a member.
	FindMemberRole(ctx context.Context, actorID, organizationID string) (domain.OrganizationRole, error)
}
