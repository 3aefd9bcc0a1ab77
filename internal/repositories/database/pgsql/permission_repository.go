package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPermissionRepository struct {
	BaseRepository
}

// newPgxPermissionRepository creates a new repository for member permission lookups.
func newPgxPermissionRepository(pool *pgxpool.Pool) portsrepo.PermissionReader {
	return &PgxPermissionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PermissionReader = (*PgxPermissionRepository)(nil)

// HasPermission reports whether actorID holds permissionCode in organizationID.
// Admins hold every permission; removed members hold none.
func (r *PgxPermissionRepository) HasPermission(ctx context.Context, actorID, organizationID, permissionCode string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM organization_members m
			WHERE m.user_id = $1 AND m.organization_id = $2 AND m.role <> $4
			  AND (
			    m.role = $5
			    OR EXISTS (
			      SELECT 1 FROM member_permissions p
			      WHERE p.organization_id = m.organization_id AND p.user_id = m.user_id AND p.permission_code = $3
			    )
			  )
		);
	`
	var allowed bool
	err := r.Pool.QueryRow(ctx, query, actorID, organizationID, permissionCode,
		string(domain.RoleRemoved), string(domain.RoleAdmin)).Scan(&allowed)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check permission "+permissionCode, err)
	}
	return allowed, nil
}

// FindMemberRole returns the role actorID holds in organizationID.
func (r *PgxPermissionRepository) FindMemberRole(ctx context.Context, actorID, organizationID string) (domain.OrganizationRole, error) {
	query := `SELECT role FROM organization_members WHERE user_id = $1 AND organization_id = $2;`
	var role string
	err := r.Pool.QueryRow(ctx, query, actorID, organizationID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.NewAppError(500, "failed to find membership of user "+actorID, err)
	}
	return domain.OrganizationRole(role), nil
}
