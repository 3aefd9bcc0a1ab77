package domain

import (
	"strings"
	"time"
)

// OrganizationRole defines the possible roles a user can have within an organization.
type OrganizationRole string

const (
	RoleAdmin    OrganizationRole = "ADMIN" // Implicitly holds every permission
	RoleMember   OrganizationRole = "MEMBER"
	RoleReadOnly OrganizationRole = "READONLY"
	RoleRemoved  OrganizationRole = "REMOVED"
)

// roleRanks orders roles for Satisfies. REMOVED and unknown roles rank zero.
var roleRanks = map[OrganizationRole]int{
	RoleReadOnly: 1,
	RoleMember:   2,
	RoleAdmin:    3,
}

// Satisfies reports whether r grants at least the access of required.
func (r OrganizationRole) Satisfies(required OrganizationRole) bool {
	rank := roleRanks[r]
	return rank > 0 && rank >= roleRanks[required]
}

// OrganizationMember represents the membership of a user in an organization.
type OrganizationMember struct {
	UserID         string           `json:"userID"`
	OrganizationID string           `json:"organizationID"`
	Role           OrganizationRole `json:"role"`
	JoinedAt       time.Time        `json:"joinedAt"`
}

// Permission domains, resources and actions used by the voucher pipeline.
const (
	PermissionDomainAccounting = "accounting"
	PermissionResourceJournal  = "journal"

	ActionPostJournal    = "post_journal"
	ActionApproveJournal = "approve_journal"
)

// PermissionCode joins domain, resource and action into the stored code,
// e.g. "accounting.journal.post_journal".
func PermissionCode(domain, resource, action string) string {
	return strings.Join([]string{domain, resource, action}, ".")
}
