package authz

import "fmt"

// Role is the closed set of platform roles. Each role maps to an explicit
// permission set below; there is no inheritance between roles.
type Role uint8

const (
	// RoleGeneral is an ordinary participant account.
	RoleGeneral Role = iota
	// RoleCommittee is a festival committee member with read access.
	RoleCommittee
	// RoleCommitteeOperator runs day-to-day committee operations.
	RoleCommitteeOperator
	// RoleAdministrator has every permission.
	RoleAdministrator

	roleCount
)

var roleNames = [roleCount]string{
	RoleGeneral:           "general",
	RoleCommittee:         "committee",
	RoleCommitteeOperator: "committee_operator",
	RoleAdministrator:     "administrator",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if r >= roleCount {
		return "unknown"
	}
	return roleNames[r]
}

// ParseRole converts a stored role name back into a Role.
func ParseRole(s string) (Role, error) {
	for r := Role(0); r < roleCount; r++ {
		if roleNames[r] == s {
			return r, nil
		}
	}
	return RoleGeneral, fmt.Errorf("authz: unknown role %q", s)
}

// AllRoles lists every defined role.
func AllRoles() []Role {
	return []Role{RoleGeneral, RoleCommittee, RoleCommitteeOperator, RoleAdministrator}
}

var generalSet = NewPermissionSet(
	PermProjectCreate,
	PermFileCreate,
)

var committeeSet = NewPermissionSet(
	PermNewsReadAll,
	PermProjectReadAll,
	PermFormReadAll,
	PermFormAnswerReadAll,
	PermInvitationReadAll,
	PermFileReadAll,
	PermFileCreate,
)

var committeeOperatorSet = committeeSet.Union(NewPermissionSet(
	PermNewsCreate,
	PermNewsUpdateAll,
	PermNewsDeleteAll,
	PermProjectCreateAnytime,
	PermProjectUpdateAll,
	PermProjectReadRemarks,
	PermFormCreate,
	PermFormUpdateAll,
	PermFormDeleteAll,
	PermFormAnswerUpdateAll,
	PermInvitationCreateAll,
	PermInvitationDeleteAll,
	PermFileDeleteAll,
))

var administratorSet = func() PermissionSet {
	return NewPermissionSet(AllPermissions()...)
}()

// PermissionsFor returns the permission set granted to the role. Total over
// the closed role set; unknown values resolve to the empty set.
func PermissionsFor(r Role) PermissionSet {
	switch r {
	case RoleGeneral:
		return generalSet
	case RoleCommittee:
		return committeeSet
	case RoleCommitteeOperator:
		return committeeOperatorSet
	case RoleAdministrator:
		return administratorSet
	default:
		return PermissionSet{}
	}
}
