package authz

import "strings"

// Permission is a single named right checked against a role's permission set.
// The set of permissions is closed; new permissions are added here and nowhere else.
type Permission uint8

const (
	PermNewsReadAll Permission = iota
	PermNewsCreate
	PermNewsUpdateAll
	PermNewsDeleteAll

	PermProjectReadAll
	PermProjectCreate
	PermProjectCreateAnytime
	PermProjectUpdateAll
	PermProjectDeleteAll
	PermProjectReadRemarks

	PermUserReadAll
	PermUserUpdateAll
	PermUserDeleteAll

	PermFormReadAll
	PermFormCreate
	PermFormUpdateAll
	PermFormDeleteAll

	PermFormAnswerReadAll
	PermFormAnswerUpdateAll

	PermInvitationReadAll
	PermInvitationCreateAll
	PermInvitationDeleteAll

	PermFileReadAll
	PermFileCreate
	PermFileDeleteAll

	// PermReadDeleted exposes soft-deleted records. Administrator only.
	PermReadDeleted

	permCount
)

var permissionNames = [permCount]string{
	PermNewsReadAll:          "news.read_all",
	PermNewsCreate:           "news.create",
	PermNewsUpdateAll:        "news.update_all",
	PermNewsDeleteAll:        "news.delete_all",
	PermProjectReadAll:       "project.read_all",
	PermProjectCreate:        "project.create",
	PermProjectCreateAnytime: "project.create_anytime",
	PermProjectUpdateAll:     "project.update_all",
	PermProjectDeleteAll:     "project.delete_all",
	PermProjectReadRemarks:   "project.read_remarks",
	PermUserReadAll:          "user.read_all",
	PermUserUpdateAll:        "user.update_all",
	PermUserDeleteAll:        "user.delete_all",
	PermFormReadAll:          "form.read_all",
	PermFormCreate:           "form.create",
	PermFormUpdateAll:        "form.update_all",
	PermFormDeleteAll:        "form.delete_all",
	PermFormAnswerReadAll:    "form_answer.read_all",
	PermFormAnswerUpdateAll:  "form_answer.update_all",
	PermInvitationReadAll:    "invitation.read_all",
	PermInvitationCreateAll:  "invitation.create_all",
	PermInvitationDeleteAll:  "invitation.delete_all",
	PermFileReadAll:          "file.read_all",
	PermFileCreate:           "file.create",
	PermFileDeleteAll:        "file.delete_all",
	PermReadDeleted:          "read_deleted",
}

// String returns the audit-log name of the permission.
func (p Permission) String() string {
	if p >= permCount {
		return "unknown"
	}
	return permissionNames[p]
}

// AllPermissions lists every defined permission in declaration order.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, permCount)
	for p := Permission(0); p < permCount; p++ {
		perms = append(perms, p)
	}
	return perms
}

// PermissionSet is an immutable set of permissions. The zero value is the
// empty set. Sets are values; operations return new sets.
type PermissionSet struct {
	bits uint64
}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		if p < permCount {
			s.bits |= 1 << p
		}
	}
	return s
}

// Contains reports whether p is in the set.
func (s PermissionSet) Contains(p Permission) bool {
	if p >= permCount {
		return false
	}
	return s.bits&(1<<p) != 0
}

// Union returns the set of permissions present in either set.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	return PermissionSet{bits: s.bits | other.bits}
}

// Intersect returns the set of permissions present in both sets.
func (s PermissionSet) Intersect(other PermissionSet) PermissionSet {
	return PermissionSet{bits: s.bits & other.bits}
}

// IsEmpty reports whether the set holds no permissions.
func (s PermissionSet) IsEmpty() bool {
	return s.bits == 0
}

// String renders the set for audit logs.
func (s PermissionSet) String() string {
	var names []string
	for p := Permission(0); p < permCount; p++ {
		if s.Contains(p) {
			names = append(names, p.String())
		}
	}
	return strings.Join(names, ",")
}
