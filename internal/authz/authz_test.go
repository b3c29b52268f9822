package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grantTable is the authoritative expectation: for every role, exactly these
// permissions are granted. The test walks the full role x permission matrix
// so a permission added without an explicit grant decision fails here.
var grantTable = map[Role][]Permission{
	RoleGeneral: {
		PermProjectCreate,
		PermFileCreate,
	},
	RoleCommittee: {
		PermNewsReadAll,
		PermProjectReadAll,
		PermFormReadAll,
		PermFormAnswerReadAll,
		PermInvitationReadAll,
		PermFileReadAll,
		PermFileCreate,
	},
	RoleCommitteeOperator: {
		PermNewsReadAll, PermNewsCreate, PermNewsUpdateAll, PermNewsDeleteAll,
		PermProjectReadAll, PermProjectCreateAnytime, PermProjectUpdateAll, PermProjectReadRemarks,
		PermFormReadAll, PermFormCreate, PermFormUpdateAll, PermFormDeleteAll,
		PermFormAnswerReadAll, PermFormAnswerUpdateAll,
		PermInvitationReadAll, PermInvitationCreateAll, PermInvitationDeleteAll,
		PermFileReadAll, PermFileCreate, PermFileDeleteAll,
	},
	RoleAdministrator: AllPermissions(),
}

func TestPermissionMatrix(t *testing.T) {
	for _, role := range AllRoles() {
		granted := make(map[Permission]bool)
		for _, p := range grantTable[role] {
			granted[p] = true
		}
		actor := NewActor("u-1", role)
		for _, p := range AllPermissions() {
			got := actor.HasPermission(p)
			assert.Equalf(t, granted[p], got, "role %s permission %s", role, p)
		}
	}
}

func TestPermissionsForIsPure(t *testing.T) {
	first := PermissionsFor(RoleCommittee)
	second := PermissionsFor(RoleCommittee)
	assert.Equal(t, first, second)

	// Deriving new sets must not mutate the role's set.
	_ = first.Union(NewPermissionSet(PermUserDeleteAll))
	assert.False(t, PermissionsFor(RoleCommittee).Contains(PermUserDeleteAll))
}

func TestUnknownRoleHasNoPermissions(t *testing.T) {
	set := PermissionsFor(Role(250))
	assert.True(t, set.IsEmpty())
}

func TestPermissionSetOps(t *testing.T) {
	a := NewPermissionSet(PermNewsCreate, PermNewsReadAll)
	b := NewPermissionSet(PermNewsReadAll, PermFileCreate)

	union := a.Union(b)
	assert.True(t, union.Contains(PermNewsCreate))
	assert.True(t, union.Contains(PermFileCreate))

	inter := a.Intersect(b)
	assert.True(t, inter.Contains(PermNewsReadAll))
	assert.False(t, inter.Contains(PermNewsCreate))
	assert.False(t, inter.Contains(PermFileCreate))

	// Operands are untouched.
	assert.False(t, a.Contains(PermFileCreate))
	assert.False(t, b.Contains(PermNewsCreate))
}

func TestParseRoleRoundTrip(t *testing.T) {
	for _, role := range AllRoles() {
		parsed, err := ParseRole(role.String())
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("superuser")
	require.Error(t, err)
}

func TestPermissionSetString(t *testing.T) {
	set := NewPermissionSet(PermNewsCreate, PermNewsReadAll)
	assert.Equal(t, "news.read_all,news.create", set.String())
	assert.Equal(t, "", PermissionSet{}.String())
}
