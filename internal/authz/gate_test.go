package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDeniesWithoutPermission(t *testing.T) {
	general := NewActor("u-1", RoleGeneral)
	require.ErrorIs(t, Ensure(general, PermUserDeleteAll), ErrPermissionDenied)
	require.NoError(t, Ensure(general, PermProjectCreate))
}

func TestEnsureUnknownPermissionFailsClosed(t *testing.T) {
	admin := NewActor("u-1", RoleAdministrator)
	require.ErrorIs(t, Ensure(admin, Permission(200)), ErrPermissionDenied)
}

func TestEnsureAnyEmptyDenies(t *testing.T) {
	admin := NewActor("u-1", RoleAdministrator)
	// No explicit permission named means no gate defined: denied by default.
	require.ErrorIs(t, EnsureAny(admin), ErrPermissionDenied)
}

func TestEnsureAnyPassesOnFirstGrant(t *testing.T) {
	committee := NewActor("u-1", RoleCommittee)
	require.NoError(t, EnsureAny(committee, PermNewsCreate, PermNewsReadAll))
	require.ErrorIs(t, EnsureAny(committee, PermNewsCreate, PermNewsUpdateAll), ErrPermissionDenied)
}

func TestAuthorizedReturnsPayloadUnchanged(t *testing.T) {
	type payload struct{ N int }
	operator := NewActor("u-1", RoleCommitteeOperator)

	got, err := Authorized(operator, PermNewsCreate, payload{N: 7})
	require.NoError(t, err)
	assert.Equal(t, payload{N: 7}, got)

	general := NewActor("u-2", RoleGeneral)
	zero, err := Authorized(general, PermNewsCreate, payload{N: 7})
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, payload{}, zero)
}

func TestViewerOwnsProject(t *testing.T) {
	v := Viewer{Actor: NewActor("u-1", RoleGeneral)}
	assert.False(t, v.OwnsProject("p-1"))

	v.Owned = &OwnedProject{Kind: OwnershipSubOwner, ProjectID: "p-1"}
	assert.True(t, v.OwnsProject("p-1"))
	assert.False(t, v.OwnsProject("p-2"))
}
