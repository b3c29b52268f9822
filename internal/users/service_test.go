package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
)

type mockRepository struct {
	users map[string]*User
}

func newMockRepository(seed ...*User) *mockRepository {
	m := &mockRepository{users: make(map[string]*User)}
	for _, u := range seed {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.DeletedAt == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id string, role authz.Role) error {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id string) error {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func testContext(id string, role authz.Role) *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor(id, role), nil)
}

func TestListRequiresReadAll(t *testing.T) {
	repo := newMockRepository(&User{ID: "u-1", Role: authz.RoleGeneral})
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background(), testContext("u-1", authz.RoleGeneral))
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	result, err := svc.List(context.Background(), testContext("c-1", authz.RoleCommittee))
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestGetSelfWithoutRolePermissions(t *testing.T) {
	repo := newMockRepository(&User{ID: "u-1", Name: "Aoi", Role: authz.RoleGeneral})
	svc := NewService(repo, nil)

	user, err := svc.Get(context.Background(), testContext("u-1", authz.RoleGeneral), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Aoi", user.Name)

	// A different general user gets a permission failure, not a not-found,
	// because the role gate runs before the instance is loaded.
	_, err = svc.Get(context.Background(), testContext("u-2", authz.RoleGeneral), "u-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestGetSoftDeletedNeedsReadDeleted(t *testing.T) {
	deleted := time.Now().Add(-time.Hour)
	repo := newMockRepository(&User{ID: "u-1", Role: authz.RoleGeneral, DeletedAt: &deleted})
	svc := NewService(repo, nil)

	// Full read access is not enough for soft-deleted records.
	_, err := svc.Get(context.Background(), testContext("op-1", authz.RoleCommitteeOperator), "u-1")
	require.ErrorIs(t, err, ErrNotFound)

	// Administrator holds read_deleted.
	user, err := svc.Get(context.Background(), testContext("a-1", authz.RoleAdministrator), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, user.DeletedAt)
}

func TestUpdateRoleRequiresUpdateAll(t *testing.T) {
	repo := newMockRepository(&User{ID: "u-1", Role: authz.RoleGeneral})
	svc := NewService(repo, nil)

	_, err := svc.UpdateRole(context.Background(), testContext("op-1", authz.RoleCommitteeOperator), "u-1", authz.RoleCommittee)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	user, err := svc.UpdateRole(context.Background(), testContext("a-1", authz.RoleAdministrator), "u-1", authz.RoleCommittee)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleCommittee, user.Role)
}

func TestDeleteGuards(t *testing.T) {
	repo := newMockRepository(
		&User{ID: "a-1", Role: authz.RoleAdministrator},
		&User{ID: "u-1", Role: authz.RoleGeneral},
	)
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), testContext("op-1", authz.RoleCommitteeOperator), "u-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	err = svc.Delete(context.Background(), testContext("a-1", authz.RoleAdministrator), "a-1")
	require.ErrorIs(t, err, ErrSelfDelete)

	require.NoError(t, svc.Delete(context.Background(), testContext("a-1", authz.RoleAdministrator), "u-1"))
	assert.NotNil(t, repo.users["u-1"].DeletedAt)
}
