package files

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/archive"
	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/objstore"
	"github.com/festahub/festahub/internal/reqctx"
)

type mockRepository struct {
	files map[string]*FileMeta
	order []string
}

func newMockRepository(seed ...*FileMeta) *mockRepository {
	m := &mockRepository{files: make(map[string]*FileMeta)}
	for _, f := range seed {
		m.files[f.ID] = f
		m.order = append(m.order, f.ID)
	}
	return m
}

func (m *mockRepository) Create(ctx context.Context, f *FileMeta) error {
	copied := *f
	m.files[f.ID] = &copied
	m.order = append(m.order, f.ID)
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*FileMeta, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (m *mockRepository) ListByProject(ctx context.Context, projectID string) ([]FileMeta, error) {
	var out []FileMeta
	for _, id := range m.order {
		f := m.files[id]
		if f.DeletedAt == nil && f.OwnerProjectID != nil && *f.OwnerProjectID == projectID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockRepository) ListPublic(ctx context.Context) ([]FileMeta, error) {
	var out []FileMeta
	for _, id := range m.order {
		f := m.files[id]
		if f.DeletedAt == nil && f.OwnerProjectID == nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id string) error {
	f, ok := m.files[id]
	if !ok || f.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	f.DeletedAt = &now
	return nil
}

type stubProjects struct {
	byOwner map[string]*reqctx.ProjectRef
}

func (s *stubProjects) FindProjectByOwner(ctx context.Context, userID string) (*reqctx.ProjectRef, error) {
	return s.byOwner[userID], nil
}

func (s *stubProjects) FindProjectBySubOwner(ctx context.Context, userID string) (*reqctx.ProjectRef, error) {
	return nil, nil
}

func holderContext(userID, projectID string) *reqctx.Context {
	dir := &stubProjects{byOwner: map[string]*reqctx.ProjectRef{userID: {ID: projectID}}}
	return reqctx.NewWithActor(authz.NewActor(userID, authz.RoleGeneral), dir)
}

func plainContext(userID string, role authz.Role) *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor(userID, role), nil)
}

func testService(repo RepositoryPort, store objstore.Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, store, archive.NewExporter(store, logger), nil)
}

func ownedFile(id, projectID, key, name string) *FileMeta {
	return &FileMeta{ID: id, Key: key, Name: name, MimeType: "text/plain", OwnerProjectID: &projectID}
}

func TestRegisterBindsProject(t *testing.T) {
	repo := newMockRepository()
	store := objstore.NewMemory()
	svc := testService(repo, store)

	f, err := svc.Register(context.Background(), holderContext("u-1", "p-1"), "plan.txt", "text/plain", 4, strings.NewReader("plan"))
	require.NoError(t, err)
	require.NotNil(t, f.OwnerProjectID)
	assert.Equal(t, "p-1", *f.OwnerProjectID)
	assert.Len(t, store.Keys(), 1)

	// No project and no attachment rights.
	_, err = svc.Register(context.Background(), plainContext("u-2", authz.RoleGeneral), "x.txt", "text/plain", 1, strings.NewReader("x"))
	require.ErrorIs(t, err, ErrNoProject)

	// Committee operators upload public attachments.
	f, err = svc.Register(context.Background(), plainContext("op-1", authz.RoleCommitteeOperator), "poster.png", "image/png", 3, strings.NewReader("png"))
	require.NoError(t, err)
	assert.Nil(t, f.OwnerProjectID)
}

func TestVisibility(t *testing.T) {
	repo := newMockRepository(
		&FileMeta{ID: "f-pub", Key: "k1", Name: "map.pdf"},
		ownedFile("f-own", "p-1", "k2", "budget.xlsx"),
	)
	svc := testService(repo, objstore.NewMemory())

	// Public files reach everyone.
	_, err := svc.Get(context.Background(), plainContext("u-9", authz.RoleGeneral), "f-pub")
	require.NoError(t, err)

	// Owned files reach members and read_all holders only.
	_, err = svc.Get(context.Background(), holderContext("u-1", "p-1"), "f-own")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), plainContext("u-9", authz.RoleGeneral), "f-own")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), plainContext("c-1", authz.RoleCommittee), "f-own")
	require.NoError(t, err)
}

func TestDownload(t *testing.T) {
	store := objstore.NewMemory()
	require.NoError(t, store.Put(context.Background(), "k1", strings.NewReader("hello"), "text/plain"))
	repo := newMockRepository(&FileMeta{ID: "f-1", Key: "k1", Name: "hello.txt", MimeType: "text/plain"})
	svc := testService(repo, store)

	f, body, err := svc.Download(context.Background(), plainContext("u-1", authz.RoleGeneral), "f-1")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "hello.txt", f.Name)
}

func TestDeleteGuards(t *testing.T) {
	repo := newMockRepository(ownedFile("f-1", "p-1", "k1", "a.txt"))
	svc := testService(repo, objstore.NewMemory())

	// Committee can see it but not delete it.
	err := svc.Delete(context.Background(), plainContext("c-1", authz.RoleCommittee), "f-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	require.NoError(t, svc.Delete(context.Background(), holderContext("u-1", "p-1"), "f-1"))
	assert.NotNil(t, repo.files["f-1"].DeletedAt)
}

func TestExportProjectFiles(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory()
	require.NoError(t, store.Put(ctx, "k1", strings.NewReader("alpha"), "text/plain"))
	require.NoError(t, store.Put(ctx, "k2", strings.NewReader("beta"), "text/plain"))
	repo := newMockRepository(
		ownedFile("f-1", "p-1", "k1", "alpha.txt"),
		ownedFile("f-2", "p-1", "k2", "beta.txt"),
	)
	svc := testService(repo, store)

	// Strangers cannot export someone else's project.
	_, _, err := svc.ExportProjectFiles(ctx, plainContext("u-9", authz.RoleGeneral), "p-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	body, name, err := svc.ExportProjectFiles(ctx, holderContext("u-1", "p-1"), "p-1")
	require.NoError(t, err)
	defer body.Close()
	assert.Contains(t, name, "p-1")
	assert.True(t, strings.HasSuffix(name, ".zip"))

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "alpha.txt", zr.File[0].Name)
	assert.Equal(t, "beta.txt", zr.File[1].Name)
}
