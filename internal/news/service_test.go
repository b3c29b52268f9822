package news

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

type mockRepository struct {
	items map[string]*News
	order []string
}

func newMockRepository(seed ...*News) *mockRepository {
	m := &mockRepository{items: make(map[string]*News)}
	for _, n := range seed {
		m.items[n.ID] = n
		m.order = append(m.order, n.ID)
	}
	return m
}

func (m *mockRepository) Create(ctx context.Context, n *News) error {
	copied := *n
	m.items[n.ID] = &copied
	m.order = append(m.order, n.ID)
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*News, error) {
	n, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context) ([]News, error) {
	var out []News
	for _, id := range m.order {
		if n := m.items[id]; n.DeletedAt == nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, n *News) error {
	stored, ok := m.items[n.ID]
	if !ok || stored.DeletedAt != nil {
		return ErrNotFound
	}
	copied := *n
	m.items[n.ID] = &copied
	return nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id string) error {
	n, ok := m.items[id]
	if !ok || n.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	n.DeletedAt = &now
	return nil
}

func (m *mockRepository) ListDue(ctx context.Context, now time.Time) ([]News, error) {
	var out []News
	for _, id := range m.order {
		n := m.items[id]
		if n.DeletedAt == nil && n.State == StateScheduled && n.PublishAt != nil && !n.PublishAt.After(now) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	n, ok := m.items[id]
	if !ok || n.DeletedAt != nil || n.State != StateScheduled {
		return ErrNotFound
	}
	n.State = StatePublished
	n.PublishAt = &at
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

func testService(repo RepositoryPort) *Service {
	return NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func holderContext(userID string, category shared.ProjectCategory, attrs ...shared.ProjectAttribute) *reqctx.Context {
	dir := &stubProjects{byOwner: map[string]*reqctx.ProjectRef{
		userID: {ID: "p-" + userID, Category: category, Attributes: shared.NewAttributeSet(attrs...)},
	}}
	return reqctx.NewWithActor(authz.NewActor(userID, authz.RoleGeneral), dir)
}

func plainContext(userID string, role authz.Role) *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor(userID, role), nil)
}

func TestDraftHiddenFromProjectHolders(t *testing.T) {
	repo := newMockRepository(&News{ID: "n-1", State: StateDraft, Title: "WIP"})
	svc := testService(repo)

	_, err := svc.Get(context.Background(), holderContext("u-1", shared.CategoryFoods), "n-1")
	require.ErrorIs(t, err, ErrNotFound)

	n, err := svc.Get(context.Background(), plainContext("c-1", authz.RoleCommittee), "n-1")
	require.NoError(t, err)
	assert.Equal(t, StateDraft, n.State)
}

func TestPublishedUntargetedReachesEveryone(t *testing.T) {
	repo := newMockRepository(&News{ID: "n-1", State: StatePublished, Title: "Opening Ceremony"})
	svc := testService(repo)

	// Even a user with no project sees untargeted published news.
	n, err := svc.Get(context.Background(), plainContext("u-1", authz.RoleGeneral), "n-1")
	require.NoError(t, err)
	assert.Equal(t, "Opening Ceremony", n.Title)
}

func TestListFiltersByAudience(t *testing.T) {
	repo := newMockRepository(
		&News{ID: "n-1", State: StatePublished, Title: "For everyone"},
		&News{ID: "n-2", State: StatePublished, Title: "Foods only", Categories: shared.NewCategorySet(shared.CategoryFoods)},
		&News{ID: "n-3", State: StatePublished, Title: "Outdoor only", Attributes: shared.NewAttributeSet(shared.AttributeOutdoor)},
		&News{ID: "n-4", State: StateScheduled, Title: "Not yet"},
	)
	svc := testService(repo)

	items, err := svc.List(context.Background(), holderContext("u-1", shared.CategoryFoods, shared.AttributeIndoor))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "For everyone", items[0].Title)
	assert.Equal(t, "Foods only", items[1].Title)

	// Committee readers see everything including the scheduled item.
	items, err = svc.List(context.Background(), plainContext("c-1", authz.RoleCommittee))
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestCreateStates(t *testing.T) {
	repo := newMockRepository()
	svc := testService(repo)

	_, err := svc.Create(context.Background(), plainContext("u-1", authz.RoleGeneral), Input{Title: "Nope"})
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	op := plainContext("op-1", authz.RoleCommitteeOperator)

	n, err := svc.Create(context.Background(), op, Input{Title: "Now"})
	require.NoError(t, err)
	assert.Equal(t, StatePublished, n.State)
	require.NotNil(t, n.PublishAt)

	future := time.Now().Add(time.Hour)
	n, err = svc.Create(context.Background(), op, Input{Title: "Later", PublishAt: &future})
	require.NoError(t, err)
	assert.Equal(t, StateScheduled, n.State)

	n, err = svc.Create(context.Background(), op, Input{Title: "Draft", Draft: true})
	require.NoError(t, err)
	assert.Equal(t, StateDraft, n.State)
}

func TestUpdateKeepsPublished(t *testing.T) {
	at := time.Now().Add(-time.Hour)
	repo := newMockRepository(&News{ID: "n-1", State: StatePublished, Title: "Old", PublishAt: &at})
	svc := testService(repo)

	n, err := svc.Update(context.Background(), plainContext("op-1", authz.RoleCommitteeOperator), "n-1", Input{Title: "New", Draft: true})
	require.NoError(t, err)
	assert.Equal(t, StatePublished, n.State)
	assert.Equal(t, "New", n.Title)
}

func TestPublishDue(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	past := base.Add(-time.Minute)
	future := base.Add(time.Hour)
	repo := newMockRepository(
		&News{ID: "n-1", State: StateScheduled, PublishAt: &past},
		&News{ID: "n-2", State: StateScheduled, PublishAt: &future},
		&News{ID: "n-3", State: StateDraft},
	)
	svc := testService(repo)
	svc.now = func() time.Time { return base }

	published, err := svc.PublishDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, StatePublished, repo.items["n-1"].State)
	assert.Equal(t, base, *repo.items["n-1"].PublishAt)
	assert.Equal(t, StateScheduled, repo.items["n-2"].State)
}
