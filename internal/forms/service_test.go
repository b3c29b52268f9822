package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

type mockRepository struct {
	forms map[string]*Form
	order []string
}

func newMockRepository(seed ...*Form) *mockRepository {
	m := &mockRepository{forms: make(map[string]*Form)}
	for _, f := range seed {
		m.forms[f.ID] = f
		m.order = append(m.order, f.ID)
	}
	return m
}

func (m *mockRepository) Create(ctx context.Context, f *Form) error {
	copied := *f
	m.forms[f.ID] = &copied
	m.order = append(m.order, f.ID)
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Form, error) {
	var out []Form
	for _, id := range m.order {
		if f := m.forms[id]; f.DeletedAt == nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, f *Form) error {
	stored, ok := m.forms[f.ID]
	if !ok || stored.DeletedAt != nil {
		return ErrNotFound
	}
	copied := *f
	m.forms[f.ID] = &copied
	return nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id string) error {
	f, ok := m.forms[id]
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

func holderContext(userID string, category shared.ProjectCategory) *reqctx.Context {
	dir := &stubProjects{byOwner: map[string]*reqctx.ProjectRef{
		userID: {ID: "p-" + userID, Category: category},
	}}
	return reqctx.NewWithActor(authz.NewActor(userID, authz.RoleGeneral), dir)
}

func plainContext(userID string, role authz.Role) *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor(userID, role), nil)
}

func openWindow() shared.Window {
	return shared.Window{StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour)}
}

func futureWindow() shared.Window {
	return shared.Window{StartsAt: time.Now().Add(time.Hour), EndsAt: time.Now().Add(2 * time.Hour)}
}

func TestGetVisibility(t *testing.T) {
	repo := newMockRepository(
		&Form{ID: "f-open", Title: "Safety Survey", Window: openWindow()},
		&Form{ID: "f-draft", Title: "Unfinished", Window: openWindow(), IsDraft: true},
		&Form{ID: "f-early", Title: "Too Early", Window: futureWindow()},
		&Form{ID: "f-foods", Title: "Foods Only", Window: openWindow(), Categories: shared.NewCategorySet(shared.CategoryFoods)},
	)
	svc := NewService(repo, nil)

	holder := holderContext("u-1", shared.CategoryStage)

	f, err := svc.Get(context.Background(), holder, "f-open")
	require.NoError(t, err)
	assert.Equal(t, "Safety Survey", f.Title)

	for _, id := range []string{"f-draft", "f-early", "f-foods"} {
		_, err := svc.Get(context.Background(), holder, id)
		require.ErrorIs(t, err, ErrNotFound, id)
	}

	// Committee readers see drafts and unopened forms.
	committee := plainContext("c-1", authz.RoleCommittee)
	for _, id := range []string{"f-open", "f-draft", "f-early", "f-foods"} {
		_, err := svc.Get(context.Background(), committee, id)
		require.NoError(t, err, id)
	}
}

func TestListFiltersForHolders(t *testing.T) {
	repo := newMockRepository(
		&Form{ID: "f-1", Window: openWindow()},
		&Form{ID: "f-2", Window: openWindow(), Categories: shared.NewCategorySet(shared.CategoryStage)},
		&Form{ID: "f-3", Window: openWindow(), IsDraft: true},
	)
	svc := NewService(repo, nil)

	items, err := svc.List(context.Background(), holderContext("u-1", shared.CategoryStage))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.List(context.Background(), plainContext("c-1", authz.RoleCommittee))
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestCreateGateAndValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), plainContext("c-1", authz.RoleCommittee), Input{Title: "Nope", Window: openWindow()})
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	op := plainContext("op-1", authz.RoleCommitteeOperator)

	_, err = svc.Create(context.Background(), op, Input{
		Title:  "Broken",
		Window: openWindow(),
		Items:  []Item{{ID: "q1", Title: "Pick one", Type: ItemChoose}},
	})
	require.ErrorIs(t, err, ErrInvalidDefinition)

	f, err := svc.Create(context.Background(), op, Input{
		Title:  "Stage Plan",
		Window: openWindow(),
		Items: []Item{
			{ID: "q1", Title: "Band name", Type: ItemString, Required: true},
			{ID: "q2", Title: "Members", Type: ItemInt},
		},
	})
	require.NoError(t, err)
	assert.Len(t, f.Items, 2)
}

func TestValidateAnswers(t *testing.T) {
	lo, hi := int64(1), int64(30)
	form := Form{
		Items: []Item{
			{ID: "q1", Title: "Band name", Type: ItemString, Required: true},
			{ID: "q2", Title: "Members", Type: ItemInt, Min: &lo, Max: &hi},
			{ID: "q3", Title: "Genre", Type: ItemChoose, Options: []string{"rock", "jazz"}},
		},
	}

	name := "The Gophers"
	count := int64(4)
	genre := "rock"
	require.NoError(t, form.ValidateAnswers([]AnswerValue{
		{ItemID: "q1", String: &name},
		{ItemID: "q2", Int: &count},
		{ItemID: "q3", Choice: &genre},
	}))

	// Required answer missing.
	err := form.ValidateAnswers([]AnswerValue{{ItemID: "q2", Int: &count}})
	require.ErrorContains(t, err, "q1")

	// Out of range.
	over := int64(99)
	err = form.ValidateAnswers([]AnswerValue{{ItemID: "q1", String: &name}, {ItemID: "q2", Int: &over}})
	require.ErrorContains(t, err, "above")

	// Not an option.
	polka := "polka"
	err = form.ValidateAnswers([]AnswerValue{{ItemID: "q1", String: &name}, {ItemID: "q3", Choice: &polka}})
	require.ErrorContains(t, err, "not an option")

	// Unknown item.
	err = form.ValidateAnswers([]AnswerValue{{ItemID: "q1", String: &name}, {ItemID: "zz", String: &name}})
	require.ErrorContains(t, err, "unknown item")

	// Duplicate answer.
	err = form.ValidateAnswers([]AnswerValue{{ItemID: "q1", String: &name}, {ItemID: "q1", String: &name}})
	require.ErrorContains(t, err, "twice")
}

func TestDeleteRequiresDeleteAll(t *testing.T) {
	repo := newMockRepository(&Form{ID: "f-1", Window: openWindow()})
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), plainContext("c-1", authz.RoleCommittee), "f-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	require.NoError(t, svc.Delete(context.Background(), plainContext("op-1", authz.RoleCommitteeOperator), "f-1"))
	assert.NotNil(t, repo.forms["f-1"].DeletedAt)
}
