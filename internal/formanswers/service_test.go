package formanswers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

type mockRepository struct {
	answers map[string]*FormAnswer
}

func newMockRepository(seed ...*FormAnswer) *mockRepository {
	m := &mockRepository{answers: make(map[string]*FormAnswer)}
	for _, a := range seed {
		m.answers[a.ID] = a
	}
	return m
}

func (m *mockRepository) Create(ctx context.Context, a *FormAnswer) error {
	for _, existing := range m.answers {
		if existing.FormID == a.FormID && existing.ProjectID == a.ProjectID {
			return ErrAlreadyAnswered
		}
	}
	copied := *a
	m.answers[a.ID] = &copied
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*FormAnswer, error) {
	a, ok := m.answers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepository) FindByFormAndProject(ctx context.Context, formID, projectID string) (*FormAnswer, error) {
	for _, a := range m.answers {
		if a.FormID == formID && a.ProjectID == projectID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) ListByForm(ctx context.Context, formID string) ([]FormAnswer, error) {
	var out []FormAnswer
	for _, a := range m.answers {
		if a.FormID == formID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, id string, values []forms.AnswerValue) error {
	a, ok := m.answers[id]
	if !ok {
		return ErrNotFound
	}
	a.Items = values
	return nil
}

type mockForms struct {
	forms map[string]*forms.Form
}

func (m *mockForms) FindByID(ctx context.Context, id string) (*forms.Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, forms.ErrNotFound
	}
	copied := *f
	return &copied, nil
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

func holderContext(userID, projectID string, category shared.ProjectCategory) *reqctx.Context {
	dir := &stubProjects{byOwner: map[string]*reqctx.ProjectRef{
		userID: {ID: projectID, Category: category},
	}}
	return reqctx.NewWithActor(authz.NewActor(userID, authz.RoleGeneral), dir)
}

func plainContext(userID string, role authz.Role) *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor(userID, role), nil)
}

func openForm(id string, cats ...shared.ProjectCategory) *forms.Form {
	return &forms.Form{
		ID:         id,
		Window:     shared.Window{StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour)},
		Categories: shared.NewCategorySet(cats...),
		Items:      []forms.Item{{ID: "q1", Title: "Headcount", Type: forms.ItemInt, Required: true}},
	}
}

func answerItems(n int64) []forms.AnswerValue {
	return []forms.AnswerValue{{ItemID: "q1", Int: &n}}
}

func TestCreateByProjectMember(t *testing.T) {
	repo := newMockRepository()
	src := &mockForms{forms: map[string]*forms.Form{"f-1": openForm("f-1")}}
	svc := NewService(repo, src, nil)

	a, err := svc.Create(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-1", answerItems(5))
	require.NoError(t, err)
	assert.Equal(t, "p-1", a.ProjectID)

	// Second submission from the same project conflicts.
	_, err = svc.Create(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-1", answerItems(6))
	require.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestCreateRejectsNonMembersAndUntargeted(t *testing.T) {
	repo := newMockRepository()
	src := &mockForms{forms: map[string]*forms.Form{
		"f-foods": openForm("f-foods", shared.CategoryFoods),
	}}
	svc := NewService(repo, src, nil)

	// No project at all.
	_, err := svc.Create(context.Background(), plainContext("u-9", authz.RoleGeneral), "f-foods", answerItems(1))
	require.ErrorIs(t, err, ErrNotFound)

	// Project outside the target audience cannot see the form.
	_, err = svc.Create(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-foods", answerItems(1))
	require.ErrorIs(t, err, forms.ErrNotFound)
}

func TestCreateOutsideWindow(t *testing.T) {
	closed := openForm("f-1")
	closed.Window = shared.Window{StartsAt: time.Now().Add(-2 * time.Hour), EndsAt: time.Now().Add(-time.Hour)}
	repo := newMockRepository()
	src := &mockForms{forms: map[string]*forms.Form{"f-1": closed}}
	svc := NewService(repo, src, nil)

	_, err := svc.Create(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-1", answerItems(1))
	require.ErrorIs(t, err, shared.ErrOutsideWindow)
}

func TestCreateValidatesAnswers(t *testing.T) {
	repo := newMockRepository()
	src := &mockForms{forms: map[string]*forms.Form{"f-1": openForm("f-1")}}
	svc := NewService(repo, src, nil)

	_, err := svc.Create(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-1", nil)
	require.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestGetVisibility(t *testing.T) {
	repo := newMockRepository(&FormAnswer{ID: "a-1", ProjectID: "p-1", FormID: "f-1"})
	src := &mockForms{forms: map[string]*forms.Form{"f-1": openForm("f-1")}}
	svc := NewService(repo, src, nil)

	_, err := svc.Get(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "a-1")
	require.NoError(t, err)

	// Another project's member cannot tell the submission exists.
	_, err = svc.Get(context.Background(), holderContext("u-2", "p-2", shared.CategoryStage), "a-1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), plainContext("c-1", authz.RoleCommittee), "a-1")
	require.NoError(t, err)
}

func TestUpdateAfterWindowNeedsUpdateAll(t *testing.T) {
	closed := openForm("f-1")
	closed.Window = shared.Window{StartsAt: time.Now().Add(-2 * time.Hour), EndsAt: time.Now().Add(-time.Hour)}
	repo := newMockRepository(&FormAnswer{ID: "a-1", ProjectID: "p-1", FormID: "f-1", Items: answerItems(2)})
	src := &mockForms{forms: map[string]*forms.Form{"f-1": closed}}
	svc := NewService(repo, src, nil)

	_, err := svc.Update(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "a-1", answerItems(3))
	require.ErrorIs(t, err, shared.ErrOutsideWindow)

	a, err := svc.Update(context.Background(), plainContext("op-1", authz.RoleCommitteeOperator), "a-1", answerItems(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), *a.Items[0].Int)
}

func TestListByFormRequiresReadAll(t *testing.T) {
	repo := newMockRepository(
		&FormAnswer{ID: "a-1", ProjectID: "p-1", FormID: "f-1"},
		&FormAnswer{ID: "a-2", ProjectID: "p-2", FormID: "f-1"},
	)
	src := &mockForms{forms: map[string]*forms.Form{"f-1": openForm("f-1")}}
	svc := NewService(repo, src, nil)

	_, err := svc.ListByForm(context.Background(), holderContext("u-1", "p-1", shared.CategoryStage), "f-1")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	answers, err := svc.ListByForm(context.Background(), plainContext("c-1", authz.RoleCommittee), "f-1")
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}
