package formanswers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNotTargeted rejects a submission to a form not aimed at the caller's
// project.
var ErrNotTargeted = errors.New("formanswers: form does not target this project")

// ErrInvalidAnswers rejects a submission that fails the form's item rules.
var ErrInvalidAnswers = errors.New("formanswers: invalid answers")

// FormSource looks up the form a submission belongs to.
type FormSource interface {
	FindByID(ctx context.Context, id string) (*forms.Form, error)
}

// Service handles form submission use cases.
type Service struct {
	repo    RepositoryPort
	formSrc FormSource
	audit   *shared.AuditLogger
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, formSrc FormSource, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, formSrc: formSrc, audit: audit, now: time.Now}
}

// Create submits answers for the caller's project. The caller must belong
// to a project the form targets, the answer window must be open, and the
// values must satisfy the form's item rules.
func (s *Service) Create(ctx context.Context, rc *reqctx.Context, formID string, values []forms.AnswerValue) (*FormAnswer, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	if viewer.Owned == nil {
		return nil, ErrNotFound
	}
	form, err := s.loadOpenForm(ctx, viewer, formID)
	if err != nil {
		return nil, err
	}
	if err := form.ValidateAnswers(values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	a := &FormAnswer{
		ID:        uuid.NewString(),
		ProjectID: viewer.Owned.ProjectID,
		FormID:    formID,
		Items:     values,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionCreate, a.ID, map[string]any{"form_id": formID})
	return a, nil
}

// Get returns one submission. A hidden submission is reported exactly like
// a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*FormAnswer, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Mine returns the submission of the caller's project to the given form.
func (s *Service) Mine(ctx context.Context, rc *reqctx.Context, formID string) (*FormAnswer, error) {
	owned, err := rc.Project(ctx)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		return nil, ErrNotFound
	}
	return s.repo.FindByFormAndProject(ctx, formID, owned.ProjectID)
}

// ListByForm returns every submission to a form. Requires
// form_answer.read_all.
func (s *Service) ListByForm(ctx context.Context, rc *reqctx.Context, formID string) ([]FormAnswer, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermFormAnswerReadAll); err != nil {
		return nil, err
	}
	return s.repo.ListByForm(ctx, formID)
}

// Update overwrites a submission. Project members may update their own
// while the window is open; form_answer.update_all lifts both the
// ownership and the window restriction.
func (s *Service) Update(ctx context.Context, rc *reqctx.Context, id string, values []forms.AnswerValue) (*FormAnswer, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(viewer) {
		return nil, ErrNotFound
	}

	form, err := s.formSrc.FindByID(ctx, a.FormID)
	if err != nil {
		return nil, err
	}
	if !viewer.Actor.HasPermission(authz.PermFormAnswerUpdateAll) {
		if !viewer.OwnsProject(a.ProjectID) {
			return nil, authz.ErrPermissionDenied
		}
		if !form.Window.Contains(s.now()) {
			return nil, fmt.Errorf("formanswers: answer period: %w", shared.ErrOutsideWindow)
		}
	}
	if err := form.ValidateAnswers(values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	if err := s.repo.Update(ctx, id, values); err != nil {
		return nil, err
	}
	a.Items = values
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionUpdate, id, map[string]any{"form_id": a.FormID})
	return a, nil
}

// loadOpenForm fetches the form and checks it targets the viewer's project
// with an open answer window. Untargeted forms are reported as missing.
func (s *Service) loadOpenForm(ctx context.Context, viewer authz.Viewer, formID string) (*forms.Form, error) {
	form, err := s.formSrc.FindByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.VisibleTo(viewer) {
		return nil, forms.ErrNotFound
	}
	if form.IsDraft || !form.Targets(viewer.Owned.Category, viewer.Owned.Attributes) {
		return nil, ErrNotTargeted
	}
	if !form.Window.Contains(s.now()) {
		return nil, fmt.Errorf("formanswers: answer period: %w", shared.ErrOutsideWindow)
	}
	return form, nil
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID(),
		Role:     actor.Role().String(),
		Action:   action,
		Entity:   "form_answer",
		EntityID: entityID,
		Meta:     meta,
	})
}
