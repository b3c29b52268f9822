package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// Service handles form use cases.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
	now   func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// Input carries the caller-supplied fields of a form.
type Input struct {
	Title       string
	Description string
	Window      shared.Window
	Categories  shared.CategorySet
	Attributes  shared.AttributeSet
	Items       []Item
	IsDraft     bool
}

// ErrInvalidDefinition rejects a malformed form definition.
var ErrInvalidDefinition = errors.New("forms: invalid definition")

func (in Input) validate() error {
	if err := in.Window.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: duplicate item id %s", ErrInvalidDefinition, it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

// Create registers a form. Requires form.create.
func (s *Service) Create(ctx context.Context, rc *reqctx.Context, in Input) (*Form, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermFormCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	f := &Form{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Window:      in.Window,
		Categories:  in.Categories,
		Attributes:  in.Attributes,
		Items:       in.Items,
		IsDraft:     in.IsDraft,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionCreate, f.ID, map[string]any{"title": f.Title})
	return f, nil
}

// Get returns one form. Project holders see targeted forms only once the
// answer window has started; form.read_all holders see everything at any
// time. A hidden form is reported exactly like a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*Form, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.observable(*f, viewer) {
		return nil, ErrNotFound
	}
	return f, nil
}

// List returns the forms visible to the caller.
func (s *Service) List(ctx context.Context, rc *reqctx.Context) ([]Form, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Form, 0, len(all))
	for _, f := range all {
		if s.observable(f, viewer) {
			visible = append(visible, f)
		}
	}
	return visible, nil
}

// Update rewrites a form. Requires form.update_all.
func (s *Service) Update(ctx context.Context, rc *reqctx.Context, id string, in Input) (*Form, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermFormUpdateAll); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.DeletedAt != nil && !actor.HasPermission(authz.PermReadDeleted) {
		return nil, ErrNotFound
	}

	f.Title = in.Title
	f.Description = in.Description
	f.Window = in.Window
	f.Categories = in.Categories
	f.Attributes = in.Attributes
	f.Items = in.Items
	f.IsDraft = in.IsDraft
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionUpdate, id, nil)
	return f, nil
}

// Delete soft-deletes a form. Requires form.delete_all.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return err
	}
	if err := authz.Ensure(actor, authz.PermFormDeleteAll); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, shared.AuditActionDelete, id, nil)
	return nil
}

// observable couples the pure visibility predicate with the time-dependent
// opening check for plain project holders.
func (s *Service) observable(f Form, viewer authz.Viewer) bool {
	if !f.VisibleTo(viewer) {
		return false
	}
	if viewer.Actor.HasPermission(authz.PermFormReadAll) {
		return true
	}
	return f.Window.StartsAt.IsZero() || !s.now().Before(f.Window.StartsAt)
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID(),
		Role:     actor.Role().String(),
		Action:   action,
		Entity:   "form",
		EntityID: entityID,
		Meta:     meta,
	})
}
