package projects

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// Service handles project use cases.
type Service struct {
	repo        RepositoryPort
	audit       *shared.AuditLogger
	applyWindow shared.Window
	collator    *collate.Collator
}

// NewService builds Service instance. applyWindow is the project application
// period; creation outside it needs project.create_anytime.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, applyWindow shared.Window) *Service {
	return &Service{
		repo:        repo,
		audit:       audit,
		applyWindow: applyWindow,
		collator:    collate.New(language.Japanese),
	}
}

// CreateInput carries the caller-supplied fields of a new project.
type CreateInput struct {
	Title         string
	KanaTitle     string
	GroupName     string
	KanaGroupName string
	Category      shared.ProjectCategory
	Attributes    shared.AttributeSet
}

// Create registers a project owned by the caller. Requires project.create
// inside the application window; project.create_anytime lifts the window.
// A caller already attached to a project cannot create another.
func (s *Service) Create(ctx context.Context, rc *reqctx.Context, in CreateInput) (*Project, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureAny(actor, authz.PermProjectCreate, authz.PermProjectCreateAnytime); err != nil {
		return nil, err
	}
	if !actor.HasPermission(authz.PermProjectCreateAnytime) && !s.applyWindow.Contains(rc.RequestedAt()) {
		return nil, fmt.Errorf("projects: application period: %w", shared.ErrOutsideWindow)
	}
	owned, err := rc.Project(ctx)
	if err != nil {
		return nil, err
	}
	if owned != nil {
		return nil, ErrAlreadyOwner
	}

	p := &Project{
		ID:            uuid.NewString(),
		Title:         in.Title,
		KanaTitle:     in.KanaTitle,
		GroupName:     in.GroupName,
		KanaGroupName: in.KanaGroupName,
		Category:      in.Category,
		Attributes:    in.Attributes,
		OwnerID:       actor.UserID(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionCreate, p.ID, map[string]any{"title": p.Title})
	return p, nil
}

// Get returns one project with a flag telling the caller whether the
// committee remarks may be included. A hidden project is reported exactly
// like a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*Project, bool, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, false, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !p.VisibleTo(viewer) {
		return nil, false, ErrNotFound
	}
	return p, p.RemarksVisibleTo(viewer), nil
}

// Mine returns the caller's own project.
func (s *Service) Mine(ctx context.Context, rc *reqctx.Context) (*Project, bool, error) {
	owned, err := rc.Project(ctx)
	if err != nil {
		return nil, false, err
	}
	if owned == nil {
		return nil, false, ErrNotFound
	}
	return s.Get(ctx, rc, owned.ProjectID)
}

// List returns all live projects sorted by kana title using Japanese
// collation. Requires project.read_all.
func (s *Service) List(ctx context.Context, rc *reqctx.Context) ([]Project, bool, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := authz.Ensure(viewer.Actor, authz.PermProjectReadAll); err != nil {
		return nil, false, err
	}
	result, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return s.collator.CompareString(result[i].KanaTitle, result[j].KanaTitle) < 0
	})
	withRemarks := viewer.Actor.HasPermission(authz.PermProjectReadRemarks)
	return result, withRemarks, nil
}

// UpdateInput carries the mutable fields of a project update. Remarks is
// applied only when the caller may read remarks; members cannot edit notes
// they cannot see.
type UpdateInput struct {
	Title         string
	KanaTitle     string
	GroupName     string
	KanaGroupName string
	Category      shared.ProjectCategory
	Attributes    shared.AttributeSet
	Remarks       *string
}

// Update rewrites a project. Members may update their own project; anyone
// else needs project.update_all.
func (s *Service) Update(ctx context.Context, rc *reqctx.Context, id string, in UpdateInput) (*Project, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	if !p.IsMember(viewer.Actor.UserID()) {
		if err := authz.Ensure(viewer.Actor, authz.PermProjectUpdateAll); err != nil {
			return nil, err
		}
	}

	fields := UpdateFields{
		Title:         in.Title,
		KanaTitle:     in.KanaTitle,
		GroupName:     in.GroupName,
		KanaGroupName: in.KanaGroupName,
		Category:      in.Category,
		Attributes:    in.Attributes,
		Remarks:       p.Remarks,
	}
	if in.Remarks != nil {
		if !p.RemarksVisibleTo(viewer) {
			return nil, authz.ErrPermissionDenied
		}
		fields.Remarks = *in.Remarks
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionUpdate, id, nil)
	return s.repo.FindByID(ctx, id)
}

// Delete soft-deletes a project. Requires project.delete_all.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return err
	}
	if err := authz.Ensure(viewer.Actor, authz.PermProjectDeleteAll); err != nil {
		return err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.VisibleTo(viewer) {
		return ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionDelete, id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID(),
		Role:     actor.Role().String(),
		Action:   action,
		Entity:   "project",
		EntityID: entityID,
		Meta:     meta,
	})
}
