package news

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// Service handles announcement use cases.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// Input carries the caller-supplied fields of an announcement. Draft wins
// over PublishAt; a future PublishAt schedules, anything else publishes
// immediately.
type Input struct {
	Title       string
	Body        string
	Attachments []string
	Categories  shared.CategorySet
	Attributes  shared.AttributeSet
	Draft       bool
	PublishAt   *time.Time
}

// Create registers an announcement. Requires news.create.
func (s *Service) Create(ctx context.Context, rc *reqctx.Context, in Input) (*News, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermNewsCreate); err != nil {
		return nil, err
	}

	n := &News{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Body:        in.Body,
		Attachments: in.Attachments,
		Categories:  in.Categories,
		Attributes:  in.Attributes,
	}
	s.applyState(n, in, false)
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionCreate, n.ID, map[string]any{"state": n.State.String()})
	return n, nil
}

// Get returns one announcement. A hidden announcement is reported exactly
// like a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*News, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return n, nil
}

// List returns the announcements visible to the caller. Committee readers
// see everything; project holders see published items targeted at them.
func (s *Service) List(ctx context.Context, rc *reqctx.Context) ([]News, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]News, 0, len(all))
	for _, n := range all {
		if n.VisibleTo(viewer) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// Update rewrites an announcement. Requires news.update_all. A published
// announcement stays published; drafts and scheduled items follow the input.
func (s *Service) Update(ctx context.Context, rc *reqctx.Context, id string, in Input) (*News, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermNewsUpdateAll); err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.DeletedAt != nil && !actor.HasPermission(authz.PermReadDeleted) {
		return nil, ErrNotFound
	}

	n.Title = in.Title
	n.Body = in.Body
	n.Attachments = in.Attachments
	n.Categories = in.Categories
	n.Attributes = in.Attributes
	s.applyState(n, in, n.State == StatePublished)
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionUpdate, id, map[string]any{"state": n.State.String()})
	return n, nil
}

// Delete soft-deletes an announcement. Requires news.delete_all.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return err
	}
	if err := authz.Ensure(actor, authz.PermNewsDeleteAll); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, shared.AuditActionDelete, id, nil)
	return nil
}

// PublishDue promotes scheduled announcements whose publish time has
// passed. Invoked from the background scheduler; returns how many items
// were published.
func (s *Service) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, n := range due {
		if err := s.repo.MarkPublished(ctx, n.ID, now); err != nil {
			s.logger.Error("publish scheduled news", slog.Any("error", err), slog.String("news_id", n.ID))
			continue
		}
		published++
	}
	return published, nil
}

// applyState derives the publication state from the input. keepPublished
// pins an already-published item regardless of the input.
func (s *Service) applyState(n *News, in Input, keepPublished bool) {
	switch {
	case keepPublished:
		n.State = StatePublished
	case in.Draft:
		n.State = StateDraft
		n.PublishAt = in.PublishAt
	case in.PublishAt != nil && in.PublishAt.After(s.now()):
		n.State = StateScheduled
		n.PublishAt = in.PublishAt
	default:
		now := s.now()
		n.State = StatePublished
		n.PublishAt = &now
	}
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID(),
		Role:     actor.Role().String(),
		Action:   action,
		Entity:   "news",
		EntityID: entityID,
		Meta:     meta,
	})
}
