package invitations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNotProjectOwner rejects creating an invitation without a project to
// invite into.
var ErrNotProjectOwner = errors.New("invitations: caller does not own a project")

// MailEnqueuer hands invitation mails to the background worker.
type MailEnqueuer interface {
	EnqueueInvitationMail(ctx context.Context, email, invitationID string) error
}

// Service handles invitation use cases.
type Service struct {
	repo   RepositoryPort
	mail   MailEnqueuer
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance. mail may be nil when no worker is
// wired, in which case no mails go out.
func NewService(repo RepositoryPort, mail MailEnqueuer, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, mail: mail, audit: audit, logger: logger}
}

// CreateInput carries the caller-supplied fields of a new invitation.
// ProjectID is honored only for invitation.create_all holders; project
// owners always invite into their own project. Email, when set, receives
// the invitation link.
type CreateInput struct {
	Position  Position
	ProjectID string
	Email     string
}

// Create issues an invitation. The owner of a project may invite into it;
// invitation.create_all holders may invite into any project.
func (s *Service) Create(ctx context.Context, rc *reqctx.Context, in CreateInput) (*Invitation, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	projectID := ""
	switch {
	case viewer.Actor.HasPermission(authz.PermInvitationCreateAll) && in.ProjectID != "":
		projectID = in.ProjectID
	case viewer.Owned != nil && viewer.Owned.Kind == authz.OwnershipOwner:
		projectID = viewer.Owned.ProjectID
	default:
		if viewer.Actor.HasPermission(authz.PermInvitationCreateAll) {
			return nil, ErrNotProjectOwner
		}
		return nil, authz.ErrPermissionDenied
	}

	inv := &Invitation{
		ID:        uuid.NewString(),
		InviterID: viewer.Actor.UserID(),
		ProjectID: projectID,
		Position:  in.Position,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionCreate, inv.ID, map[string]any{
		"project_id": projectID,
		"position":   in.Position.String(),
	})

	if in.Email != "" && s.mail != nil {
		if err := s.mail.EnqueueInvitationMail(ctx, in.Email, inv.ID); err != nil {
			// The invitation stands; the link can still be shared by hand.
			s.logger.Error("enqueue invitation mail", slog.Any("error", err), slog.String("invitation_id", inv.ID))
		}
	}
	return inv, nil
}

// Get returns one invitation. A hidden invitation is reported exactly like
// a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*Invitation, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return inv, nil
}

// List returns the caller's own invitations, or every invitation for
// invitation.read_all holders.
func (s *Service) List(ctx context.Context, rc *reqctx.Context) ([]Invitation, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.HasPermission(authz.PermInvitationReadAll) {
		return s.repo.List(ctx)
	}
	return s.repo.ListByInviter(ctx, actor.UserID())
}

// Receive redeems an invitation, binding the caller to the project in the
// invited position. Single-use: a spent ticket conflicts.
func (s *Service) Receive(ctx context.Context, rc *reqctx.Context, id string) (*Invitation, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.Redeem(ctx, id, actor.UserID())
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionUpdate, id, map[string]any{
		"project_id": inv.ProjectID,
		"position":   inv.Position.String(),
	})
	return inv, nil
}

// Delete soft-deletes an invitation. The inviter may delete their own
// unused invitations; invitation.delete_all lifts the ownership check.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return err
	}
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !inv.VisibleTo(viewer) {
		return ErrNotFound
	}
	if inv.InviterID != viewer.Actor.UserID() {
		if err := authz.Ensure(viewer.Actor, authz.PermInvitationDeleteAll); err != nil {
			return err
		}
	}
	if inv.Used() {
		return ErrAlreadyUsed
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
		Entity:   "invitation",
		EntityID: entityID,
		Meta:     meta,
	})
}
