package users

import (
	"context"
	"errors"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// ErrSelfDelete rejects deleting the acting account.
var ErrSelfDelete = errors.New("users: cannot delete own account")

// Service handles user management use cases.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all users. Requires user.read_all.
func (s *Service) List(ctx context.Context, rc *reqctx.Context) ([]User, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermUserReadAll); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Get returns one user. Callers always see themselves; anyone else needs
// user.read_all. A hidden user is reported exactly like a missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*User, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.UserID() != id {
		if err := authz.Ensure(actor, authz.PermUserReadAll); err != nil {
			return nil, err
		}
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.VisibleTo(authz.Viewer{Actor: actor}) {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateRole changes a user's role. Requires user.update_all.
func (s *Service) UpdateRole(ctx context.Context, rc *reqctx.Context, id string, role authz.Role) (*User, error) {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(actor, authz.PermUserUpdateAll); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, shared.AuditActionUpdate, id, map[string]any{"role": role.String()})
	return s.repo.FindByID(ctx, id)
}

// Delete soft-deletes a user. Requires user.delete_all; the caller cannot
// delete their own account.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return err
	}
	if err := authz.Ensure(actor, authz.PermUserDeleteAll); err != nil {
		return err
	}
	if actor.UserID() == id {
		return ErrSelfDelete
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, shared.AuditActionDelete, id, nil)
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
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	})
}
