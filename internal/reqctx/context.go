// Package reqctx provides the request-scoped resolution context. Use cases
// receive a *Context instead of a raw user id and resolve the acting user's
// role and project ownership through it; each resolution hits the backing
// directory at most once per request.
package reqctx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/shared"
)

// ErrUserNotFound indicates the context's user id has no persisted account.
var ErrUserNotFound = errors.New("reqctx: user not found")

// DirectoryUser is the slice of user state actor resolution needs.
type DirectoryUser struct {
	ID      string
	Role    authz.Role
	Deleted bool
}

// UserDirectory looks up users for actor resolution. Absent users are
// reported as (nil, nil); errors are reserved for repository failures.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id string) (*DirectoryUser, error)
}

// ProjectRef is the slice of project state ownership resolution needs.
type ProjectRef struct {
	ID         string
	Category   shared.ProjectCategory
	Attributes shared.AttributeSet
}

// ProjectDirectory looks up project ownership by user id. Absent projects
// are reported as (nil, nil).
type ProjectDirectory interface {
	FindProjectByOwner(ctx context.Context, userID string) (*ProjectRef, error)
	FindProjectBySubOwner(ctx context.Context, userID string) (*ProjectRef, error)
}

// Context resolves the acting user lazily and memoizes the result for the
// lifetime of one request. It must not outlive the request that created it.
type Context struct {
	userID      string
	requestedAt time.Time

	users    UserDirectory
	projects ProjectDirectory

	actorOnce sync.Once
	actor     authz.Actor
	actorErr  error

	projectOnce sync.Once
	owned       *authz.OwnedProject
	projectErr  error
}

// New builds a Context for the given user id.
func New(userID string, users UserDirectory, projects ProjectDirectory) *Context {
	return &Context{
		userID:      userID,
		requestedAt: time.Now().UTC(),
		users:       users,
		projects:    projects,
	}
}

// NewWithActor builds a Context with a pre-bound actor, bypassing user
// lookup. Used by system-internal callers and tests.
func NewWithActor(actor authz.Actor, projects ProjectDirectory) *Context {
	c := &Context{
		userID:      actor.UserID(),
		requestedAt: time.Now().UTC(),
		projects:    projects,
	}
	c.actorOnce.Do(func() { c.actor = actor })
	return c
}

// UserID returns the id the context was created for.
func (c *Context) UserID() string {
	return c.userID
}

// RequestedAt returns the context creation time.
func (c *Context) RequestedAt() time.Time {
	return c.requestedAt
}

// Actor resolves the acting user's role. The lookup runs once; later calls
// return the memoized result, including a memoized failure.
func (c *Context) Actor(ctx context.Context) (authz.Actor, error) {
	c.actorOnce.Do(func() {
		user, err := c.users.FindUserByID(ctx, c.userID)
		if err != nil {
			c.actorErr = fmt.Errorf("reqctx: resolve actor: %w", err)
			return
		}
		if user == nil || user.Deleted {
			c.actorErr = ErrUserNotFound
			return
		}
		c.actor = authz.NewActor(user.ID, user.Role)
	})
	return c.actor, c.actorErr
}

// Project resolves the caller's owned project, if any. Owner is consulted
// first and wins outright: a user recorded as both owner and sub-owner
// resolves as owner. Returns (nil, nil) when the user holds no project.
func (c *Context) Project(ctx context.Context) (*authz.OwnedProject, error) {
	c.projectOnce.Do(func() {
		if c.projects == nil {
			return
		}
		ref, err := c.projects.FindProjectByOwner(ctx, c.userID)
		if err != nil {
			c.projectErr = fmt.Errorf("reqctx: resolve project: %w", err)
			return
		}
		if ref != nil {
			c.owned = ownedFromRef(authz.OwnershipOwner, ref)
			return
		}
		ref, err = c.projects.FindProjectBySubOwner(ctx, c.userID)
		if err != nil {
			c.projectErr = fmt.Errorf("reqctx: resolve project: %w", err)
			return
		}
		if ref != nil {
			c.owned = ownedFromRef(authz.OwnershipSubOwner, ref)
		}
	})
	return c.owned, c.projectErr
}

// Viewer resolves both the actor and the owned project for instance-level
// visibility checks.
func (c *Context) Viewer(ctx context.Context) (authz.Viewer, error) {
	actor, err := c.Actor(ctx)
	if err != nil {
		return authz.Viewer{}, err
	}
	owned, err := c.Project(ctx)
	if err != nil {
		return authz.Viewer{}, err
	}
	return authz.Viewer{Actor: actor, Owned: owned}, nil
}

func ownedFromRef(kind authz.OwnershipKind, ref *ProjectRef) *authz.OwnedProject {
	return &authz.OwnedProject{
		Kind:       kind,
		ProjectID:  ref.ID,
		Category:   ref.Category,
		Attributes: ref.Attributes,
	}
}
