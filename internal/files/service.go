package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/festahub/festahub/internal/archive"
	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/platform/objstore"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
)

// ErrNoProject rejects an owned upload from a caller without a project.
var ErrNoProject = errors.New("files: caller has no project to own the file")

// Service handles file use cases.
type Service struct {
	repo     RepositoryPort
	store    objstore.Store
	exporter *archive.Exporter
	audit    *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, store objstore.Store, exporter *archive.Exporter, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, store: store, exporter: exporter, audit: audit}
}

// Register stores the object and its metadata. Requires file.create. The
// file is bound to the caller's project; callers with news.create and no
// project upload public files instead.
func (s *Service) Register(ctx context.Context, rc *reqctx.Context, name, mimeType string, size int64, body io.Reader) (*FileMeta, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Ensure(viewer.Actor, authz.PermFileCreate); err != nil {
		return nil, err
	}

	var ownerProjectID *string
	switch {
	case viewer.Owned != nil:
		id := viewer.Owned.ProjectID
		ownerProjectID = &id
	case viewer.Actor.HasPermission(authz.PermNewsCreate):
		// Attachment uploads by committee operators stay public.
	default:
		return nil, ErrNoProject
	}

	f := &FileMeta{
		ID:             uuid.NewString(),
		Key:            "files/" + uuid.NewString(),
		Name:           name,
		MimeType:       mimeType,
		SizeBytes:      size,
		OwnerProjectID: ownerProjectID,
	}
	if err := s.store.Put(ctx, f.Key, body, mimeType); err != nil {
		return nil, fmt.Errorf("files: store object: %w", err)
	}
	if err := s.repo.Create(ctx, f); err != nil {
		_ = s.store.Delete(ctx, f.Key)
		return nil, err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionCreate, f.ID, map[string]any{"name": f.Name})
	return f, nil
}

// Get returns file metadata. A hidden file is reported exactly like a
// missing one.
func (s *Service) Get(ctx context.Context, rc *reqctx.Context, id string) (*FileMeta, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return f, nil
}

// Download returns the object body along with its metadata.
func (s *Service) Download(ctx context.Context, rc *reqctx.Context, id string) (*FileMeta, io.ReadCloser, error) {
	f, err := s.Get(ctx, rc, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.store.Fetch(ctx, f.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("files: fetch object: %w", err)
	}
	return f, body, nil
}

// ListByProject returns a project's files. Project members see their own;
// anyone else needs file.read_all.
func (s *Service) ListByProject(ctx context.Context, rc *reqctx.Context, projectID string) ([]FileMeta, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	if !viewer.OwnsProject(projectID) {
		if err := authz.Ensure(viewer.Actor, authz.PermFileReadAll); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByProject(ctx, projectID)
}

// ListPublic returns all public files.
func (s *Service) ListPublic(ctx context.Context, rc *reqctx.Context) ([]FileMeta, error) {
	if _, err := rc.Actor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListPublic(ctx)
}

// Delete soft-deletes a file. The owning project's members may delete
// their own; file.delete_all lifts the ownership check.
func (s *Service) Delete(ctx context.Context, rc *reqctx.Context, id string) error {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return err
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !f.VisibleTo(viewer) {
		return ErrNotFound
	}
	owned := f.OwnerProjectID != nil && viewer.OwnsProject(*f.OwnerProjectID)
	if !owned {
		if err := authz.Ensure(viewer.Actor, authz.PermFileDeleteAll); err != nil {
			return err
		}
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionDelete, id, nil)
	return nil
}

// ExportProjectFiles streams a zip of a project's files. Project members
// export their own; anyone else needs file.read_all. The returned name is
// the suggested download filename. The stream begins immediately; a
// storage failure mid-way truncates it with an error on the reader.
func (s *Service) ExportProjectFiles(ctx context.Context, rc *reqctx.Context, projectID string) (io.ReadCloser, string, error) {
	viewer, err := rc.Viewer(ctx)
	if err != nil {
		return nil, "", err
	}
	if !viewer.OwnsProject(projectID) {
		if err := authz.Ensure(viewer.Actor, authz.PermFileReadAll); err != nil {
			return nil, "", err
		}
	}
	list, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, "", err
	}

	entries := make([]archive.Entry, len(list))
	for i, f := range list {
		entries[i] = archive.Entry{Key: f.Key, Name: f.Name, Modified: f.UpdatedAt}
	}
	name := fmt.Sprintf("project-files-%s-%s.zip", projectID, time.Now().Format("20060102"))
	s.recordAudit(ctx, viewer.Actor, shared.AuditActionExport, projectID, map[string]any{"files": len(entries)})
	return s.exporter.Export(ctx, entries), name, nil
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID(),
		Role:     actor.Role().String(),
		Action:   action,
		Entity:   "file",
		EntityID: entityID,
		Meta:     meta,
	})
}
