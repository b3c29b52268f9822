package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service serves the administrator audit timeline.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// The timeline exposes who did what across every module, including actions on
// soft-deleted records, so it is restricted to administrators outright rather
// than to any single permission.
func ensureAdministrator(ctx context.Context, rc *reqctx.Context) error {
	actor, err := rc.Actor(ctx)
	if err != nil {
		return err
	}
	if actor.Role() != authz.RoleAdministrator {
		return authz.ErrPermissionDenied
	}
	return nil
}

// Timeline returns one page of audit entries matching the filters.
func (s *Service) Timeline(ctx context.Context, rc *reqctx.Context, filters TimelineFilters) (Result, error) {
	if err := ensureAdministrator(ctx, rc); err != nil {
		return Result{}, err
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.repo.TimelineWindow(ctx, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// ExportCSV renders every matching audit entry as CSV.
func (s *Service) ExportCSV(ctx context.Context, rc *reqctx.Context, filters TimelineFilters) ([]byte, error) {
	if err := ensureAdministrator(ctx, rc); err != nil {
		return nil, err
	}
	rows, err := s.repo.TimelineAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"occurred_at", "actor_id", "actor_role", "action", "entity", "entity_id", "meta"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		meta := ""
		if len(row.Meta) > 0 {
			encoded, err := json.Marshal(row.Meta)
			if err != nil {
				return nil, fmt.Errorf("audit: encode meta: %w", err)
			}
			meta = string(encoded)
		}
		record := []string{
			row.At.Format(time.RFC3339),
			row.ActorID,
			row.Role,
			row.Action,
			row.Entity,
			row.EntityID,
			meta,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
